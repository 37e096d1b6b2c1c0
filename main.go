package main

import "github.com/haophotography/gallery-backend/cmd"

func main() {
	cmd.Execute()
}
