package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanReadableSize(t *testing.T) {
	assert.Equal(t, "0 B", HumanReadableSize(0))
	assert.Equal(t, "512 B", HumanReadableSize(512))
	assert.Equal(t, "1.00 KB", HumanReadableSize(1024))
	assert.Equal(t, "2.50 MB", HumanReadableSize(int64(2.5*1024*1024)))
	assert.Equal(t, "1.00 GB", HumanReadableSize(1024*1024*1024))
}
