package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild gallery and photo records from object storage",
	Run: func(cmd *cobra.Command, args []string) {
		RunReconcile()
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func RunReconcile() {
	deps := bootstrap()
	defer shutdown(deps)

	ctx := context.Background()

	galleryReport, err := deps.ReconcileService.ReconcileGalleries(ctx)
	if err != nil {
		log.Fatalf("Gallery reconciliation failed: %v", err)
	}
	log.Printf("Galleries: scanned=%d created=%d patched=%d covers=%d errors=%d",
		galleryReport.PrefixesScanned, galleryReport.Created, galleryReport.Patched,
		galleryReport.CoversSet, len(galleryReport.Errors))
	for _, msg := range galleryReport.Errors {
		log.Printf("  gallery error: %s", msg)
	}

	photoReport, err := deps.ReconcileService.ReconcilePhotos(ctx)
	if err != nil {
		log.Fatalf("Photo reconciliation failed: %v", err)
	}
	log.Printf("Photos: galleries=%d objects=%d created=%d patched=%d normalized=%d errors=%d",
		photoReport.GalleriesScanned, photoReport.ObjectsScanned, photoReport.RecordsCreated,
		photoReport.RecordsPatched, photoReport.Normalized, len(photoReport.Errors))
	for _, msg := range photoReport.Errors {
		log.Printf("  photo error: %s", msg)
	}
}
