package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Interactively delete catalog entries",
	Long: `Cleanup lists every study in the catalog and deletes each one only
after an explicit per-study confirmation. It never touches object storage.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		c := initContext(ctx)
		defer c.Close()

		docs, err := c.Catalog.ListStudies(ctx)
		if err != nil {
			exitError("%v", err)
		}
		if len(docs) == 0 {
			fmt.Println("Catalog is empty.")
			return
		}

		deleted := 0
		for _, doc := range docs {
			fmt.Printf("Study: %s\n", doc.Study.StudyID)
			fmt.Printf("  Series: %d\n", doc.Study.TotalSeries)
			fmt.Printf("  Total slices: %d\n", doc.Study.TotalSlices)

			if !confirm("  Delete this study?") {
				fmt.Println("  Skipped.")
				continue
			}
			if err := c.Catalog.DeleteStudy(ctx, doc.DocID); err != nil {
				exitError("%v", err)
			}
			color.Green("  Deleted study %s", doc.Study.StudyID)
			deleted++
		}

		fmt.Printf("\nCleanup complete, %d studies deleted.\n", deleted)
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
