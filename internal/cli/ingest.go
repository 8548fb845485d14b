package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/lstvlab/dicomsync/internal/dicom"
	"github.com/lstvlab/dicomsync/internal/services"
	"github.com/spf13/cobra"
)

var (
	ingestTrial  bool
	ingestLimit  int
	ingestReport string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dicom-directory>",
	Short: "Upload a DICOM directory tree and write catalog documents",
	Long: `Ingest walks the immediate subdirectories of the given directory as
studies, each study's subdirectories as series, and uploads every .dcm file
that is not already in object storage. After each study it rebuilds and
overwrites that study's catalog document, so re-running after an
interruption is safe.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := args[0]
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			exitError("directory not found: %s", root)
		}

		limit := 0
		if ingestTrial {
			limit = ingestLimit
			studyDirs, err := services.ListStudyDirs(root)
			if err != nil {
				exitError("%v", err)
			}
			n := len(studyDirs)
			if limit < n {
				n = limit
			}
			color.Yellow("TRIAL MODE: uploading only %d of %d studies", n, len(studyDirs))
			if !confirm("Continue?") {
				fmt.Println("Upload cancelled.")
				return
			}
		}

		ctx := cmd.Context()
		c := initContext(ctx)
		defer c.Close()

		ing := services.NewIngestor(c.Store, c.Catalog, dicom.NewExtractor(), c.Config.StoragePrefix)
		report, err := ing.Run(ctx, root, limit)
		if err != nil {
			exitError("%v", err)
		}

		fmt.Println()
		color.New(color.Bold).Println("Upload summary")
		fmt.Printf("  Uploaded: %d studies (%d files uploaded, %d skipped)\n",
			len(report.Uploaded), report.FilesUploaded, report.FilesSkipped)
		fmt.Printf("  Failed:   %d studies\n", len(report.Failed))
		fmt.Printf("  Elapsed:  %.1f minutes\n", report.Elapsed.Minutes())
		if len(report.Failed) > 0 {
			color.Red("  Failed studies: %s", strings.Join(report.Failed, ", "))
		}

		if ingestReport != "" {
			if err := services.WriteReport(ingestReport, report); err != nil {
				exitError("%v", err)
			}
			fmt.Printf("  Report written to %s\n", ingestReport)
		}
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestTrial, "trial", false, "upload only a small sample after confirmation")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 3, "number of studies to upload in trial mode")
	ingestCmd.Flags().StringVar(&ingestReport, "report", "", "write a JSON run report to this path")
	rootCmd.AddCommand(ingestCmd)
}
