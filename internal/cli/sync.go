package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/lstvlab/dicomsync/internal/dicom"
	"github.com/lstvlab/dicomsync/internal/models"
	"github.com/lstvlab/dicomsync/internal/services"
	"github.com/spf13/cobra"
)

var syncApply bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the catalog with object storage",
	Long: `Sync compares the studies physically present in object storage against
the catalog, classifies every study as orphaned, missing, or existing, and
computes the catalog mutations needed to restore consistency. By default it
only prints the plan; pass --apply to execute it.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		c := initContext(ctx)
		defer c.Close()

		storageSnap, err := services.NewStorageScanner(c.Store, c.Config.StoragePrefix).Scan(ctx)
		if err != nil {
			exitError("%v", err)
		}
		catalogSnap, err := services.NewCatalogScanner(c.Catalog).Scan(ctx)
		if err != nil {
			exitError("%v", err)
		}

		builder := services.NewBuilder(
			dicom.NewExtractor(),
			services.StoreReader(c.Store, c.Config.StoragePrefix),
			c.Config.StoragePrefix,
		)
		plan, err := services.NewPlanner(builder).Plan(ctx, storageSnap, catalogSnap)
		if err != nil {
			exitError("%v", err)
		}

		printPlanSummary(plan)

		if !syncApply {
			fmt.Println()
			color.Yellow("Dry run, no changes were made. Run with --apply to execute this plan.")
			return
		}

		outcomes, err := services.Apply(ctx, c.Catalog, plan)
		if err != nil {
			exitError("%v", err)
		}
		printApplySummary(outcomes)
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncApply, "apply", false, "apply the computed plan instead of previewing it")
	rootCmd.AddCommand(syncCmd)
}

// printPlanSummary renders the three categories and the per-study
// mismatch flags for existing studies.
func printPlanSummary(plan *models.Plan) {
	bold := color.New(color.Bold)

	bold.Printf("Orphaned (in catalog, not in storage): %d\n", len(plan.Orphaned))
	for _, studyID := range plan.Orphaned {
		color.Red("  - study %s (will be deleted)", studyID)
	}

	bold.Printf("Missing (in storage, not in catalog): %d\n", len(plan.Missing))
	for _, studyID := range plan.Missing {
		color.Green("  - study %s (will be created)", studyID)
	}

	bold.Printf("Existing (in both, will be rebuilt): %d\n", len(plan.Existing))
	for _, counts := range plan.Existing {
		if counts.Mismatch() {
			color.Yellow("  - study %s: storage=%d files, catalog=%d files (stale)",
				counts.StudyID, counts.StorageFiles, counts.CatalogFiles)
		} else {
			fmt.Printf("  - study %s: storage=%d files, catalog=%d files\n",
				counts.StudyID, counts.StorageFiles, counts.CatalogFiles)
		}
	}
}

func printApplySummary(outcomes []models.ActionOutcome) {
	counts := map[models.ActionKind]int{}
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			counts[outcome.Action.Kind]++
		}
	}

	fmt.Println()
	color.New(color.Bold).Println("Sync complete.")
	fmt.Printf("  Deleted: %d studies\n", counts[models.ActionDelete])
	fmt.Printf("  Created: %d studies\n", counts[models.ActionCreate])
	fmt.Printf("  Updated: %d studies\n", counts[models.ActionUpdate])
}
