package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lstvlab/dicomsync/internal/models"
)

// Planner partitions the studies observed in storage and catalog into three
// disjoint categories and computes the catalog mutations that reconcile the
// two: orphans (catalog only) are deleted, missing studies (storage only)
// are created, and existing studies are unconditionally rebuilt and
// overwritten. No field-level diffing: the redundant rebuild of an
// already-correct study buys the guarantee that catalog and storage cannot
// silently diverge on unobserved fields.
type Planner struct {
	builder *Builder
}

// NewPlanner creates a planner that uses builder to compute document bodies.
func NewPlanner(builder *Builder) *Planner {
	return &Planner{builder: builder}
}

// Plan computes the mutation plan from the two snapshots. Actions are
// emitted deletes first, then creates, then updates; within a category,
// studies are processed in sorted ID order so plans are deterministic.
// Deleting first minimizes the window where a stale orphan and a fresh
// study could collide on a reused identifier.
func (p *Planner) Plan(ctx context.Context, storage StorageSnapshot, catalog CatalogSnapshot) (*models.Plan, error) {
	plan := &models.Plan{}

	for studyID := range catalog {
		if _, ok := storage[studyID]; !ok {
			plan.Orphaned = append(plan.Orphaned, studyID)
		}
	}
	sort.Strings(plan.Orphaned)

	var missing, existing []string
	for studyID := range storage {
		if _, ok := catalog[studyID]; ok {
			existing = append(existing, studyID)
		} else {
			missing = append(missing, studyID)
		}
	}
	sort.Strings(missing)
	sort.Strings(existing)
	plan.Missing = missing

	for _, studyID := range existing {
		plan.Existing = append(plan.Existing, models.StudyCounts{
			StudyID:      studyID,
			StorageFiles: storage.FileCount(studyID),
			CatalogFiles: catalog[studyID].Study.TotalSlices,
		})
	}

	for _, studyID := range plan.Orphaned {
		plan.Actions = append(plan.Actions, models.Action{
			Kind:    models.ActionDelete,
			StudyID: studyID,
			DocID:   catalog[studyID].DocID,
		})
	}
	for _, studyID := range missing {
		doc, err := p.builder.Build(ctx, studyID, storage[studyID])
		if err != nil {
			return nil, fmt.Errorf("failed to build document for missing study %s: %w", studyID, err)
		}
		plan.Actions = append(plan.Actions, models.Action{
			Kind:    models.ActionCreate,
			StudyID: studyID,
			DocID:   studyID,
			Doc:     doc,
		})
	}
	for _, studyID := range existing {
		doc, err := p.builder.Build(ctx, studyID, storage[studyID])
		if err != nil {
			return nil, fmt.Errorf("failed to build document for existing study %s: %w", studyID, err)
		}
		plan.Actions = append(plan.Actions, models.Action{
			Kind:    models.ActionUpdate,
			StudyID: studyID,
			DocID:   catalog[studyID].DocID,
			Doc:     doc,
		})
	}

	slog.Info("Computed reconciliation plan.",
		"orphaned", len(plan.Orphaned),
		"missing", len(plan.Missing),
		"existing", len(plan.Existing),
	)
	return plan, nil
}
