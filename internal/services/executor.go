package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lstvlab/dicomsync/internal/models"
)

// Apply executes a plan against the catalog in its fixed action order,
// returning one outcome per attempted action. The first catalog error stops
// the run: there is no retry here, re-running sync after the operator fixes
// the cause converges on the same end state.
func Apply(ctx context.Context, catalog Catalog, plan *models.Plan) ([]models.ActionOutcome, error) {
	outcomes := make([]models.ActionOutcome, 0, len(plan.Actions))

	for _, action := range plan.Actions {
		var err error
		switch action.Kind {
		case models.ActionDelete:
			err = catalog.DeleteStudy(ctx, action.DocID)
		case models.ActionCreate, models.ActionUpdate:
			err = catalog.SetStudy(ctx, action.DocID, action.Doc)
		default:
			err = fmt.Errorf("unknown action kind %q", action.Kind)
		}

		outcomes = append(outcomes, models.ActionOutcome{Action: action, Err: err})
		if err != nil {
			slog.Error("Plan application failed.", "action", string(action.Kind), "studyId", action.StudyID, "error", err)
			return outcomes, fmt.Errorf("failed to %s study %s: %w", action.Kind, action.StudyID, err)
		}
		slog.Info("Applied action.", "action", string(action.Kind), "studyId", action.StudyID)
	}
	return outcomes, nil
}
