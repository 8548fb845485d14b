package models

// ActionKind identifies a catalog mutation within a Plan.
type ActionKind string

const (
	ActionDelete ActionKind = "delete"
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
)

// Action is a single catalog mutation. DocID addresses the catalog document
// to delete or overwrite; for creates it equals the study ID. Doc is nil for
// deletes.
type Action struct {
	Kind    ActionKind
	StudyID string
	DocID   string
	Doc     *StudyDocument
}

// StudyCounts pairs the observed storage file count of an existing study
// with the total_slices value its catalog document claims. A mismatch means
// the document is stale.
type StudyCounts struct {
	StudyID      string
	StorageFiles int
	CatalogFiles int
}

// Mismatch reports whether the catalog document disagrees with storage.
func (c StudyCounts) Mismatch() bool {
	return c.StorageFiles != c.CatalogFiles
}

// Plan is the ordered set of mutations that reconciles the catalog with
// storage: deletes first, then creates, then updates. It is built once per
// run and immutable afterwards.
type Plan struct {
	Actions []Action

	// Category membership, sorted by study ID, for reporting.
	Orphaned []string
	Missing  []string
	Existing []StudyCounts
}

// Empty reports whether the plan contains no mutations.
func (p *Plan) Empty() bool {
	return len(p.Actions) == 0
}

// ActionOutcome records the result of applying one action.
type ActionOutcome struct {
	Action Action
	Err    error
}
