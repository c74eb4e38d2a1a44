package schemamodel

// ResolutionPlan is the planner's output: which schemas are in scope, which
// objects need refreshing against the database, and whether the run can
// skip metadata queries entirely (a warm run).
type ResolutionPlan struct {
	EffectiveSchemas []string        `json:"EffectiveSchemas,omitempty"`
	Invalidation     Invalidation    `json:"Invalidation"`
	MissingSnapshots []string        `json:"MissingSnapshots,omitempty"`
	PlannerExecuted  bool            `json:"PlannerExecuted"`
	WarmRun          bool            `json:"WarmRun"`
	ReusedExistingResult bool        `json:"ReusedExistingResult,omitempty"`
	PlanFilePath     string          `json:"PlanFilePath,omitempty"`
}

// Invalidation groups the objects the planner has decided must be
// refreshed, batched to cap parallelism during the snapshot run.
type Invalidation struct {
	RefreshPlan     [][]string `json:"RefreshPlan,omitempty"`
	ObjectsToRefresh []string  `json:"ObjectsToRefresh,omitempty"`
}

// NeedsRefresh reports whether any object requires a metadata refresh. The
// complement of WarmRun.
func (p *ResolutionPlan) NeedsRefresh() bool {
	return len(p.Invalidation.ObjectsToRefresh) > 0
}
