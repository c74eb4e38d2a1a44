package planner

import (
	"testing"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

func TestPlan_WarmRunWhenNothingChanged(t *testing.T) {
	prior := &schemamodel.SnapshotIndex{
		Procedures: []schemamodel.ProcedureIndexEntry{
			{Schema: "dbo", Name: "GetCustomer", ModifiedTicks: 100},
		},
	}
	live := []LiveProcedure{{Schema: "dbo", Name: "GetCustomer", ModifiedTicks: 100}}

	plan := Plan(prior, live, []string{"dbo"}, Options{})

	if !plan.WarmRun {
		t.Fatalf("expected warm run, got %+v", plan)
	}
	if plan.NeedsRefresh() {
		t.Fatalf("expected no refresh needed")
	}
}

func TestPlan_StaleModifiedTicksTriggerRefresh(t *testing.T) {
	prior := &schemamodel.SnapshotIndex{
		Procedures: []schemamodel.ProcedureIndexEntry{
			{Schema: "dbo", Name: "GetCustomer", ModifiedTicks: 100},
		},
	}
	live := []LiveProcedure{{Schema: "dbo", Name: "GetCustomer", ModifiedTicks: 200}}

	plan := Plan(prior, live, []string{"dbo"}, Options{})

	if plan.WarmRun {
		t.Fatalf("expected a cold run")
	}
	if len(plan.Invalidation.ObjectsToRefresh) != 1 || plan.Invalidation.ObjectsToRefresh[0] != "dbo.getcustomer" {
		t.Fatalf("unexpected refresh set: %+v", plan.Invalidation.ObjectsToRefresh)
	}
}

func TestPlan_NewProcedureIsMissingAndRefreshed(t *testing.T) {
	prior := &schemamodel.SnapshotIndex{}
	live := []LiveProcedure{{Schema: "dbo", Name: "NewProc", ModifiedTicks: 10}}

	plan := Plan(prior, live, []string{"dbo"}, Options{})

	if len(plan.MissingSnapshots) != 1 {
		t.Fatalf("expected one missing snapshot, got %+v", plan.MissingSnapshots)
	}
	if !plan.NeedsRefresh() {
		t.Fatalf("expected refresh needed for new procedure")
	}
}

func TestPlan_ExecCallerInvalidatedTwoLevelsDeep(t *testing.T) {
	prior := &schemamodel.SnapshotIndex{
		Procedures: []schemamodel.ProcedureIndexEntry{
			{Schema: "dbo", Name: "Leaf", ModifiedTicks: 100},
			{
				Schema: "dbo", Name: "Middle", ModifiedTicks: 100,
				ResultSets: []schemamodel.ResultSetIndexEntry{
					{ExecSourceSchema: "dbo", ExecSourceProcedure: "Leaf"},
				},
			},
			{
				Schema: "dbo", Name: "Root", ModifiedTicks: 100,
				ResultSets: []schemamodel.ResultSetIndexEntry{
					{ExecSourceSchema: "dbo", ExecSourceProcedure: "Middle"},
				},
			},
		},
	}
	live := []LiveProcedure{
		{Schema: "dbo", Name: "Leaf", ModifiedTicks: 999}, // changed
		{Schema: "dbo", Name: "Middle", ModifiedTicks: 100},
		{Schema: "dbo", Name: "Root", ModifiedTicks: 100},
	}

	plan := Plan(prior, live, []string{"dbo"}, Options{})

	refreshed := map[string]bool{}
	for _, o := range plan.Invalidation.ObjectsToRefresh {
		refreshed[o] = true
	}
	for _, key := range []string{"dbo.leaf", "dbo.middle", "dbo.root"} {
		if !refreshed[key] {
			t.Fatalf("expected %s to be invalidated, refresh set = %+v", key, plan.Invalidation.ObjectsToRefresh)
		}
	}
}

func TestPlan_SkipPlannerForcesFullRefresh(t *testing.T) {
	prior := &schemamodel.SnapshotIndex{
		Procedures: []schemamodel.ProcedureIndexEntry{
			{Schema: "dbo", Name: "Unchanged", ModifiedTicks: 100},
		},
	}
	live := []LiveProcedure{{Schema: "dbo", Name: "Unchanged", ModifiedTicks: 100}}

	plan := Plan(prior, live, []string{"dbo"}, Options{SkipPlanner: true})

	if plan.WarmRun {
		t.Fatalf("--no-cache must never report a warm run")
	}
}

func TestPlan_IgnoredSchemaExcluded(t *testing.T) {
	prior := &schemamodel.SnapshotIndex{}
	live := []LiveProcedure{{Schema: "staging", Name: "Temp", ModifiedTicks: 1}}

	plan := Plan(prior, live, []string{"dbo", "staging"}, Options{
		IgnoreSchema: func(schema string) bool { return schema == "staging" },
	})

	for _, s := range plan.EffectiveSchemas {
		if s == "staging" {
			t.Fatalf("expected staging schema to be excluded, got %+v", plan.EffectiveSchemas)
		}
	}
	if plan.NeedsRefresh() {
		t.Fatalf("expected no refresh work since the only live procedure is ignored")
	}
}
