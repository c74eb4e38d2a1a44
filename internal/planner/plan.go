// Package planner computes a ResolutionPlan: which objects a snapshot run
// actually needs to re-query against the database, given the prior run's
// index. It is pure — no I/O, no global state — so it can be exercised with
// plain table-driven tests; internal/orchestrator calls it for both snapshot
// and build runs.
package planner

import (
	"sort"
	"strings"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

const defaultMaxBatchSize = 8

// LiveProcedure is one procedure as currently seen in the database — just
// enough for staleness comparison against the prior index.
type LiveProcedure struct {
	Schema        string
	Name          string
	ModifiedTicks int64
}

// Options configures one planning run.
type Options struct {
	// ConfiguredSchemas is the user's configured schema scope. Empty means
	// "all" — the live schema list stands in for it during the union step.
	ConfiguredSchemas []string

	IgnoreSchema    func(schema string) bool
	IgnoreProcedure func(schema, name string) bool

	// ProcedureFilter is the wildcard-aware positional filter; nil matches
	// everything.
	ProcedureFilter func(schema, name string) bool

	// SkipPlanner corresponds to --no-cache: every in-scope procedure is
	// marked for refresh regardless of its modified-tick.
	SkipPlanner bool

	// MaxBatchSize caps how many objects one refresh batch groups
	// together. Defaults to defaultMaxBatchSize when <= 0.
	MaxBatchSize int
}

// Plan computes a ResolutionPlan from the prior snapshot index (nil if this
// is the first run) and the current live procedure list plus the full set
// of schemas currently visible in the database.
func Plan(prior *schemamodel.SnapshotIndex, live []LiveProcedure, liveSchemas []string, opts Options) schemamodel.ResolutionPlan {
	effectiveSchemas := computeEffectiveSchemas(prior, liveSchemas, opts)
	inScope := filterInScope(live, effectiveSchemas, opts)

	priorByKey := indexProceduresByKey(prior)
	execCallers := buildExecCallerGraph(prior)

	refreshSet := map[string]bool{}
	var missing []string

	for _, proc := range inScope {
		key := procKey(proc.Schema, proc.Name)
		entry, found := priorByKey[key]
		if !found {
			missing = append(missing, key)
			refreshSet[key] = true
			continue
		}
		if opts.SkipPlanner || entry.ModifiedTicks != proc.ModifiedTicks {
			refreshSet[key] = true
		}
	}

	propagateExecInvalidation(refreshSet, execCallers, 2)

	objects := sortedKeys(refreshSet)
	batchSize := opts.MaxBatchSize
	if batchSize <= 0 {
		batchSize = defaultMaxBatchSize
	}

	sort.Strings(missing)
	plan := schemamodel.ResolutionPlan{
		EffectiveSchemas: effectiveSchemas,
		MissingSnapshots: missing,
		PlannerExecuted:  true,
		WarmRun:          len(objects) == 0,
		Invalidation: schemamodel.Invalidation{
			ObjectsToRefresh: objects,
			RefreshPlan:      batch(objects, batchSize),
		},
	}
	return plan
}

// computeEffectiveSchemas unions the configured scope (or, if empty, every
// live schema) with every schema present in the prior index, then removes
// ignored schemas — spec §4.5's effectiveSchemas rule.
func computeEffectiveSchemas(prior *schemamodel.SnapshotIndex, liveSchemas []string, opts Options) []string {
	base := opts.ConfiguredSchemas
	if len(base) == 0 {
		base = liveSchemas
	}

	set := map[string]bool{}
	for _, s := range base {
		set[s] = true
	}
	if prior != nil {
		for _, p := range prior.Procedures {
			set[p.Schema] = true
		}
	}

	var out []string
	for s := range set {
		if opts.IgnoreSchema != nil && opts.IgnoreSchema(s) {
			continue
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func filterInScope(live []LiveProcedure, effectiveSchemas []string, opts Options) []LiveProcedure {
	schemaSet := map[string]bool{}
	for _, s := range effectiveSchemas {
		schemaSet[strings.ToLower(s)] = true
	}

	var out []LiveProcedure
	for _, p := range live {
		if !schemaSet[strings.ToLower(p.Schema)] {
			continue
		}
		if opts.IgnoreProcedure != nil && opts.IgnoreProcedure(p.Schema, p.Name) {
			continue
		}
		if opts.ProcedureFilter != nil && !opts.ProcedureFilter(p.Schema, p.Name) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func indexProceduresByKey(prior *schemamodel.SnapshotIndex) map[string]schemamodel.ProcedureIndexEntry {
	out := map[string]schemamodel.ProcedureIndexEntry{}
	if prior == nil {
		return out
	}
	for _, p := range prior.Procedures {
		out[procKey(p.Schema, p.Name)] = p
	}
	return out
}

// buildExecCallerGraph inverts the prior index's EXEC result-set entries
// into callee -> callers, so invalidating a procedure can walk back to
// whoever calls it.
func buildExecCallerGraph(prior *schemamodel.SnapshotIndex) map[string][]string {
	graph := map[string][]string{}
	if prior == nil {
		return graph
	}
	for _, p := range prior.Procedures {
		caller := procKey(p.Schema, p.Name)
		for _, rs := range p.ResultSets {
			if rs.ExecSourceProcedure == "" {
				continue
			}
			callee := procKey(rs.ExecSourceSchema, rs.ExecSourceProcedure)
			graph[callee] = append(graph[callee], caller)
		}
	}
	return graph
}

// propagateExecInvalidation marks every caller of an already-invalidated
// procedure for refresh as well, up to maxDepth levels, per spec §4.5's
// "invalidates its cross-schema EXEC callers up to two levels deep" rule.
func propagateExecInvalidation(refreshSet map[string]bool, callers map[string][]string, maxDepth int) {
	frontier := make([]string, 0, len(refreshSet))
	for k := range refreshSet {
		frontier = append(frontier, k)
	}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, callee := range frontier {
			for _, caller := range callers[callee] {
				if !refreshSet[caller] {
					refreshSet[caller] = true
					next = append(next, caller)
				}
			}
		}
		frontier = next
	}
}

func batch(objects []string, size int) [][]string {
	if len(objects) == 0 {
		return nil
	}
	var out [][]string
	for i := 0; i < len(objects); i += size {
		end := i + size
		if end > len(objects) {
			end = len(objects)
		}
		out = append(out, objects[i:end])
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func procKey(schema, name string) string {
	return strings.ToLower(schema) + "." + strings.ToLower(name)
}
