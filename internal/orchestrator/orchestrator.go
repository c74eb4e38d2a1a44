// Package orchestrator sequences the snapshot and build commands of spec
// §4.10, wiring together config, the SQL Server metadata client, the
// planner, the content analyzer, the type resolver, the JSON enricher, the
// snapshot writer/reader, and the code generator. The CLI subcommands
// (cmd/snapshot, cmd/build) are thin cobra.Command wrappers around the two
// entry points this package exposes — the same linear
// connect→build→generate→output shape the teacher's cmd/dump.go and
// cmd/plan/plan.go run inline, generalized here into an explicit type so a
// public API package can drive it too.
package orchestrator

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/xtraq/xtraq/cmd/util"
	"github.com/xtraq/xtraq/internal/analyzer"
	"github.com/xtraq/xtraq/internal/config"
	"github.com/xtraq/xtraq/internal/diagnostics"
	"github.com/xtraq/xtraq/internal/ignore"
	"github.com/xtraq/xtraq/internal/jsonenrich"
	"github.com/xtraq/xtraq/internal/mssql"
	"github.com/xtraq/xtraq/internal/planner"
	"github.com/xtraq/xtraq/internal/schemamodel"
	"github.com/xtraq/xtraq/internal/snapshot"
	"github.com/xtraq/xtraq/internal/telemetry"
	"github.com/xtraq/xtraq/internal/typeresolve"
	"github.com/xtraq/xtraq/internal/version"
	"github.com/xtraq/xtraq/internal/xerrors"
)

// ToolVersion is stamped into every snapshot index this orchestrator writes.
// Defaults to the embedded release version; callers embedding this package
// under a different version scheme may override it before calling Snapshot.
var ToolVersion = version.App()

// Orchestrator runs one snapshot or build command against a project rooted
// at RootDir (the directory containing xtraq.toml and the generated
// .xtraq/snapshots tree).
type Orchestrator struct {
	Config  *config.Config
	RootDir string
	Diag    *diagnostics.Handle
}

// New builds an Orchestrator. diag defaults to a fresh handle if nil.
func New(cfg *config.Config, rootDir string, diag *diagnostics.Handle) *Orchestrator {
	if diag == nil {
		diag = diagnostics.New()
	}
	return &Orchestrator{Config: cfg, RootDir: rootDir, Diag: diag}
}

func (o *Orchestrator) snapshotDir() string {
	return filepath.Join(o.RootDir, ".xtraq", "snapshots")
}

// SnapshotOptions configures one snapshot run.
type SnapshotOptions struct {
	NoCache         bool   // --no-cache: skip planner staleness comparison, refresh everything in scope
	ProcedureFilter string // positional glob filter; empty matches everything
	Telemetry       bool
}

// SnapshotResult summarizes a completed snapshot run.
type SnapshotResult struct {
	Index         *schemamodel.SnapshotIndex
	Plan          schemamodel.ResolutionPlan
	TelemetryPath string
}

// Snapshot runs spec §4.10's snapshot sequence: load config (already done by
// the caller) → planner → metadata query (subject to refresh plan) →
// analyzer → type resolver → JSON enricher → writer → index update →
// telemetry.
func (o *Orchestrator) Snapshot(ctx context.Context, opts SnapshotOptions) (*SnapshotResult, error) {
	rec := telemetry.NewRecorder(o.RootDir, "snapshot", opts.Telemetry)

	dsn, err := util.ParseConnectionString(o.Config.GeneratorConnectionString)
	if err != nil {
		return nil, err
	}
	dsn.MaxOpenRetries = o.Config.MaxOpenRetries
	dsn.RetryDelayMs = o.Config.RetryDelayMs

	var db *xdb
	err = rec.Phase("connect", func() error {
		conn, connErr := util.Connect(ctx, dsn)
		if connErr != nil {
			return connErr
		}
		db = &xdb{client: mssql.NewClient(conn)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer db.client.Close()

	ignoreCfg, err := loadIgnoreConfig(o.Config)
	if err != nil {
		return nil, err
	}
	filterFn := procedureGlobFilter(opts.ProcedureFilter)

	provider, err := snapshot.NewProvider(o.snapshotDir())
	if err != nil {
		return nil, err
	}

	var plan schemamodel.ResolutionPlan
	var liveProcs []mssql.ProcedureSummary
	err = rec.Phase("plan", func() error {
		liveSchemas, listErr := db.client.ListSchemas(ctx)
		if listErr != nil {
			return listErr
		}
		liveProcs, listErr = db.client.ListProcedures(ctx, nil)
		if listErr != nil {
			return listErr
		}

		live := make([]planner.LiveProcedure, len(liveProcs))
		for i, p := range liveProcs {
			live[i] = planner.LiveProcedure{Schema: p.Schema, Name: p.Name, ModifiedTicks: p.ModifiedTicks}
		}

		plan = planner.Plan(provider.Index(), live, liveSchemas, planner.Options{
			ConfiguredSchemas: o.Config.BuildSchemas,
			IgnoreSchema:      ignoreCfg.MatchesSchema,
			IgnoreProcedure:   ignoreCfg.MatchesProcedure,
			ProcedureFilter:   filterFn,
			SkipPlanner:       opts.NoCache,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	refreshSet := map[string]bool{}
	for _, key := range plan.Invalidation.ObjectsToRefresh {
		refreshSet[key] = true
	}

	udts, err := db.client.ListUserDefinedTypes(ctx, plan.EffectiveSchemas)
	if err != nil {
		return nil, err
	}
	typeResolver := typeresolve.NewResolver(udts)

	var functions []*schemamodel.FunctionArtifact
	err = rec.Phase("functions", func() error {
		var buildErr error
		functions, buildErr = buildFunctionArtifacts(ctx, db.client, o.Diag, plan.EffectiveSchemas)
		return buildErr
	})
	if err != nil {
		return nil, err
	}
	functionJSON := functionJSONIndex(functions)

	tableColumns := newTableColumnCache(db.client)

	var procedures []*schemamodel.ProcedureDescriptor
	err = rec.Phase("analyze", func() error {
		for _, p := range liveProcs {
			key := procKey(p.Schema, p.Name)
			if !inEffectiveScope(p.Schema, plan.EffectiveSchemas) {
				continue
			}
			if ignoreCfg.MatchesProcedure(p.Schema, p.Name) {
				continue
			}
			if filterFn != nil && !filterFn(p.Schema, p.Name) {
				continue
			}

			if !refreshSet[key] {
				if cached, found, hydrateErr := provider.Procedure(p.Schema, p.Name); hydrateErr == nil && found {
					procedures = append(procedures, cached)
					continue
				}
			}

			desc, analyzeErr := o.analyzeProcedure(ctx, db.client, p, typeResolver, tableColumns, functionJSON)
			if analyzeErr != nil {
				return analyzeErr
			}
			procedures = append(procedures, desc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tableRefs, err := db.client.ListTables(ctx, plan.EffectiveSchemas)
	if err != nil {
		return nil, err
	}
	var tables []*schemamodel.TableArtifact
	err = rec.Phase("tables", func() error {
		for _, ref := range tableRefs {
			cols, colErr := tableColumns.get(ctx, ref.Schema, ref.Name)
			if colErr != nil {
				return colErr
			}
			tables = append(tables, &schemamodel.TableArtifact{Schema: ref.Schema, Name: ref.Name, Columns: cols})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tableTypeInfos, err := db.client.ListTableTypes(ctx, plan.EffectiveSchemas)
	if err != nil {
		return nil, err
	}
	tableTypes := make([]*schemamodel.TableTypeInfo, len(tableTypeInfos))
	for i := range tableTypeInfos {
		tableTypes[i] = &tableTypeInfos[i]
	}

	userTypes := make([]*schemamodel.UserDefinedTypeInfo, len(udts))
	for i := range udts {
		userTypes[i] = &udts[i]
	}

	var index *schemamodel.SnapshotIndex
	err = rec.Phase("write", func() error {
		writer := snapshot.NewWriter(o.snapshotDir(), 0, ToolVersion)
		var writeErr error
		index, writeErr = writer.WriteAll(ctx, procedures, tables, tableTypes, userTypes, functions)
		return writeErr
	})
	if err != nil {
		return nil, err
	}

	telemetryPath, _ := rec.Flush(plan.WarmRun, nil)

	return &SnapshotResult{Index: index, Plan: plan, TelemetryPath: telemetryPath}, nil
}

// analyzeProcedure fetches one procedure's definition and parameter shape,
// parses its body, and enriches its FOR JSON result sets — the
// analyzer→type resolver→JSON enricher portion of the snapshot sequence,
// applied to a single procedure so the caller can interleave it with
// snapshot-hydration for unchanged procedures.
func (o *Orchestrator) analyzeProcedure(
	ctx context.Context,
	client *mssql.Client,
	p mssql.ProcedureSummary,
	typeResolver *typeresolve.Resolver,
	tableColumns *tableColumnCache,
	functionJSON jsonenrich.FunctionJSONLookup,
) (*schemamodel.ProcedureDescriptor, error) {
	definition, err := client.GetProcedureDefinition(ctx, p.Schema, p.Name)
	if err != nil {
		return nil, err
	}
	inputs, err := client.ListProcedureInputs(ctx, p.Schema, p.Name)
	if err != nil {
		return nil, err
	}
	outputs, err := client.ListProcedureOutputs(ctx, p.Schema, p.Name)
	if err != nil {
		return nil, err
	}

	resolveParameterTypes(inputs, typeResolver)
	resolveColumnTypes(outputs, typeResolver)

	subjectName := p.Schema + "." + p.Name
	resolvers := analyzer.ResolverContext{
		ColumnType: func(schema, table, column string) (string, int, bool, bool) {
			cols, colErr := tableColumns.get(ctx, schema, table)
			if colErr != nil {
				return "", 0, false, false
			}
			for _, c := range cols {
				if strings.EqualFold(c.Name, column) {
					return c.SqlTypeName, c.MaxLength, c.IsNullable, true
				}
			}
			return "", 0, false, false
		},
		UserType: func(typeRef string) (string, int, bool) {
			resolved := typeResolver.Resolve(typeRef, 0, nil, nil, true)
			return resolved.SqlType, resolved.MaxLength, resolved.IsUserType
		},
		FunctionReturn: func(schema, function string) (string, bool) {
			info, fnErr := client.ListFunctionReturns(ctx, schema, function)
			if fnErr != nil || info == nil {
				return "", false
			}
			return info.SqlTypeName, true
		},
	}

	content := analyzer.Parse(definition, p.Schema, subjectName, resolvers, o.Diag)
	o.expandSelectStars(ctx, client, subjectName, content.ResultSets)
	if len(content.ResultSets) == 0 && len(outputs) > 0 {
		content.ResultSets = append(content.ResultSets, synthesizeOutputResultSet(outputs))
	}

	desc := &schemamodel.ProcedureDescriptor{
		Schema:             p.Schema,
		Name:               p.Name,
		OperationName:      p.Name,
		ModifiedTicks:      p.ModifiedTicks,
		InputParameters:    inputs,
		OutputFields:       outputs,
		ResultSets:         content.ResultSets,
		ExecutedProcedures: content.ExecutedProcedures,
	}

	tableColumnLookup := jsonenrich.TableColumnLookup(resolvers.ColumnType)
	jsonenrich.EnrichProcedure(desc, tableColumnLookup, functionJSON)

	return desc, nil
}

// synthesizeOutputResultSet applies spec §8's boundary behavior for a
// procedure whose body produces no result set of its own but does declare
// output parameters: those become the columns of a single synthesized
// non-JSON result set, so callers still get a typed row rather than nothing.
func synthesizeOutputResultSet(outputs []schemamodel.Column) schemamodel.ResultSet {
	return schemamodel.ResultSet{
		Index:   0,
		Name:    "Result1",
		Columns: outputs,
	}
}

// legacyJsonSentinelColumn is the column name sys.dm_exec_describe_first_result_set
// reports for a result set it can only describe as a single legacy FOR JSON
// blob, rather than enumerating real projected columns (spec §8 boundary
// behavior).
const legacyJsonSentinelColumn = "JSON_F52E2B61-18A1-11d1-B105-00805F49916B"

// expandSelectStars backfills columns for any result set the analyzer
// flagged with HasSelectStar but could not enumerate statically (spec
// §4.1's describeFirstResultSet, "for system views" — any SELECT * whose
// source isn't a table the ColumnType resolver already knows). A failure to
// describe one statement is recorded as a diagnostic rather than aborting
// the whole procedure, since an opaque star projection still produces a
// usable (if unexpanded) result set.
func (o *Orchestrator) expandSelectStars(ctx context.Context, client *mssql.Client, subjectName string, resultSets []schemamodel.ResultSet) {
	for i := range resultSets {
		rs := &resultSets[i]
		if rs.RawStatement == "" {
			continue
		}
		cols, err := client.DescribeFirstResultSet(ctx, rs.RawStatement)
		rs.RawStatement = ""
		if err != nil {
			o.Diag.Warn(subjectName, "select-star-describe-failed", "%v", err)
			continue
		}
		rs.Columns = cols
		o.upgradeLegacyJsonSentinel(rs)
	}
}

// upgradeLegacyJsonSentinel applies spec §8's legacy-sentinel boundary
// behavior: a single-column result set named for the legacy FOR JSON
// sentinel only becomes a JSON result set when LegacyJsonSentinelUpgrade is
// on; otherwise it is left as the opaque nvarchar(max) column describeFirstResultSet
// already reported, matching the column's actual declared SQL type.
func (o *Orchestrator) upgradeLegacyJsonSentinel(rs *schemamodel.ResultSet) {
	if !o.Config.LegacyJsonSentinelUpgrade {
		return
	}
	if len(rs.Columns) != 1 || rs.Columns[0].Name != legacyJsonSentinelColumn {
		return
	}
	rs.ReturnsJson = true
	rs.ReturnsJsonArray = true
	rs.Columns = nil
}

type xdb struct {
	client *mssql.Client
}

func loadIgnoreConfig(cfg *config.Config) (*ignore.Config, error) {
	fileCfg, err := ignore.Load()
	if err != nil {
		return nil, xerrors.Config("orchestrator.loadIgnore", err)
	}
	return ignore.Merge(fileCfg, cfg.IgnoredSchemas, cfg.IgnoredProcedures), nil
}

// procedureGlobFilter builds a planner.Options.ProcedureFilter from the
// CLI's positional glob argument, matching either the bare procedure name or
// its schema-qualified form, case-insensitively. An empty glob matches
// everything.
func procedureGlobFilter(glob string) func(schema, name string) bool {
	if glob == "" {
		return nil
	}
	return func(schema, name string) bool {
		return globMatch(glob, name) || globMatch(glob, schema+"."+name)
	}
}

func globMatch(pattern, subject string) bool {
	ok, err := filepath.Match(strings.ToLower(pattern), strings.ToLower(subject))
	return err == nil && ok
}

func inEffectiveScope(schema string, effectiveSchemas []string) bool {
	for _, s := range effectiveSchemas {
		if strings.EqualFold(s, schema) {
			return true
		}
	}
	return false
}

func procKey(schema, name string) string {
	return strings.ToLower(schema) + "." + strings.ToLower(name)
}
