package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/xtraq/xtraq/internal/codegen"
	"github.com/xtraq/xtraq/internal/planner"
	"github.com/xtraq/xtraq/internal/schemamodel"
	"github.com/xtraq/xtraq/internal/snapshot"
	"github.com/xtraq/xtraq/internal/telemetry"
	"github.com/xtraq/xtraq/internal/xerrors"
)

// BuildOptions configures one build run.
type BuildOptions struct {
	ProcedureFilter string // positional glob filter; empty matches everything
	Telemetry       bool
}

// BuildResult summarizes a completed build run.
type BuildResult struct {
	Files         []codegen.File
	WrittenPaths  []string
	TelemetryPath string
}

// Build runs spec §4.10's build sequence: ensure snapshot present → planner
// (warm-path, reusing the prior index as both sides of the comparison so
// nothing is marked stale and only scope filtering applies) → read metadata
// from snapshot → table-type generator → procedure generator → aggregating
// context generator → telemetry. It never opens a database connection.
func (o *Orchestrator) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	rec := telemetry.NewRecorder(o.RootDir, "build", opts.Telemetry)

	provider, err := snapshot.NewProvider(o.snapshotDir())
	if err != nil {
		return nil, err
	}
	idx := provider.Index()
	if len(idx.Procedures) == 0 {
		return nil, xerrors.Config("orchestrator.build", errNoSnapshot)
	}

	ignoreCfg, err := loadIgnoreConfig(o.Config)
	if err != nil {
		return nil, err
	}
	filterFn := procedureGlobFilter(opts.ProcedureFilter)

	var plan schemamodel.ResolutionPlan
	err = rec.Phase("plan", func() error {
		live := make([]planner.LiveProcedure, len(idx.Procedures))
		for i, p := range idx.Procedures {
			live[i] = planner.LiveProcedure{Schema: p.Schema, Name: p.Name, ModifiedTicks: p.ModifiedTicks}
		}
		plan = planner.Plan(idx, live, liveSchemasFromIndex(idx), planner.Options{
			ConfiguredSchemas: o.Config.BuildSchemas,
			IgnoreSchema:      ignoreCfg.MatchesSchema,
			IgnoreProcedure:   ignoreCfg.MatchesProcedure,
			ProcedureFilter:   filterFn,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	var procedures []*schemamodel.ProcedureDescriptor
	var tableTypes []*schemamodel.TableTypeInfo
	err = rec.Phase("read", func() error {
		for _, entry := range idx.Procedures {
			if !inEffectiveScope(entry.Schema, plan.EffectiveSchemas) {
				continue
			}
			if ignoreCfg.MatchesProcedure(entry.Schema, entry.Name) {
				continue
			}
			if filterFn != nil && !filterFn(entry.Schema, entry.Name) {
				continue
			}
			desc, found, hydrateErr := provider.Procedure(entry.Schema, entry.Name)
			if hydrateErr != nil {
				return hydrateErr
			}
			if !found {
				continue
			}
			procedures = append(procedures, desc)
		}

		for _, entry := range idx.TableTypes {
			if !inEffectiveScope(entry.Schema, plan.EffectiveSchemas) {
				continue
			}
			tt, found, hydrateErr := provider.TableType(entry.Schema, entry.Name)
			if hydrateErr != nil {
				return hydrateErr
			}
			if found {
				tableTypes = append(tableTypes, tt)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	genOpts := codegen.Options{
		ModulePath:                       o.Config.NamespaceRoot,
		EmitJsonIncludeNullValues:        o.Config.EmitJsonIncludeNullValues,
		EnableMinimalApiExtensions:       o.Config.EnableMinimalApiExtensions,
		EnableEntityFrameworkIntegration: o.Config.EnableEntityFrameworkIntegration,
	}

	var files []codegen.File
	err = rec.Phase("generate", func() error {
		for _, tt := range tableTypes {
			files = append(files, codegen.GenerateTableType(tt))
		}

		execResolver := func(schema, name string) (*schemamodel.ProcedureDescriptor, bool) {
			desc, found, lookupErr := provider.Procedure(schema, name)
			if lookupErr != nil || !found {
				return nil, false
			}
			return desc, true
		}
		gen := codegen.NewGenerator(genOpts, execResolver, o.Diag)

		contextProcs := make([]codegen.ContextProcedure, 0, len(procedures))
		for _, desc := range procedures {
			files = append(files, gen.GenerateProcedure(desc))

			hasInput := false
			for _, p := range desc.InputParameters {
				if !p.IsOutput {
					hasInput = true
					break
				}
			}
			contextProcs = append(contextProcs, codegen.ContextProcedure{
				Schema:   desc.Schema,
				Name:     desc.Name,
				HasInput: hasInput,
			})
		}

		if len(contextProcs) > 0 {
			files = append(files, codegen.GenerateContext(genOpts, contextProcs))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var written []string
	err = rec.Phase("output", func() error {
		var writeErr error
		written, writeErr = o.writeFiles(files)
		return writeErr
	})
	if err != nil {
		return nil, err
	}

	telemetryPath, _ := rec.Flush(plan.WarmRun, nil)

	return &BuildResult{Files: files, WrittenPaths: written, TelemetryPath: telemetryPath}, nil
}

// writeFiles persists every generated file under RootDir/OutputDir, one
// subdirectory per schema package, skipping a write whose content already
// matches what's on disk — the same touchless-when-unchanged property the
// snapshot writer guarantees for artifacts.
func (o *Orchestrator) writeFiles(files []codegen.File) ([]string, error) {
	base := filepath.Join(o.RootDir, o.Config.OutputDir)

	written := make([]string, 0, len(files))
	for _, f := range files {
		dir := base
		if f.Schema != "" {
			dir = filepath.Join(base, strings.ToLower(f.Schema))
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, xerrors.IO("orchestrator.mkdir", err)
		}

		path := filepath.Join(dir, f.FileName)
		if existing, err := os.ReadFile(path); err == nil && string(existing) == f.Source {
			continue
		}
		if err := os.WriteFile(path, []byte(f.Source), 0o644); err != nil {
			return nil, xerrors.IO("orchestrator.writeFile", err)
		}
		written = append(written, path)
	}
	return written, nil
}

// liveSchemasFromIndex derives the schema list a warm-path plan unions
// against the configured scope, since a build run has no live database
// connection to ask.
func liveSchemasFromIndex(idx *schemamodel.SnapshotIndex) []string {
	set := map[string]bool{}
	for _, p := range idx.Procedures {
		set[p.Schema] = true
	}
	for _, t := range idx.Tables {
		set[t.Schema] = true
	}
	for _, tt := range idx.TableTypes {
		set[tt.Schema] = true
	}
	for _, ut := range idx.UserDefinedTypes {
		set[ut.Schema] = true
	}
	for _, fn := range idx.Functions {
		set[fn.Schema] = true
	}

	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

type buildError string

func (e buildError) Error() string { return string(e) }

const errNoSnapshot = buildError("no snapshot found under .xtraq/snapshots — run the snapshot command first")
