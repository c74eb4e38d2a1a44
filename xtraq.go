// Package xtraq provides a programmatic API for scraping SQL Server
// metadata into a content-addressed snapshot and generating strongly-typed
// Go client bindings from it, for callers that want to drive snapshot/build
// runs without shelling out to the CLI.
package xtraq

import (
	"context"

	"github.com/xtraq/xtraq/internal/codegen"
	"github.com/xtraq/xtraq/internal/config"
	"github.com/xtraq/xtraq/internal/diagnostics"
	"github.com/xtraq/xtraq/internal/orchestrator"
	"github.com/xtraq/xtraq/internal/schemamodel"
)

// Config mirrors the subset of xtraq.toml a Client needs to run; fields not
// set take the same defaults config.Default() applies to a file-less run.
type Config struct {
	ConnectionString                 string   // generator_connection_string
	OutputDir                        string   // output_dir (default "Xtraq")
	NamespaceRoot                    string   // namespace_root (default "Xtraq")
	BuildSchemas                     []string // build_schemas
	IgnoredSchemas                   []string // ignored_schemas
	IgnoredProcedures                []string // ignored_procedures
	EmitJsonIncludeNullValues        bool
	EnableMinimalApiExtensions       bool
	EnableEntityFrameworkIntegration bool
}

// SnapshotOptions configures one Client.Snapshot call.
type SnapshotOptions struct {
	NoCache         bool   // ignore the prior snapshot and refresh every in-scope object
	ProcedureFilter string // glob, matching either the bare name or its schema-qualified form
	Telemetry       bool   // write a phase-timing report alongside the snapshot
}

// BuildOptions configures one Client.Build call.
type BuildOptions struct {
	ProcedureFilter string
	Telemetry       bool
}

// Client is the entry point for driving snapshot and build runs
// programmatically, backed by the same internal/orchestrator.Orchestrator
// the CLI subcommands call into.
type Client struct {
	cfg     *config.Config
	rootDir string
	diag    *diagnostics.Handle
}

// NewClient builds a Client rooted at rootDir (the directory that holds, or
// will hold, .xtraq/snapshots). cfg.ConnectionString is required.
func NewClient(rootDir string, cfg Config) *Client {
	internalCfg := config.Default()
	internalCfg.GeneratorConnectionString = cfg.ConnectionString
	if cfg.OutputDir != "" {
		internalCfg.OutputDir = cfg.OutputDir
	}
	if cfg.NamespaceRoot != "" {
		internalCfg.NamespaceRoot = cfg.NamespaceRoot
	}
	internalCfg.BuildSchemas = cfg.BuildSchemas
	internalCfg.IgnoredSchemas = cfg.IgnoredSchemas
	internalCfg.IgnoredProcedures = cfg.IgnoredProcedures
	internalCfg.EmitJsonIncludeNullValues = cfg.EmitJsonIncludeNullValues
	internalCfg.EnableMinimalApiExtensions = cfg.EnableMinimalApiExtensions
	internalCfg.EnableEntityFrameworkIntegration = cfg.EnableEntityFrameworkIntegration

	return &Client{cfg: internalCfg, rootDir: rootDir, diag: diagnostics.New()}
}

// Diagnostics returns the entries recorded by the most recently completed
// Snapshot or Build call.
func (c *Client) Diagnostics() []diagnostics.Entry {
	return c.diag.Entries()
}

// Snapshot scrapes SQL Server metadata into a content-addressed snapshot
// under rootDir/.xtraq/snapshots, per spec §4.10's snapshot sequence.
func (c *Client) Snapshot(ctx context.Context, opts SnapshotOptions) (*schemamodel.SnapshotIndex, error) {
	o := orchestrator.New(c.cfg, c.rootDir, c.diag)
	result, err := o.Snapshot(ctx, orchestrator.SnapshotOptions{
		NoCache:         opts.NoCache,
		ProcedureFilter: opts.ProcedureFilter,
		Telemetry:       opts.Telemetry,
	})
	if err != nil {
		return nil, err
	}
	return result.Index, nil
}

// Build generates Go client bindings from the snapshot written by Snapshot,
// per spec §4.10's build sequence. It never opens a database connection.
func (c *Client) Build(ctx context.Context, opts BuildOptions) ([]codegen.File, error) {
	o := orchestrator.New(c.cfg, c.rootDir, c.diag)
	result, err := o.Build(ctx, orchestrator.BuildOptions{
		ProcedureFilter: opts.ProcedureFilter,
		Telemetry:       opts.Telemetry,
	})
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}
