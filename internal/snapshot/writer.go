// Package snapshot persists and reads back the content-addressed snapshot
// tree: one JSON artifact per procedure/table/table-type/user-type/
// function, plus a top-level index the planner and generator both consult.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xtraq/xtraq/internal/fingerprint"
	"github.com/xtraq/xtraq/internal/schemamodel"
	"github.com/xtraq/xtraq/internal/xerrors"
)

const (
	proceduresDir       = "procedures"
	tablesDir           = "tables"
	tableTypesDir       = "tableTypes"
	userDefinedTypesDir = "userDefinedTypes"
	functionsDir        = "functions"
	indexFileName       = "index.json"
)

// Writer persists a resolved snapshot under rootDir (the snapshots
// directory itself, e.g. <project>/.xtraq/snapshots) with
// the atomic, content-addressed, touchless-when-unchanged properties of
// spec §4.6.
type Writer struct {
	rootDir     string
	maxParallel int
	toolVersion string
}

// NewWriter returns a Writer rooted at rootDir (typically
// "<project>/.xtraq/snapshots"). maxParallel <= 0 defaults to
// runtime.NumCPU().
func NewWriter(rootDir string, maxParallel int, toolVersion string) *Writer {
	if maxParallel <= 0 {
		maxParallel = runtime.NumCPU()
	}
	return &Writer{rootDir: rootDir, maxParallel: maxParallel, toolVersion: toolVersion}
}

// WriteAll writes every procedure plus the schema objects its dependency
// graph actually needs, then rebuilds the index. Candidate schema-object
// lists may be a superset of what gets written — computeRequiredRefs trims
// them to referenced-only per spec §4.6.
func (w *Writer) WriteAll(
	ctx context.Context,
	procedures []*schemamodel.ProcedureDescriptor,
	candidateTables []*schemamodel.TableArtifact,
	candidateTableTypes []*schemamodel.TableTypeInfo,
	candidateUserTypes []*schemamodel.UserDefinedTypeInfo,
	candidateFunctions []*schemamodel.FunctionArtifact,
) (*schemamodel.SnapshotIndex, error) {
	procsByKey := make(map[string]*schemamodel.ProcedureDescriptor, len(procedures))
	for _, p := range procedures {
		procsByKey[procKey(p.Schema, p.Name)] = p
	}
	refs := computeRequiredRefs(procedures, procsByKey)

	tables := filterTables(candidateTables, refs.tables)
	tableTypes := filterTableTypes(candidateTableTypes, refs.tableTypes)
	userTypes := filterUserTypes(candidateUserTypes, refs.userTypes)
	functions := filterFunctions(candidateFunctions, refs.functions)

	for _, dir := range []string{proceduresDir, tablesDir, tableTypesDir, userDefinedTypesDir, functionsDir} {
		if err := os.MkdirAll(filepath.Join(w.rootDir, dir), 0o755); err != nil {
			return nil, xerrors.IO("snapshot.mkdir", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxParallel)

	procEntries := make([]schemamodel.ProcedureIndexEntry, len(procedures))
	for i, p := range procedures {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry, err := w.writeProcedure(p)
			if err != nil {
				return err
			}
			procEntries[i] = entry
			return nil
		})
	}

	tableEntries := make([]schemamodel.ObjectIndexEntry, len(tables))
	for i, t := range tables {
		i, t := i, t
		g.Go(func() error {
			entry, err := w.writeObject(tablesDir, t.Catalog, t.Schema, t.Name, t)
			if err != nil {
				return err
			}
			tableEntries[i] = entry
			return nil
		})
	}

	tableTypeEntries := make([]schemamodel.ObjectIndexEntry, len(tableTypes))
	for i, tt := range tableTypes {
		i, tt := i, tt
		g.Go(func() error {
			entry, err := w.writeObject(tableTypesDir, tt.Catalog, tt.Schema, tt.Name, tt)
			if err != nil {
				return err
			}
			tableTypeEntries[i] = entry
			return nil
		})
	}

	userTypeEntries := make([]schemamodel.ObjectIndexEntry, len(userTypes))
	for i, ut := range userTypes {
		i, ut := i, ut
		g.Go(func() error {
			entry, err := w.writeObject(userDefinedTypesDir, ut.Catalog, ut.Schema, ut.Name, ut)
			if err != nil {
				return err
			}
			userTypeEntries[i] = entry
			return nil
		})
	}

	functionEntries := make([]schemamodel.ObjectIndexEntry, len(functions))
	for i, f := range functions {
		i, f := i, f
		g.Go(func() error {
			entry, err := w.writeObject(functionsDir, f.Catalog, f.Schema, f.Name, f)
			if err != nil {
				return err
			}
			functionEntries[i] = entry
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := buildIndex(w.toolVersion, procEntries, tableEntries, tableTypeEntries, userTypeEntries, functionEntries)
	if err := w.writeIndex(index); err != nil {
		return nil, err
	}
	return index, nil
}

func (w *Writer) writeProcedure(p *schemamodel.ProcedureDescriptor) (schemamodel.ProcedureIndexEntry, error) {
	fileName := artifactFileName(p.Catalog, p.Schema, p.Name)
	path := filepath.Join(w.rootDir, proceduresDir, fileName)

	hash, err := writeAtomicJSON(path, p)
	if err != nil {
		return schemamodel.ProcedureIndexEntry{}, err
	}

	resultSets := make([]schemamodel.ResultSetIndexEntry, len(p.ResultSets))
	for i, rs := range p.ResultSets {
		resultSets[i] = schemamodel.ResultSetIndexEntry{
			Index:               rs.Index,
			Name:                rs.Name,
			ExecSourceSchema:    rs.ExecSourceSchema,
			ExecSourceProcedure: rs.ExecSourceProcedure,
		}
	}

	return schemamodel.ProcedureIndexEntry{
		Schema:        p.Schema,
		Name:          p.Name,
		File:          filepath.ToSlash(filepath.Join(proceduresDir, fileName)),
		Hash:          hash,
		ModifiedTicks: p.ModifiedTicks,
		ResultSets:    resultSets,
	}, nil
}

func (w *Writer) writeObject(dir, catalog, schema, name string, obj interface{}) (schemamodel.ObjectIndexEntry, error) {
	fileName := artifactFileName(catalog, schema, name)
	path := filepath.Join(w.rootDir, dir, fileName)

	hash, err := writeAtomicJSON(path, obj)
	if err != nil {
		return schemamodel.ObjectIndexEntry{}, err
	}

	return schemamodel.ObjectIndexEntry{
		Schema: schema,
		Name:   name,
		File:   filepath.ToSlash(filepath.Join(dir, fileName)),
		Hash:   hash,
	}, nil
}

func (w *Writer) writeIndex(index *schemamodel.SnapshotIndex) error {
	path := filepath.Join(w.rootDir, indexFileName)
	if _, err := writeAtomicJSON(path, index); err != nil {
		return err
	}
	return nil
}

// writeAtomicJSON marshals obj, compares its content hash against any
// existing file at path, and only writes (via a temp-file-then-rename) when
// the content actually changed — the touchless-when-unchanged property.
func writeAtomicJSON(path string, obj interface{}) (string, error) {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return "", xerrors.IO("snapshot.marshal", err)
	}
	data = append(data, '\n')
	hash := fingerprint.HashBytes(data)

	if existing, err := os.ReadFile(path); err == nil {
		if bytes.Equal(existing, data) {
			return hash, nil
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", xerrors.IO("snapshot.write", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", xerrors.IO("snapshot.rename", err)
	}
	return hash, nil
}

func buildIndex(
	toolVersion string,
	procedures []schemamodel.ProcedureIndexEntry,
	tables, tableTypes, userTypes, functions []schemamodel.ObjectIndexEntry,
) *schemamodel.SnapshotIndex {
	sort.Slice(procedures, func(i, j int) bool { return lessByName(procedures[i].Schema, procedures[i].Name, procedures[j].Schema, procedures[j].Name) })
	sort.Slice(tables, func(i, j int) bool { return lessByName(tables[i].Schema, tables[i].Name, tables[j].Schema, tables[j].Name) })
	sort.Slice(tableTypes, func(i, j int) bool { return lessByName(tableTypes[i].Schema, tableTypes[i].Name, tableTypes[j].Schema, tableTypes[j].Name) })
	sort.Slice(userTypes, func(i, j int) bool { return lessByName(userTypes[i].Schema, userTypes[i].Name, userTypes[j].Schema, userTypes[j].Name) })
	sort.Slice(functions, func(i, j int) bool { return lessByName(functions[i].Schema, functions[i].Name, functions[j].Schema, functions[j].Name) })

	allHashes := make([]string, 0, len(procedures)+len(tables)+len(tableTypes)+len(userTypes)+len(functions))
	for _, e := range procedures {
		allHashes = append(allHashes, e.Hash)
	}
	for _, e := range tables {
		allHashes = append(allHashes, e.Hash)
	}
	for _, e := range tableTypes {
		allHashes = append(allHashes, e.Hash)
	}
	for _, e := range userTypes {
		allHashes = append(allHashes, e.Hash)
	}
	for _, e := range functions {
		allHashes = append(allHashes, e.Hash)
	}

	return &schemamodel.SnapshotIndex{
		SchemaVersion: 1,
		Fingerprint:   fingerprint.IndexFingerprint(allHashes),
		Parser:        schemamodel.ParserInfo{ToolVersion: toolVersion, ParserVersion: "1"},
		Stats: schemamodel.IndexStats{
			ProcedureCount:       len(procedures),
			TableTypeCount:       len(tableTypes),
			UserDefinedTypeCount: len(userTypes),
			TableCount:           len(tables),
			FunctionCount:        len(functions),
		},
		Procedures:       procedures,
		TableTypes:       tableTypes,
		UserDefinedTypes: userTypes,
		Tables:           tables,
		Functions:        functions,
	}
}

func lessByName(schemaA, nameA, schemaB, nameB string) bool {
	sa, sb := strings.ToLower(schemaA), strings.ToLower(schemaB)
	if sa != sb {
		return sa < sb
	}
	return strings.ToLower(nameA) < strings.ToLower(nameB)
}

func filterTables(candidates []*schemamodel.TableArtifact, required *RefSet) []*schemamodel.TableArtifact {
	var out []*schemamodel.TableArtifact
	for _, t := range candidates {
		if required.Has(t.Schema + "." + t.Name) {
			out = append(out, t)
		}
	}
	return out
}

func filterTableTypes(candidates []*schemamodel.TableTypeInfo, required *RefSet) []*schemamodel.TableTypeInfo {
	var out []*schemamodel.TableTypeInfo
	for _, tt := range candidates {
		if required.Has(tt.Schema+"."+tt.Name) || required.Has(fmt.Sprintf("%s.%s.%s", tt.Catalog, tt.Schema, tt.Name)) {
			out = append(out, tt)
		}
	}
	return out
}

func filterUserTypes(candidates []*schemamodel.UserDefinedTypeInfo, required *RefSet) []*schemamodel.UserDefinedTypeInfo {
	var out []*schemamodel.UserDefinedTypeInfo
	for _, ut := range candidates {
		if required.Has(ut.Schema + "." + ut.Name) {
			out = append(out, ut)
		}
	}
	return out
}

func filterFunctions(candidates []*schemamodel.FunctionArtifact, required *RefSet) []*schemamodel.FunctionArtifact {
	var out []*schemamodel.FunctionArtifact
	for _, f := range candidates {
		if required.Has(f.Schema + "." + f.Name) {
			out = append(out, f)
		}
	}
	return out
}
