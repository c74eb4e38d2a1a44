package codegen

// ProcRef identifies one procedure by its schema and name, for naming
// purposes only — no behavior, just enough to key a collision map.
type ProcRef struct {
	Schema string
	Name   string
}

// ResolveMethodNames computes the aggregating-context method name for every
// procedure in procs. Per spec §4.8: names derive from the normalized
// procedure part; when two or more schemas contribute a procedure whose
// normalized name collides, the schema's Pascal prefix is prepended to
// EVERY colliding occurrence, not just the later duplicates — so the
// context's method set never depends on input ordering.
func ResolveMethodNames(procs []ProcRef) map[ProcRef]string {
	bySchema := map[string]map[string]bool{} // normalized name -> set of schemas
	for _, p := range procs {
		norm := PascalCase(p.Name)
		if bySchema[norm] == nil {
			bySchema[norm] = map[string]bool{}
		}
		bySchema[norm][p.Schema] = true
	}

	out := make(map[ProcRef]string, len(procs))
	for _, p := range procs {
		norm := PascalCase(p.Name)
		if len(bySchema[norm]) > 1 {
			out[p] = PascalCase(p.Schema) + norm
		} else {
			out[p] = norm
		}
	}
	return out
}
