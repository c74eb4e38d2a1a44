package snapshot

import "strings"

// disallowedFileChars covers the characters disallowed on any of Windows,
// macOS, or Linux filesystems — the union is the safe subset for a snapshot
// tree that may be committed and checked out across platforms.
const disallowedFileChars = `/\:*?"<>|`

// sanitizeFileNamePart strips path separators and filesystem-hostile
// characters from one name component, falling back to "artifact" when the
// result would otherwise be empty, per spec §4.6.
func sanitizeFileNamePart(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if strings.ContainsRune(disallowedFileChars, r) || r < 0x20 {
			continue
		}
		sb.WriteRune(r)
	}
	out := sb.String()
	if out == "" {
		return "artifact"
	}
	return out
}

// artifactFileName builds "<sanitizedSchema>.<sanitizedName>.json",
// catalog-prefixed when catalog is non-empty (cross-catalog references).
func artifactFileName(catalog, schema, name string) string {
	schemaPart := sanitizeFileNamePart(schema)
	namePart := sanitizeFileNamePart(name)
	if catalog == "" {
		return schemaPart + "." + namePart + ".json"
	}
	return sanitizeFileNamePart(catalog) + "." + schemaPart + "." + namePart + ".json"
}
