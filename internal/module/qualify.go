package module

import (
	"path/filepath"
	"strings"
)

// FlattenName computes the collision-free internal name a module-aware
// qualified reference rewrites to: spec.md §4.1's "alias_name for a
// function, analogous flat forms for record/enum/variant references". The
// module component is derived from the importee's file identity rather
// than the alias the importer happened to choose, so two different
// importers using different aliases for the same file still produce the
// same internal name.
func FlattenName(moduleID, name string) string {
	return moduleBase(moduleID) + "_" + name
}

// moduleBase turns a module's file path into a valid identifier fragment:
// the file's base name without extension, with any character that can't
// appear in a Kooix identifier replaced by '_'.
func moduleBase(moduleID string) string {
	base := filepath.Base(moduleID)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ResolveAlias resolves an alias used within fromUnit to the module ID it
// was bound to by fromUnit's own imports. Unknown aliases are not an error
// at this layer — spec.md §4.1 assigns that check to the semantic
// analyzer, which has the full qualified-reference context to report it
// precisely (resolution error, §7).
func ResolveAlias(fromUnit *Unit, alias string) (targetID string, ok bool) {
	targetID, ok = fromUnit.Aliases[alias]
	return
}

// QualifiedName resolves `alias::name` as written in fromUnit to the
// flattened internal name of the export it denotes, using the importee's
// file identity (not the alias spelling) as the module component.
func QualifiedName(fromUnit *Unit, alias, name string) (flattened string, targetID string, ok bool) {
	targetID, ok = ResolveAlias(fromUnit, alias)
	if !ok {
		return "", "", false
	}
	return FlattenName(targetID, name), targetID, true
}
