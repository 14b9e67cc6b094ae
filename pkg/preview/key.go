// Package preview defines the value types shared by the preview pipeline:
// cache keys, bitmaps and the render error taxonomy.
package preview

import (
	"fmt"
	"strings"
)

// SubjectKind identifies what a preview depicts.
type SubjectKind int

const (
	// KindTheme is a preview of the home feed under a reading theme.
	KindTheme SubjectKind = iota
	// KindTable is a preview of an article with infobox tables collapsed or expanded.
	KindTable
)

// Reading themes understood by the document builder.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeBlack  = "black"
	ThemeSepia  = "sepia"
	ThemeSystem = "system"
)

// String returns the short name used in file names and logs.
func (k SubjectKind) String() string {
	switch k {
	case KindTheme:
		return "theme"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// CacheDir returns the disk tier directory name for the kind.
func (k SubjectKind) CacheDir() string {
	return k.String() + "_previews"
}

// ParseSubjectKind parses "theme" or "table".
func ParseSubjectKind(s string) (SubjectKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "theme":
		return KindTheme, nil
	case "table":
		return KindTable, nil
	default:
		return 0, fmt.Errorf("unknown preview kind: %q", s)
	}
}

// Key identifies one preview permutation. Keys are comparable and
// can be used directly as map keys.
type Key struct {
	Kind      SubjectKind
	Theme     string
	Collapsed bool
	Version   string
}

// NewThemeKey returns the key of a theme preview. Collapse state does not
// apply to theme previews and is always false.
func NewThemeKey(theme, version string) Key {
	return Key{Kind: KindTheme, Theme: NormalizeTheme(theme), Version: version}
}

// NewTableKey returns the key of a table-collapse preview.
func NewTableKey(theme string, collapsed bool, version string) Key {
	return Key{Kind: KindTable, Theme: NormalizeTheme(theme), Collapsed: collapsed, Version: version}
}

// NormalizeTheme trims and lowercases a theme name so "Dark" and "dark"
// name the same preview.
func NormalizeTheme(theme string) string {
	return strings.ToLower(strings.TrimSpace(theme))
}

// String returns the file name stem of the key:
// <version>_<kind>_<theme>[_collapsed|_expanded].
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(VersionPrefix(k.Version))
	b.WriteString(k.Kind.String())
	b.WriteByte('_')
	b.WriteString(escape(k.Theme))
	if k.Kind == KindTable {
		if k.Collapsed {
			b.WriteString("_collapsed")
		} else {
			b.WriteString("_expanded")
		}
	}
	return b.String()
}

// FileName returns the disk tier file name of the key.
func (k Key) FileName() string {
	return k.String() + ".png"
}

// Label returns the short text drawn on a placeholder for this key.
func (k Key) Label() string {
	if k.Kind == KindTable {
		if k.Collapsed {
			return "Collapsed"
		}
		return "Expanded"
	}
	if k.Theme == "" {
		return "Theme"
	}
	return strings.ToUpper(k.Theme[:1]) + k.Theme[1:]
}

// WithTheme returns a copy of the key with a different theme.
func (k Key) WithTheme(theme string) Key {
	k.Theme = NormalizeTheme(theme)
	return k
}

// VersionPrefix returns the prefix every file of the given build version
// carries. An empty version is written as "0".
func VersionPrefix(version string) string {
	v := escape(version)
	if v == "" {
		v = "0"
	}
	return v + "_"
}

const upperHex = "0123456789ABCDEF"

// escape keeps [a-z0-9.-] and writes every other byte as %XX, so distinct
// inputs never share a file name and '_' stays free as a separator.
func escape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '-':
			out = append(out, c)
		default:
			out = append(out, '%', upperHex[c>>4], upperHex[c&15])
		}
	}
	return string(out)
}
