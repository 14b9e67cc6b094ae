package preview

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{NewThemeKey("light", "2.1.0"), "2.1.0_theme_light"},
		{NewTableKey("sepia", true, "2.1.0"), "2.1.0_table_sepia_collapsed"},
		{NewTableKey("dark", false, "2.1.0"), "2.1.0_table_dark_expanded"},
		{NewThemeKey("light", ""), "0_theme_light"},
		{NewThemeKey("light", "1_0"), "1%5F0_theme_light"},
		{NewThemeKey("light", "2.0-RC1"), "2.0-%52%431_theme_light"},
	}

	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestKey_ThemeIsNormalized(t *testing.T) {
	a := NewThemeKey(" Dark", "1.0")
	b := NewThemeKey("dark", "1.0")
	if a != b {
		t.Errorf("expected %+v and %+v to be the same key", a, b)
	}
	if got := NewTableKey("light", true, "1.0").WithTheme("SEPIA").Theme; got != "sepia" {
		t.Errorf("expected WithTheme to normalize, got %q", got)
	}
}

func TestKey_DistinctKeysHaveDistinctFileNames(t *testing.T) {
	keys := []Key{
		NewThemeKey("dark", "1_0"),
		NewThemeKey("dark", "1-0"),
		NewThemeKey("dark", "1%0"),
		NewThemeKey("dark", "1.0"),
		NewThemeKey("dark", "1.0_theme"),
		NewThemeKey("dark_theme", "1.0"),
		NewTableKey("dark", true, "1.0"),
		NewTableKey("dark_collapsed", false, "1.0"),
		NewTableKey("dark", false, "1.0"),
		{Kind: KindTheme, Theme: "Dark", Version: "1.0"},
		{Kind: KindTheme, Theme: "dark", Version: "1.0"},
	}

	seen := make(map[string]Key)
	for _, k := range keys {
		name := k.FileName()
		if prev, ok := seen[name]; ok {
			t.Errorf("keys %+v and %+v share file name %q", prev, k, name)
		}
		seen[name] = k
	}
}

func TestVersionPrefix_DoesNotMatchOtherVersions(t *testing.T) {
	prefix := VersionPrefix("1")
	other := NewThemeKey("light", "1_0").FileName()
	if len(other) >= len(prefix) && other[:len(prefix)] == prefix {
		t.Errorf("file %q of version 1_0 carries the prefix %q of version 1", other, prefix)
	}
}
