package language

import "testing"

func TestToISO3(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "eng"},
		{"eng", "eng"},
		{"fre", "fra"},
		{"english", "eng"},
		{"GERMAN", "deu"},
		{"xyz", "xyz"},
		{"xy", "und"},
		{"", "und"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO3(tt.input); got != tt.expected {
				t.Errorf("ToISO3(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"eng", "en", true},
		{"english", "eng", true},
		{"fre", "fra", true},
		{"eng", "spa", false},
		{"qqx", "qqx", true},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := Matches(tt.a, tt.b); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSplitForced(t *testing.T) {
	tests := []struct {
		input string
		lang  string
		index int
		ok    bool
	}{
		{"eng", "eng", -1, true},
		{"eng:3", "eng", 3, true},
		{"spa:0", "spa", 0, true},
		{"eng:x", "eng", -1, false},
		{"eng:-2", "eng", -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lang, index, ok := SplitForced(tt.input)
			if lang != tt.lang || index != tt.index || ok != tt.ok {
				t.Errorf("SplitForced(%q) = (%q, %d, %v), want (%q, %d, %v)",
					tt.input, lang, index, ok, tt.lang, tt.index, tt.ok)
			}
		})
	}
}
