package gen

import "testing"

func TestStripNumber(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"dot prefix", "1. Vectors", "Vectors"},
		{"paren prefix", "10) Matrices", "Matrices"},
		{"hierarchical prefix", "2.3 Eigenvalues", "Eigenvalues"},
		{"trailing dot prefix", "2.1. Eigenvalues", "Eigenvalues"},
		{"leading whitespace", "  3. Spaces", "Spaces"},
		{"no prefix", "Determinants", "Determinants"},
		{"number without separator space", "3.Fourier", "3.Fourier"},
		{"number mid-title", "The 3 Laws", "The 3 Laws"},
		{"roman numeral passes through", "IV. Classics", "IV. Classics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripNumber(tt.title); got != tt.want {
				t.Errorf("StripNumber(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestChapterTitle(t *testing.T) {
	tests := []struct {
		name   string
		number int
		title  string
		want   string
	}{
		{"plain title", 1, "Vectors", "1. Vectors"},
		{"provider number replaced", 2, "5. Matrices", "2. Matrices"},
		{"hierarchical provider number replaced", 3, "1.2 Spaces", "3. Spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChapterTitle(tt.number, tt.title); got != tt.want {
				t.Errorf("ChapterTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubchapterTitle(t *testing.T) {
	if got := SubchapterTitle(2, 3, "Dot Products"); got != "2.3 Dot Products" {
		t.Errorf("SubchapterTitle() = %q, want %q", got, "2.3 Dot Products")
	}
	if got := SubchapterTitle(1, 1, "4. Norms"); got != "1.1 Norms" {
		t.Errorf("SubchapterTitle() = %q, want %q", got, "1.1 Norms")
	}
}

func TestParseChapterNumber(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  int
		ok    bool
	}{
		{"dot prefix", "3. Concurrency", 3, true},
		{"paren prefix", "12) Generics", 12, true},
		{"hierarchical takes first component", "2.4 Slices", 2, true},
		{"no prefix", "Concurrency", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseChapterNumber(tt.title)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseChapterNumber(%q) = (%d, %v), want (%d, %v)", tt.title, got, ok, tt.want, tt.ok)
			}
		})
	}
}
