package parser

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"vanilla", "vanilla"},
		{"  Icyco\toffers \n\n vanilla  ", "Icyco offers vanilla"},
		{"a\r\nb c", "a b c"},
	}
	for _, tt := range tests {
		got := CleanText(tt.in)
		if got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := CleanText(got); again != got {
			t.Errorf("CleanText not idempotent for %q: %q then %q", tt.in, got, again)
		}
	}
}
