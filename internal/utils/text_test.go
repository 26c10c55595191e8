package utils

import "testing"

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Hello,   how are\tyou? ", "Hello, how are you?"},
		{"", ""},
		{"\n\n", ""},
		{"one two", "one two"},
	}
	for _, c := range cases {
		if got := NormalizeText(c.in); got != c.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("héllo wörld", 5); got != "héllo…" {
		t.Fatalf("TruncateRunes = %q", got)
	}
	if got := TruncateRunes("short", 10); got != "short" {
		t.Fatalf("TruncateRunes should not touch short strings, got %q", got)
	}
	if got := TruncateRunes("anything", 0); got != "anything" {
		t.Fatalf("max<=0 disables truncation, got %q", got)
	}
}

func TestAtoiDefault(t *testing.T) {
	if got := AtoiDefault("42", 7); got != 42 {
		t.Fatalf("AtoiDefault(42) = %d", got)
	}
	if got := AtoiDefault("", 7); got != 7 {
		t.Fatalf("AtoiDefault empty = %d", got)
	}
	if got := AtoiDefault("x1", 7); got != 7 {
		t.Fatalf("AtoiDefault invalid = %d", got)
	}
}
