package asm

import "testing"

func TestParseIntegerLiteral(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tok  string
		want int64
		ok   bool
	}{
		{"0b101", 5, true},
		{"0x2a", 42, true},
		{"0x2A", 42, true},
		{"017", 15, true},
		{"0", 0, true},
		{"-3", -3, true},
		{"42", 42, true},
		{"'A'", 65, true},
		{"label", 0, false},
		{"0b2", 0, false},
	}

	for _, c := range cases {
		got, ok := parseIntegerLiteral(c.tok)
		if ok != c.ok {
			t.Errorf("parseIntegerLiteral(%q) ok = %v, want %v", c.tok, ok, c.ok)
			continue
		}

		if ok && got != c.want {
			t.Errorf("parseIntegerLiteral(%q) = %d, want %d", c.tok, got, c.want)
		}
	}
}
