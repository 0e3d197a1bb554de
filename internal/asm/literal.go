package asm

// literal.go implements the assembler's integer literal grammar:
// 0b-prefixed binary, 0x-prefixed hex, 0-prefixed octal, optionally-signed
// decimal, and single-character literals. Anything that doesn't match is
// left for the caller to treat as a symbolic reference.

import "strconv"

// parseIntegerLiteral converts tok to an integer under the literal
// grammar. It reports false, not an error, for tokens that don't match any
// literal form — callers use that to fall back to symbolic lookup.
func parseIntegerLiteral(tok string) (int64, bool) {
	if len(tok) == 3 && tok[0] == '\'' && tok[2] == '\'' {
		return int64(tok[1]), true
	}

	switch {
	case len(tok) > 2 && tok[0] == '0' && (tok[1] == 'b' || tok[1] == 'B'):
		v, err := strconv.ParseInt(tok[2:], 2, 64)
		return v, err == nil
	case len(tok) > 2 && tok[0] == '0' && (tok[1] == 'x' || tok[1] == 'X'):
		v, err := strconv.ParseInt(tok[2:], 16, 64)
		return v, err == nil
	case len(tok) > 1 && tok[0] == '0' && isOctal(tok[1:]):
		v, err := strconv.ParseInt(tok[1:], 8, 64)
		return v, err == nil
	default:
		v, err := strconv.ParseInt(tok, 10, 64)
		return v, err == nil
	}
}

func isOctal(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '7' {
			return false
		}
	}

	return true
}
