package wstrings

import (
	"errors"
	"unicode"
)

func Safe(s string) error {
	for _, r := range s {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-') {
			return errors.New("must be 'a-z', 'A-Z', '0-9', '_', or '-'")
		}
	}
	return nil
}

// Solidity identifier: [a-zA-Z$_][a-zA-Z0-9$_]*
func Ident(s string) error {
	if s == "" {
		return errors.New("identifier is empty")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '$':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return errors.New("must start with 'a-z', 'A-Z', '_' or '$' followed by those or '0-9'")
		}
	}
	return nil
}
