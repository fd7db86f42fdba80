package wos

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// If s has a $ prefix then we assume
// that it is a placeholder and the actual
// value is in an env variable.
//
// if there is no $ prefix then s is returned
func Lookup(s string) (string, error) {
	if !strings.HasPrefix(s, "$") {
		return s, nil
	}
	name := strings.ToUpper(strings.TrimPrefix(s, "$"))
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("expected %s to be set", name)
	}
	return v, nil
}

// Like Lookup but the program will crash
// with an error if the env var is missing.
func Getenv(s string) string {
	v, err := Lookup(s)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
	return v
}

// A json string that may name an env var.
// The resolved value is never marshaled back out.
type EnvString string

func (es *EnvString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("EnvString: %w", err)
	}
	v, err := Lookup(s)
	if err != nil {
		return err
	}
	*es = EnvString(v)
	return nil
}

func (es EnvString) MarshalJSON() ([]byte, error) {
	if es == "" {
		return []byte(`""`), nil
	}
	return []byte(`"[redacted]"`), nil
}
