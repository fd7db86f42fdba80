// EIP-712 typed structured data hashing.
//
// A Types schema maps struct names to ordered fields.
// Hashing is a pure function of the schema, the domain
// and the message. Nothing is cached between calls.
package eip712

import (
	"sort"
	"strings"

	"github.com/indexsupply/ethsig/abi"
	"github.com/indexsupply/ethsig/isxerrors"
	"github.com/indexsupply/ethsig/isxhash"
	"github.com/indexsupply/ethsig/wstrings"
)

type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Types map[string][]Field

func (t Types) names() []string {
	var names []string
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Checks that every struct name is an identifier,
// field names are unique, field types parse,
// referenced structs exist and that there are no
// cycles in the type graph.
func (t Types) Validate() error {
	for _, name := range t.names() {
		if err := wstrings.Ident(name); err != nil {
			return isxerrors.Schema("type name %q: %w", name, err)
		}
		seen := map[string]bool{}
		for _, f := range t[name] {
			if f.Name == "" {
				return isxerrors.Schema("%s has a field without a name", name)
			}
			if seen[f.Name] {
				return isxerrors.Schema("%s has duplicate field %q", name, f.Name)
			}
			seen[f.Name] = true
			typ, err := abi.Parse(f.Type)
			if err != nil {
				return isxerrors.Errorf("%s.%s: %w", name, f.Name, err)
			}
			if b := typ.Base(); b != "" {
				if _, ok := t[b]; !ok {
					return isxerrors.Schema("%s.%s references undefined type %q", name, f.Name, b)
				}
			}
		}
	}
	for _, name := range t.names() {
		if _, err := t.Dependencies(name); err != nil {
			return err
		}
	}
	return nil
}

// Returns the struct types reachable from primary,
// excluding primary, sorted by name.
func (t Types) Dependencies(primary string) ([]string, error) {
	var (
		deps    []string
		visited = map[string]bool{}
		inPath  = map[string]bool{}
		visit   func(string) error
	)
	visit = func(name string) error {
		fields, ok := t[name]
		if !ok {
			return isxerrors.Schema("undefined type %q", name)
		}
		if inPath[name] {
			return isxerrors.Schema("cyclic reference to type %q", name)
		}
		if visited[name] {
			return nil
		}
		visited[name], inPath[name] = true, true
		for _, f := range fields {
			typ, err := abi.Parse(f.Type)
			if err != nil {
				return err
			}
			if b := typ.Base(); b != "" {
				if err := visit(b); err != nil {
					return err
				}
			}
		}
		inPath[name] = false
		if name != primary {
			deps = append(deps, name)
		}
		return nil
	}
	if err := visit(primary); err != nil {
		return nil, err
	}
	sort.Strings(deps)
	return deps, nil
}

// Mail(Person from,Person to,string contents)Person(string name,address wallet)
func (t Types) EncodeType(primary string) (string, error) {
	deps, err := t.Dependencies(primary)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, name := range append([]string{primary}, deps...) {
		sb.WriteString(name)
		sb.WriteByte('(')
		for i, f := range t[name] {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(f.Type)
			sb.WriteByte(' ')
			sb.WriteString(f.Name)
		}
		sb.WriteByte(')')
	}
	return sb.String(), nil
}

func (t Types) TypeHash(name string) ([32]byte, error) {
	s, err := t.EncodeType(name)
	if err != nil {
		return [32]byte{}, err
	}
	return isxhash.Keccak32([]byte(s)), nil
}
