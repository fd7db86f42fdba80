// Test helpers shared by the package tests
package tc

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kr/pretty"
)

func NoErr(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Errorf("expected no error. got: %s", err)
	}
}

// Reports an error unless errors.Is(got, want).
// Used with the isxerrors kinds.
func ErrIs(tb testing.TB, want, got error) {
	tb.Helper()
	if !errors.Is(got, want) {
		tb.Errorf("want %q error. got: %v", want, got)
	}
}

func WantGot(tb testing.TB, want, got any) {
	tb.Helper()
	if !reflect.DeepEqual(want, got) {
		tb.Error(pretty.Sprintf("want: %v got: %v", want, got))
	}
}
