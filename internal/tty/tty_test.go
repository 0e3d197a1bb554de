// Package tty_test tries to test ttys.
//
// The test is skipped when stdin is not a terminal (ErrNoTTY). Notably,
// this includes when run with "go test" because it redirects the test
// binary's standard streams.
package tty_test

import (
	"errors"
	"os"
	"testing"

	"rmachine/internal/tty"
)

func TestConsole(t *testing.T) {
	console, err := tty.NewConsole(os.Stdin)
	if errors.Is(err, tty.ErrNoTTY) {
		t.Skipf("error: %s", err)
	}

	if err != nil {
		t.Fatalf("NewConsole: %s", err)
	}

	defer func() {
		if err := console.Restore(); err != nil {
			t.Errorf("Restore: %s", err)
		}
	}()

	if _, err := console.Write([]byte("x")); err != nil {
		t.Errorf("Write: %s", err)
	}
}
