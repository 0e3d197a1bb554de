package cmd_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rmachine/internal/cli/cmd"
	"rmachine/internal/log"
)

func TestLinker(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.img")
	b := filepath.Join(dir, "b.img")
	out := filepath.Join(dir, "out.img")

	if err := os.WriteFile(a, []byte("ROM:[1, 2]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(b, []byte("ROM:[3]\nFLASH:[9]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	linker := cmd.Linker()
	fs := linker.FlagSet()

	if err := fs.Parse([]string{"-o", out, a, b}); err != nil {
		t.Fatal(err)
	}

	if code := linker.Run(context.Background(), fs.Args(), nil, log.DefaultLogger()); code != 0 {
		t.Fatalf("link: exit code %d", code)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	want := "ROM:[1, 2, 3]\nFLASH:[9]\n"
	if string(got) != want {
		t.Errorf("linked image = %q, want %q", got, want)
	}
}
