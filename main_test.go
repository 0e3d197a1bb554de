package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rmachine/internal/cli"
	"rmachine/internal/cli/cmd"
	"rmachine/internal/log"
)

func init() {
	log.LogLevel.Set(log.Error)
}

// TestDemo exercises the full assemble-then-run path through the demo
// command: it is the one integration test that touches every layer (asm,
// vm, cli) in a single run.
func TestDemo(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer

	result := cmd.Demo().Run(ctx, nil, &out, log.DefaultLogger())
	if result != 0 {
		t.Fatalf("demo: exit code %d, output: %s", result, out.String())
	}

	if !strings.Contains(out.String(), "r1=2") {
		t.Errorf("demo: expected r1=2 in output, got: %q", out.String())
	}
}

// TestAssembleAndExecute drives the assemble and execute commands as the
// Commander would invoke them, end to end: source file on disk, image file
// on disk, then run the image to completion.
func TestAssembleAndExecute(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.asm")
	img := filepath.Join(dir, "prog.img")

	if err := os.WriteFile(src, []byte("ldi 5 r0\nldi -3 r1\nadd r0 r1\nldi 1 ECR\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	commander := cli.New(ctx).WithLogger(os.Stderr).WithCommands([]cli.Command{cmd.Assembler(), cmd.Executor()})

	if code := commander.Execute([]string{"assemble", "-o", img, src}); code != 0 {
		t.Fatalf("assemble: exit code %d", code)
	}

	var out bytes.Buffer

	result := cmd.Executor().Run(ctx, []string{img}, &out, log.DefaultLogger())
	if result != 0 {
		t.Fatalf("execute: exit code %d", result)
	}
}
