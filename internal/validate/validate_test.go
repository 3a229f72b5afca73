package validate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgehq/xcforge/internal/build"
	"github.com/forgehq/xcforge/internal/host"
)

type fakeRunner struct {
	commands []host.Command
	exitCode int
}

func (f *fakeRunner) Run(ctx context.Context, cmd host.Command) (*host.Result, error) {
	f.commands = append(f.commands, cmd)
	return &host.Result{ExitCode: f.exitCode, Stderr: "probe failed"}, nil
}

func testConfig(t *testing.T, opts build.Options) *build.Config {
	t.Helper()

	scratch := t.TempDir()
	opts.Prefix = filepath.Join(scratch, "install")
	opts.BuildDir = filepath.Join(scratch, "build")
	opts.SourceDir = filepath.Join(scratch, "sources")
	opts.CacheDir = filepath.Join(scratch, "cache")

	cfg, err := build.Derive(opts)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	return cfg
}

func installTools(t *testing.T, cfg *build.Config, names []string) {
	t.Helper()
	if err := os.MkdirAll(cfg.BinDir(), 0755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(cfg.BinDir(), name), []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatalf("install %s: %v", name, err)
		}
	}
}

func gccToolSet(cfg *build.Config) []string {
	names := make([]string, 0, len(gccTools))
	for _, tool := range gccTools {
		names = append(names, cfg.Target.Prefixed(tool))
	}
	return names
}

func TestRunPassesWithCompleteToolchain(t *testing.T) {
	cfg := testConfig(t, build.Options{Target: "x86_64-elf"})
	installTools(t, cfg, gccToolSet(cfg))

	runner := &fakeRunner{}
	if err := Run(context.Background(), cfg, runner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(runner.commands) != 1 {
		t.Fatalf("command count = %d, want 1 compile probe", len(runner.commands))
	}
	probe := runner.commands[0]
	if filepath.Base(probe.Path) != "x86_64-elf-gcc" {
		t.Fatalf("compiler = %q, want x86_64-elf-gcc", probe.Path)
	}
	if len(probe.Args) != 3 || probe.Args[1] != "-o" {
		t.Fatalf("probe args = %v, want source -o output", probe.Args)
	}
}

func TestRunReportsMissingBinaries(t *testing.T) {
	cfg := testConfig(t, build.Options{Target: "x86_64-elf"})
	// Install everything except the linker.
	var names []string
	for _, name := range gccToolSet(cfg) {
		if !strings.HasSuffix(name, "-ld") {
			names = append(names, name)
		}
	}
	installTools(t, cfg, names)

	err := Run(context.Background(), cfg, &fakeRunner{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "x86_64-elf-ld") {
		t.Fatalf("err = %v, want the missing binary named", err)
	}
}

func TestRunLLVMToolNamesAreUnprefixed(t *testing.T) {
	cfg := testConfig(t, build.Options{Family: "llvm", Target: "riscv64-unknown-elf"})
	installTools(t, cfg, llvmTools)

	runner := &fakeRunner{}
	if err := Run(context.Background(), cfg, runner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(runner.commands[0].Path) != "clang" {
		t.Fatalf("compiler = %q, want clang", runner.commands[0].Path)
	}
}

func TestRunFailedCompileProbe(t *testing.T) {
	cfg := testConfig(t, build.Options{Target: "x86_64-elf"})
	installTools(t, cfg, gccToolSet(cfg))

	err := Run(context.Background(), cfg, &fakeRunner{exitCode: 1})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "probe failed") {
		t.Fatalf("err = %v, want compiler output excerpt", err)
	}
}

func TestRunTestSuitePlaceholderAlwaysPasses(t *testing.T) {
	cfg := testConfig(t, build.Options{Target: "x86_64-elf", RunTests: true})
	installTools(t, cfg, gccToolSet(cfg))

	if err := Run(context.Background(), cfg, &fakeRunner{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
