package host

import (
	"context"
	"runtime"
	"strings"
	"testing"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	skipWithoutShell(t)

	res, err := Exec{}.Run(context.Background(), Command{
		Path: "/bin/sh",
		Args: []string{"-c", "echo out; echo err 1>&2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Fatalf("stdout = %q, want out", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Fatalf("stderr = %q, want err", res.Stderr)
	}
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	skipWithoutShell(t)

	res, err := Exec{}.Run(context.Background(), Command{
		Path: "/bin/sh",
		Args: []string{"-c", "exit 3"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", res.ExitCode)
	}
}

func TestRunMissingProgram(t *testing.T) {
	_, err := Exec{}.Run(context.Background(), Command{Path: "definitely-not-a-real-tool"})
	if err == nil {
		t.Fatal("expected error for missing program")
	}
}

func TestRunEnvAndDir(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	res, err := Exec{}.Run(context.Background(), Command{
		Path: "/bin/sh",
		Args: []string{"-c", "echo $XCFORGE_PROBE; pwd"},
		Dir:  dir,
		Env:  []string{"XCFORGE_PROBE=present", "PATH=/usr/bin:/bin"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Stdout, "present") {
		t.Fatalf("stdout = %q, want env value present", res.Stdout)
	}
	if !strings.Contains(res.Stdout, dir) {
		t.Fatalf("stdout = %q, want working dir %q", res.Stdout, dir)
	}
}

func TestExcerptTruncatesTail(t *testing.T) {
	long := strings.Repeat("x", 1000) + "tail marker"
	got := Excerpt(long)
	if len(got) > excerptLimit+3 {
		t.Fatalf("excerpt length = %d, want <= %d", len(got), excerptLimit+3)
	}
	if !strings.HasSuffix(got, "tail marker") {
		t.Fatalf("excerpt should keep the tail, got %q", got[len(got)-20:])
	}
	if !strings.HasPrefix(got, "...") {
		t.Fatal("truncated excerpt should be marked with a leading ellipsis")
	}

	if Excerpt("short") != "short" {
		t.Fatal("short output should pass through unchanged")
	}
}
