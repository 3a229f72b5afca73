package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/forgehq/xcforge/internal/host"
	"github.com/forgehq/xcforge/internal/paths"
	"github.com/forgehq/xcforge/internal/source"
)

// Resolves component requests to local source trees.
type Acquirer interface {
	Acquire(ctx context.Context, req source.Request) (string, error)
}

// One dependency-ordered unit of the build.
//
// Stages form a fixed linear-with-branch chain per toolchain family, not a
// generic scheduler: DependsOn is verified at execution time as a guard
// against a mis-assembled chain.
type Stage struct {
	Name      string
	DependsOn []string
	run       func(p *Pipeline, ctx context.Context, env Environ) error
}

// Executes a family's stage chain against one immutable [Config].
type Pipeline struct {
	cfg     *Config
	sources Acquirer
	runner  host.Runner
}

// Creates a [Pipeline].
func NewPipeline(cfg *Config, sources Acquirer, runner host.Runner) *Pipeline {
	return &Pipeline{cfg: cfg, sources: sources, runner: runner}
}

// Returns the stage chain for the configuration's toolchain family.
//
// GCC family: binutils, then a minimal compiler bootstrap; when a C library
// is requested, the library build and the second full compiler pass follow.
// LLVM family: a single configure-build-install stage, plus a declared but
// unimplemented libc stage when a C library is requested.
func StagesFor(cfg *Config) []Stage {
	if cfg.Family == FamilyLLVM {
		return llvmStages(cfg)
	}
	return gccStages(cfg)
}

func gccStages(cfg *Config) []Stage {
	stages := []Stage{
		{Name: "binutils", run: (*Pipeline).runBinutils},
		{Name: "gcc-bootstrap", DependsOn: []string{"binutils"}, run: (*Pipeline).runGCCBootstrap},
	}
	if cfg.CLibrary != LibcNone {
		stages = append(stages,
			Stage{Name: "libc", DependsOn: []string{"gcc-bootstrap"}, run: (*Pipeline).runLibc},
			Stage{Name: "gcc-finish", DependsOn: []string{"libc"}, run: (*Pipeline).runGCCFinish},
		)
	}
	return stages
}

func llvmStages(cfg *Config) []Stage {
	stages := []Stage{
		{Name: "llvm", run: (*Pipeline).runLLVM},
	}
	if cfg.CLibrary != LibcNone {
		stages = append(stages, Stage{Name: "llvm-libc", DependsOn: []string{"llvm"}, run: (*Pipeline).runLLVMLibc})
	}
	return stages
}

// Runs every stage of the configured family in order.
//
// Execution is strictly sequential. The first failing stage halts the
// pipeline; completed stages are never rolled back.
func (p *Pipeline) Run(ctx context.Context) error {
	stages := StagesFor(p.cfg)
	env := buildEnv(p.cfg, NewEnviron(os.Environ()))

	done := make(map[string]bool, len(stages))
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrStage, err)
		}
		for _, dep := range stage.DependsOn {
			if !done[dep] {
				return fmt.Errorf("%w: stage %s depends on %s, which has not completed", ErrStage, stage.Name, dep)
			}
		}

		slog.Info("stage starting", "stage", stage.Name, "target", p.cfg.Target.Raw)
		if err := stage.run(p, ctx, env); err != nil {
			return fmt.Errorf("%w: stage %s: %w", ErrStage, stage.Name, err)
		}
		done[stage.Name] = true
		slog.Info("stage complete", "stage", stage.Name)
	}

	return nil
}

// Prepares a stage's build directory.
//
// Clean-build mode removes this stage's directory before it starts. It
// never touches another stage's directory.
func (p *Pipeline) stageBuildDir(name string) (string, error) {
	dir := filepath.Join(p.cfg.BuildDir, name)
	if p.cfg.CleanBuild {
		if err := os.RemoveAll(dir); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return "", err
	}
	return dir, nil
}

// Runs one external command, treating a non-zero exit as fatal.
//
// Invocations are atomic and never retried. The failure carries a truncated
// tail of the captured stderr for diagnostics.
func (p *Pipeline) runCommand(ctx context.Context, dir string, env Environ, path string, args ...string) error {
	res, err := p.runner.Run(ctx, host.Command{
		Path: path,
		Args: args,
		Dir:  dir,
		Env:  env.Environ(),
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		excerpt := host.Excerpt(res.Stderr)
		if excerpt == "" {
			excerpt = host.Excerpt(res.Stdout)
		}
		return fmt.Errorf("%s exited with code %d: %s", path, res.ExitCode, excerpt)
	}
	return nil
}
