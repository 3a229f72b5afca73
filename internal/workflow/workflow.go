// Package workflow renders a GitHub Actions workflow that rebuilds a
// configured toolchain on demand.
package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forgehq/xcforge/internal/build"
	"github.com/forgehq/xcforge/internal/paths"
)

var ErrWorkflow = errors.New("workflow generation failed")

// Default location for the generated workflow, relative to the repository
// root.
const DefaultPath = ".github/workflows/build.yml"

// Packages installed on the runner before the build. GCC and LLVM builds
// share one list so a dispatched run can switch family without editing the
// workflow.
var aptPackages = []string{
	"build-essential",
	"bison",
	"flex",
	"libgmp-dev",
	"libmpfr-dev",
	"libmpc-dev",
	"texinfo",
	"libisl-dev",
	"ninja-build",
	"cmake",
	"git",
	"wget",
	"xz-utils",
}

// Field order here fixes the YAML output order.
type document struct {
	Name string         `yaml:"name"`
	On   triggers       `yaml:"on"`
	Jobs map[string]job `yaml:"jobs"`
}

type triggers struct {
	WorkflowDispatch dispatch `yaml:"workflow_dispatch"`
}

type dispatch struct {
	Inputs inputSet `yaml:"inputs"`
}

type inputSet struct {
	Toolchain   input `yaml:"toolchain"`
	Target      input `yaml:"target"`
	CLibrary    input `yaml:"c_library"`
	GCCVersion  input `yaml:"gcc_version"`
	LLVMVersion input `yaml:"llvm_version"`
}

type input struct {
	Description string   `yaml:"description"`
	Required    bool     `yaml:"required"`
	Default     string   `yaml:"default"`
	Type        string   `yaml:"type"`
	Options     []string `yaml:"options,omitempty"`
}

type job struct {
	RunsOn string `yaml:"runs-on"`
	Steps  []step `yaml:"steps"`
}

type step struct {
	Name string         `yaml:"name"`
	Uses string         `yaml:"uses,omitempty"`
	With map[string]any `yaml:"with,omitempty"`
	Run  string         `yaml:"run,omitempty"`
}

// Renders the workflow for the given configuration.
//
// The configuration seeds the dispatch-input defaults so a plain "run
// workflow" click reproduces the build it was generated from; every input
// can still be overridden at dispatch time.
func Generate(cfg *build.Config) ([]byte, error) {
	doc := document{
		Name: "Build Cross-Compiler Toolchain",
		On: triggers{WorkflowDispatch: dispatch{Inputs: inputSet{
			Toolchain: input{
				Description: "Toolchain to build",
				Required:    true,
				Default:     string(cfg.Family),
				Type:        "choice",
				Options:     []string{"gcc", "llvm"},
			},
			Target: input{
				Description: "Target triple",
				Required:    true,
				Default:     cfg.Target.Raw,
				Type:        "string",
			},
			CLibrary: input{
				Description: "C library to build",
				Default:     string(cfg.CLibrary),
				Type:        "choice",
				Options:     []string{"glibc", "newlib", "musl", "none"},
			},
			GCCVersion: input{
				Description: "GCC version (gcc family only)",
				Default:     cfg.GCCVersion,
				Type:        "string",
			},
			LLVMVersion: input{
				Description: "LLVM version (llvm family only)",
				Default:     cfg.LLVMVersion,
				Type:        "string",
			},
		}}},
		Jobs: map[string]job{"build": {
			RunsOn: "ubuntu-22.04",
			Steps: []step{
				{Name: "Checkout", Uses: "actions/checkout@v4"},
				{Name: "Set up Go", Uses: "actions/setup-go@v5", With: map[string]any{
					"go-version": "stable",
				}},
				{Name: "Install build dependencies", Run: aptInstall()},
				{Name: "Build toolchain", Run: buildInvocation(cfg)},
				{Name: "Upload artifact", Uses: "actions/upload-artifact@v4", With: map[string]any{
					"name":           "${{ github.event.inputs.toolchain }}-${{ github.event.inputs.target }}",
					"path":           cfg.BuildDir + "/*.tar.xz\n" + cfg.BuildDir + "/*.sha256",
					"retention-days": 7,
				}},
			},
		}},
	}

	body, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkflow, err)
	}
	return body, nil
}

// Writes the workflow to path, creating parent directories as needed.
func Save(cfg *build.Config, path string) error {
	if path == "" {
		path = DefaultPath
	}

	body, err := Generate(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrWorkflow, err)
	}
	if err := os.WriteFile(path, body, paths.DefaultFileMode); err != nil {
		return fmt.Errorf("%w: %w", ErrWorkflow, err)
	}

	slog.Info("workflow saved", "path", path)
	return nil
}

func aptInstall() string {
	return "sudo apt-get update\nsudo apt-get install -y " + strings.Join(aptPackages, " ") + "\n"
}

// Composes the dispatched build command. Family-independent inputs flow
// through dispatch expressions; the version flag is fixed at generation
// time because its name differs per family.
func buildInvocation(cfg *build.Config) string {
	versionFlag := "--gcc-version ${{ github.event.inputs.gcc_version }}"
	if cfg.Family == build.FamilyLLVM {
		versionFlag = "--llvm-version ${{ github.event.inputs.llvm_version }}"
	}

	lines := []string{
		"go build -o xcforge ./cmd/xcforge",
		"./xcforge build \\",
		"  --family ${{ github.event.inputs.toolchain }} \\",
		"  --target ${{ github.event.inputs.target }} \\",
		"  --c-library ${{ github.event.inputs.c_library }} \\",
		"  " + versionFlag + " \\",
		"  --prefix " + cfg.Prefix + " \\",
		"  --jobs $(nproc) \\",
		"  --clean-build \\",
		"  --run-tests \\",
		"  --github-actions \\",
		"  --upload-artifact",
	}
	return strings.Join(lines, "\n") + "\n"
}
