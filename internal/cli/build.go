package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/forgehq/xcforge/internal/build"
	"github.com/forgehq/xcforge/internal/host"
	"github.com/forgehq/xcforge/internal/install"
	"github.com/forgehq/xcforge/internal/source"
	"github.com/forgehq/xcforge/internal/validate"
)

// Flags shared by every subcommand that needs a resolved build
// configuration. Field names map one-to-one onto [build.Options].
type ConfigFlags struct {
	Family   string `help:"Toolchain family." enum:"gcc,llvm" default:"gcc"`
	Target   string `required:"" help:"Target triple, e.g. arm-none-eabi." placeholder:"TRIPLE"`
	Prefix   string `help:"Installation prefix." placeholder:"DIR"`
	CLibrary string `name:"c-library" help:"C library to build." enum:"glibc,newlib,musl,none" default:"none"`

	GCCVersion      string `name:"gcc-version" help:"GCC release to build." placeholder:"VERSION"`
	BinutilsVersion string `name:"binutils-version" help:"Binutils release to build." placeholder:"VERSION"`
	LLVMVersion     string `name:"llvm-version" help:"LLVM release to build." placeholder:"VERSION"`
	LibcVersion     string `name:"libc-version" help:"C library release to build." placeholder:"VERSION"`

	WithSysroot bool   `help:"Build with a sysroot under the prefix."`
	Sysroot     string `help:"Explicit sysroot path (implies --with-sysroot)." placeholder:"DIR"`

	Languages         []string `help:"Languages to enable (gcc family)." placeholder:"LANG"`
	EnableComponents  []string `name:"enable-component" help:"LLVM sub-projects to enable." placeholder:"NAME"`
	DisableComponents []string `name:"disable-component" help:"LLVM sub-projects to disable." placeholder:"NAME"`

	Jobs             int    `short:"j" help:"Parallel build jobs (default: all CPUs)."`
	CleanBuild       bool   `help:"Remove each stage's build directory before building it."`
	KeepBuildDir     bool   `help:"Keep the build directory after a successful build."`
	EnableLTO        bool   `name:"enable-lto" help:"Enable link-time optimization."`
	EnableDebug      bool   `help:"Build with debug info."`
	EnableAssertions bool   `help:"Enable assertions (llvm family)."`
	Optimize         string `help:"Optimization level suffix, e.g. 2 for -O2." placeholder:"LEVEL"`

	ConfigureFlags []string `name:"configure-flag" help:"Extra configure arguments." placeholder:"FLAG"`
	CMakeFlags     []string `name:"cmake-flag" help:"Extra cmake arguments." placeholder:"FLAG"`
	CFlags         []string `name:"cflag" help:"Extra C compiler flags." placeholder:"FLAG"`
	CXXFlags       []string `name:"cxxflag" help:"Extra C++ compiler flags." placeholder:"FLAG"`
	LDFlags        []string `name:"ldflag" help:"Extra linker flags." placeholder:"FLAG"`

	SourceDir string `help:"Directory for extracted sources." placeholder:"DIR"`
	BuildDir  string `help:"Directory for build trees." placeholder:"DIR"`
	CacheDir  string `help:"Directory for downloaded archives." placeholder:"DIR"`

	RunTests       bool `help:"Run the toolchain test suite after validation."`
	GithubActions  bool `help:"Enable CI integration behavior."`
	UploadArtifact bool `help:"Package the toolchain for artifact upload (CI only)."`
}

// Converts the parsed flags into build options.
func (f *ConfigFlags) Options() build.Options {
	return build.Options{
		Family:   f.Family,
		Target:   f.Target,
		Prefix:   f.Prefix,
		CLibrary: f.CLibrary,

		GCCVersion:      f.GCCVersion,
		BinutilsVersion: f.BinutilsVersion,
		LLVMVersion:     f.LLVMVersion,
		LibcVersion:     f.LibcVersion,

		WithSysroot: f.WithSysroot,
		Sysroot:     f.Sysroot,

		Languages:         f.Languages,
		EnableComponents:  f.EnableComponents,
		DisableComponents: f.DisableComponents,

		Jobs:             f.Jobs,
		CleanBuild:       f.CleanBuild,
		KeepBuildDir:     f.KeepBuildDir,
		EnableLTO:        f.EnableLTO,
		EnableDebug:      f.EnableDebug,
		EnableAssertions: f.EnableAssertions,
		Optimize:         f.Optimize,

		ConfigureFlags: f.ConfigureFlags,
		CMakeFlags:     f.CMakeFlags,
		CFlags:         f.CFlags,
		CXXFlags:       f.CXXFlags,
		LDFlags:        f.LDFlags,

		SourceDir: f.SourceDir,
		BuildDir:  f.BuildDir,
		CacheDir:  f.CacheDir,

		RunTests:       f.RunTests,
		GithubActions:  f.GithubActions,
		UploadArtifact: f.UploadArtifact,
	}
}

// Represents the 'xcforge build' command.
type BuildCmd struct {
	ConfigFlags `embed:""`
}

// Executes the build command.
//
// Derives the configuration, runs the staged pipeline, validates the
// result, and finalizes the installation. The build directory is removed
// after success unless kept explicitly or holding a packaged artifact.
func (c *BuildCmd) Run(ctx context.Context) error {
	cfg, err := build.Derive(c.Options())
	if err != nil {
		return err
	}

	slog.Info("starting toolchain build",
		"family", cfg.Family,
		"target", cfg.Target.Raw,
		"version", cfg.ToolchainVersion(),
		"c_library", cfg.CLibrary,
		"prefix", cfg.Prefix,
		"jobs", cfg.Jobs,
	)

	pipeline := build.NewPipeline(cfg, source.New(cfg.CacheDir, cfg.SourceDir), host.Exec{})
	if err := pipeline.Run(ctx); err != nil {
		return err
	}

	if err := validate.Run(ctx, cfg, host.Exec{}); err != nil {
		return err
	}

	rec, err := install.Run(cfg)
	if err != nil {
		return err
	}

	if !cfg.KeepBuildDir && rec.Package == "" {
		if err := os.RemoveAll(cfg.BuildDir); err != nil {
			slog.Warn("could not remove build directory", "dir", cfg.BuildDir, "error", err)
		}
	}

	slog.Info("toolchain ready",
		"prefix", cfg.Prefix,
		"activate", rec.EnvScript,
	)
	return nil
}
