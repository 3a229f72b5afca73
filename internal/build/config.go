package build

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/forgehq/xcforge/internal/paths"
	"github.com/forgehq/xcforge/internal/target"
)

// Toolchain family, selecting the stage chain and the component set.
type Family string

const (
	FamilyGCC  Family = "gcc"
	FamilyLLVM Family = "llvm"
)

// C library family. LibcNone selects a bare-metal toolchain with no libc
// build stage.
type CLibrary string

const (
	LibcGlibc  CLibrary = "glibc"
	LibcNewlib CLibrary = "newlib"
	LibcMusl   CLibrary = "musl"
	LibcNone   CLibrary = "none"
)

// Current default release versions for each component.
const (
	DefaultGCCVersion      = "13.2.0"
	DefaultBinutilsVersion = "2.42"
	DefaultLLVMVersion     = "17.0.6"
)

// Default C library versions per family.
var defaultLibcVersions = map[CLibrary]string{
	LibcGlibc:  "2.38",
	LibcNewlib: "4.3.0",
	LibcMusl:   "1.2.4",
}

// Default LLVM sub-project lists applied when the user supplies none.
var (
	defaultLLVMEnable  = []string{"clang", "lld", "compiler-rt"}
	defaultLLVMDisable = []string{"libcxx", "libcxxabi", "libunwind"}
)

// Default enabled languages for GCC builds.
var defaultLanguages = []string{"c", "c++"}

// Raw user options for one build run, as collected by the CLI.
//
// Empty fields take documented defaults during [Derive].
type Options struct {
	Family string
	Target string
	Prefix string

	GCCVersion      string
	BinutilsVersion string
	LLVMVersion     string

	CLibrary    string
	LibcVersion string
	WithSysroot bool
	Sysroot     string

	Languages         []string
	EnableComponents  []string
	DisableComponents []string

	Jobs             int
	CleanBuild       bool
	KeepBuildDir     bool
	EnableLTO        bool
	EnableDebug      bool
	EnableAssertions bool
	Optimize         string

	ConfigureFlags []string
	CMakeFlags     []string
	CFlags         []string
	CXXFlags       []string
	LDFlags        []string

	SourceDir string
	BuildDir  string
	CacheDir  string

	RunTests       bool
	GithubActions  bool
	UploadArtifact bool
}

// Fully resolved description of one build run.
//
// A Config is constructed once by [Derive] and never mutated by any stage.
type Config struct {
	Family Family
	Target target.Triple
	Prefix string

	GCCVersion      string
	BinutilsVersion string
	LLVMVersion     string

	CLibrary    CLibrary
	LibcVersion string
	Sysroot     string // Empty when no sysroot is in effect.

	Languages         []string
	EnableComponents  []string
	DisableComponents []string

	Jobs             int
	CleanBuild       bool
	KeepBuildDir     bool
	EnableLTO        bool
	EnableDebug      bool
	EnableAssertions bool
	Optimize         string

	ConfigureFlags []string
	CMakeFlags     []string
	CFlags         []string
	CXXFlags       []string
	LDFlags        []string

	SourceDir string
	BuildDir  string
	CacheDir  string

	RunTests       bool
	GithubActions  bool
	UploadArtifact bool
}

// Derives a resolved [Config] from user options.
//
// Pure function: no filesystem or network access. Defaulting rules:
// component versions fall back to the current release constants, the C
// library version falls back to its family default, LLVM builds with no
// explicit component lists receive the fixed default enable and disable
// sets, and a requested sysroot without an explicit path defaults to
// prefix/<target>/sysroot. An unknown family or C library name is the only
// fatal condition raised here.
func Derive(opts Options) (*Config, error) {
	family, err := parseFamily(opts.Family)
	if err != nil {
		return nil, err
	}
	libc, err := parseCLibrary(opts.CLibrary)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Family:   family,
		Target:   target.Parse(opts.Target),
		Prefix:   defaultString(opts.Prefix, paths.DefaultPrefix()),
		CLibrary: libc,

		GCCVersion:      defaultString(opts.GCCVersion, DefaultGCCVersion),
		BinutilsVersion: defaultString(opts.BinutilsVersion, DefaultBinutilsVersion),
		LLVMVersion:     defaultString(opts.LLVMVersion, DefaultLLVMVersion),

		Languages:         slices.Clone(opts.Languages),
		EnableComponents:  slices.Clone(opts.EnableComponents),
		DisableComponents: slices.Clone(opts.DisableComponents),

		Jobs:             opts.Jobs,
		CleanBuild:       opts.CleanBuild,
		KeepBuildDir:     opts.KeepBuildDir,
		EnableLTO:        opts.EnableLTO,
		EnableDebug:      opts.EnableDebug,
		EnableAssertions: opts.EnableAssertions,
		Optimize:         defaultString(opts.Optimize, "2"),

		ConfigureFlags: slices.Clone(opts.ConfigureFlags),
		CMakeFlags:     slices.Clone(opts.CMakeFlags),
		CFlags:         slices.Clone(opts.CFlags),
		CXXFlags:       slices.Clone(opts.CXXFlags),
		LDFlags:        slices.Clone(opts.LDFlags),

		SourceDir: defaultString(opts.SourceDir, paths.DefaultSourceDir()),
		BuildDir:  defaultString(opts.BuildDir, paths.DefaultBuildDir()),
		CacheDir:  defaultString(opts.CacheDir, paths.DownloadCache()),

		RunTests:       opts.RunTests,
		GithubActions:  opts.GithubActions,
		UploadArtifact: opts.UploadArtifact,
	}

	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.NumCPU()
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = slices.Clone(defaultLanguages)
	}

	// C library version: explicit, else the family default. None means no
	// version and no libc stage.
	cfg.LibcVersion = opts.LibcVersion
	if libc != LibcNone && cfg.LibcVersion == "" {
		v, ok := defaultLibcVersions[libc]
		if !ok {
			return nil, fmt.Errorf("%w: no version known for C library %q", ErrConfiguration, libc)
		}
		cfg.LibcVersion = v
	}

	// Sysroot: explicit path, else derived under the prefix when requested.
	switch {
	case opts.Sysroot != "":
		cfg.Sysroot = opts.Sysroot
	case opts.WithSysroot:
		cfg.Sysroot = filepath.Join(cfg.Prefix, cfg.Target.Raw, "sysroot")
	}

	// LLVM component defaults. The GCC family has no equivalent: empty
	// lists mean upstream defaults.
	if family == FamilyLLVM {
		if len(cfg.EnableComponents) == 0 {
			cfg.EnableComponents = slices.Clone(defaultLLVMEnable)
		}
		if len(cfg.DisableComponents) == 0 {
			cfg.DisableComponents = slices.Clone(defaultLLVMDisable)
		}
	}

	return cfg, nil
}

// Returns the version of the primary toolchain component for this family.
func (c *Config) ToolchainVersion() string {
	if c.Family == FamilyLLVM {
		return c.LLVMVersion
	}
	return c.GCCVersion
}

// Returns the directory holding the installed tools.
func (c *Config) BinDir() string {
	return filepath.Join(c.Prefix, "bin")
}

func parseFamily(s string) (Family, error) {
	switch Family(s) {
	case FamilyGCC, "":
		return FamilyGCC, nil
	case FamilyLLVM:
		return FamilyLLVM, nil
	}
	return "", fmt.Errorf("%w: unknown toolchain family %q", ErrConfiguration, s)
}

func parseCLibrary(s string) (CLibrary, error) {
	switch CLibrary(s) {
	case LibcNone, "":
		return LibcNone, nil
	case LibcGlibc, LibcNewlib, LibcMusl:
		return CLibrary(s), nil
	}
	return "", fmt.Errorf("%w: unknown C library %q", ErrConfiguration, s)
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
