package install

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forgehq/xcforge/internal/build"
	"github.com/forgehq/xcforge/internal/paths"
)

var ErrInstall = errors.New("installation failed")

// Final artifact set of a completed installation. Created once, never
// mutated after write.
type Record struct {
	VersionFile string // Human-readable version metadata.
	EnvScript   string // Shell script activating the toolchain environment.
	Package     string // Distributable archive, empty unless produced.
	Checksum    string // Detached checksum file for the package.
}

// Finalizes a completed build.
//
// Writes the version metadata file and the environment-activation script
// under the prefix. A distributable package with a detached checksum is
// produced only when both the CI-integration and artifact-upload flags are
// set together.
func Run(cfg *build.Config) (*Record, error) {
	slog.Info("installing toolchain metadata", "prefix", cfg.Prefix)

	if err := os.MkdirAll(cfg.Prefix, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstall, err)
	}

	rec := &Record{}

	versionFile := filepath.Join(cfg.Prefix, "VERSION.txt")
	if err := os.WriteFile(versionFile, []byte(versionInfo(cfg)), paths.DefaultFileMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstall, err)
	}
	rec.VersionFile = versionFile

	envScript := filepath.Join(cfg.Prefix, "environment")
	if err := os.WriteFile(envScript, []byte(envScriptBody(cfg)), paths.DefaultExecMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstall, err)
	}
	rec.EnvScript = envScript

	if cfg.GithubActions && cfg.UploadArtifact {
		pkg, sum, err := Package(cfg)
		if err != nil {
			return nil, err
		}
		rec.Package = pkg
		rec.Checksum = sum
	}

	slog.Info("installation complete", "prefix", cfg.Prefix)
	return rec, nil
}

// Renders the human-readable version metadata.
func versionInfo(cfg *build.Config) string {
	binutils := cfg.BinutilsVersion
	if cfg.Family == build.FamilyLLVM {
		binutils = "N/A"
	}

	libc := string(cfg.CLibrary)
	if cfg.LibcVersion != "" {
		libc += " " + cfg.LibcVersion
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Toolchain: %s\n", strings.ToUpper(string(cfg.Family)))
	fmt.Fprintf(&b, "Target: %s\n", cfg.Target.Raw)
	fmt.Fprintf(&b, "Build date: %s\n", time.Now().Format(time.RFC1123))
	b.WriteString("\nVersions:\n")
	fmt.Fprintf(&b, "  - Toolchain: %s\n", cfg.ToolchainVersion())
	fmt.Fprintf(&b, "  - Binutils: %s\n", binutils)
	fmt.Fprintf(&b, "  - C Library: %s\n", libc)
	b.WriteString("\nConfiguration:\n")
	fmt.Fprintf(&b, "  - Prefix: %s\n", cfg.Prefix)
	fmt.Fprintf(&b, "  - Languages: %s\n", strings.Join(cfg.Languages, ", "))
	fmt.Fprintf(&b, "  - Optimization: -O%s\n", cfg.Optimize)
	fmt.Fprintf(&b, "  - LTO: %s\n", enabled(cfg.EnableLTO))
	fmt.Fprintf(&b, "  - Debug: %s\n", enabled(cfg.EnableDebug))
	if cfg.Family == build.FamilyLLVM {
		fmt.Fprintf(&b, "  - Components: %s\n", strings.Join(cfg.EnableComponents, ", "))
	}
	cc, cxx := cfg.Target.Prefixed("gcc"), cfg.Target.Prefixed("g++")
	if cfg.Family == build.FamilyLLVM {
		cc, cxx = "clang", "clang++"
	}
	b.WriteString("\nEnvironment:\n")
	fmt.Fprintf(&b, "  - PATH: %s\n", cfg.BinDir())
	fmt.Fprintf(&b, "  - CC: %s\n", cc)
	fmt.Fprintf(&b, "  - CXX: %s\n", cxx)
	fmt.Fprintf(&b, "\nUse 'source %s' to set up the environment.\n", filepath.Join(cfg.Prefix, "environment"))

	return b.String()
}

// Tool-name environment variables exported by the activation script, in
// output order.
var envTools = []struct {
	variable string
	tool     string
}{
	{"CC", "gcc"},
	{"CXX", "g++"},
	{"AR", "ar"},
	{"AS", "as"},
	{"LD", "ld"},
	{"STRIP", "strip"},
	{"OBJCOPY", "objcopy"},
	{"OBJDUMP", "objdump"},
	{"RANLIB", "ranlib"},
	{"READELF", "readelf"},
}

// Renders the environment-activation script.
func envScriptBody(cfg *build.Config) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	fmt.Fprintf(&b, "# Toolchain environment setup for %s\n\n", cfg.Target.Raw)

	fmt.Fprintf(&b, "export TOOLCHAIN_PREFIX=%q\n", cfg.Prefix)
	fmt.Fprintf(&b, "export TOOLCHAIN_TARGET=%q\n", cfg.Target.Raw)
	b.WriteString("export PATH=\"${TOOLCHAIN_PREFIX}/bin:${PATH}\"\n\n")

	for _, entry := range envTools {
		fmt.Fprintf(&b, "export %s=\"${TOOLCHAIN_TARGET}-%s\"\n", entry.variable, entry.tool)
	}

	b.WriteString(`
# For LLVM toolchains
if [ -f "${TOOLCHAIN_PREFIX}/bin/clang" ]; then
    export CLANG_CC="${TOOLCHAIN_PREFIX}/bin/clang"
    export CLANG_CXX="${TOOLCHAIN_PREFIX}/bin/clang++"
fi
`)

	if cfg.Sysroot != "" {
		b.WriteString(`
# Sysroot-aware flag augmentation
if [ -d "${TOOLCHAIN_PREFIX}/${TOOLCHAIN_TARGET}/sysroot" ]; then
    export SYSROOT="${TOOLCHAIN_PREFIX}/${TOOLCHAIN_TARGET}/sysroot"
    export CFLAGS="${CFLAGS} --sysroot=${SYSROOT}"
    export CXXFLAGS="${CXXFLAGS} --sysroot=${SYSROOT}"
    export LDFLAGS="${LDFLAGS} --sysroot=${SYSROOT}"
fi
`)
	}

	b.WriteString("\necho \"Toolchain environment set for ${TOOLCHAIN_TARGET}\"\n")
	return b.String()
}

func enabled(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
