package build

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Fixed mapping from architecture names to LLVM backend identifiers.
var llvmBackends = map[string]string{
	"x86_64":  "X86",
	"i386":    "X86",
	"i686":    "X86",
	"aarch64": "AArch64",
	"arm":     "ARM",
	"riscv32": "RISCV",
	"riscv64": "RISCV",
	"mips":    "Mips",
	"powerpc": "PowerPC",
}

// Broad backend set built when the architecture is not in the table.
// Under-listing backends produces a toolchain that cannot target its own
// triple, so unknown architectures over-build rather than fail.
const llvmBackendFallback = "X86;AArch64;ARM;RISCV"

// Returns the LLVM backend identifier for an architecture name, or the
// broad fallback set when the architecture is unknown.
func BackendFor(arch string) string {
	if backend, ok := llvmBackends[strings.ToLower(arch)]; ok {
		return backend
	}
	return llvmBackendFallback
}

// Builds and installs the LLVM toolchain in a single
// configure-build-install stage driven by CMake and Ninja.
func (p *Pipeline) runLLVM(ctx context.Context, env Environ) error {
	src, err := p.sources.Acquire(ctx, llvmRequest(p.cfg))
	if err != nil {
		return err
	}

	dir, err := p.stageBuildDir("llvm")
	if err != nil {
		return err
	}

	buildType := "Release"
	if p.cfg.EnableDebug {
		buildType = "Debug"
	}

	args := []string{
		filepath.Join(src, "llvm"),
		"-DCMAKE_INSTALL_PREFIX=" + p.cfg.Prefix,
		"-DCMAKE_BUILD_TYPE=" + buildType,
		"-DLLVM_ENABLE_PROJECTS=" + strings.Join(p.cfg.EnableComponents, ","),
		"-DLLVM_TARGETS_TO_BUILD=" + BackendFor(p.cfg.Target.Arch),
		"-DLLVM_DEFAULT_TARGET_TRIPLE=" + p.cfg.Target.Raw,
		"-DLLVM_ENABLE_ASSERTIONS=" + onOff(p.cfg.EnableAssertions),
		"-DLLVM_ENABLE_LTO=" + onOff(p.cfg.EnableLTO),
		"-DLLVM_INCLUDE_TESTS=OFF",
		"-DLLVM_INCLUDE_EXAMPLES=OFF",
		"-DLLVM_INCLUDE_BENCHMARKS=OFF",
		"-DLLVM_ENABLE_TERMINFO=OFF",
		"-DLLVM_ENABLE_ZLIB=OFF",
		"-DLLVM_ENABLE_ZSTD=OFF",
		"-G", "Ninja",
	}
	args = append(args, p.cfg.CMakeFlags...)

	if err := p.runCommand(ctx, dir, env, "cmake", args...); err != nil {
		return err
	}
	if err := p.runCommand(ctx, dir, env, "ninja", p.jobsFlag()); err != nil {
		return err
	}
	return p.runCommand(ctx, dir, env, "ninja", "install")
}

// Declared libc stage for the LLVM family.
//
// The stage exists in the family's chain but has no implementation yet. It
// surfaces an explicit failure so a run requesting it can never report
// false success.
func (p *Pipeline) runLLVMLibc(ctx context.Context, env Environ) error {
	return fmt.Errorf("%w: C library builds for the llvm family", ErrNotImplemented)
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
