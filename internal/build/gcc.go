package build

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
)

// Builds and installs binutils into the shared prefix.
//
// The assembler and linker must exist before any compiler stage runs, so
// this is always the first stage of the GCC family.
func (p *Pipeline) runBinutils(ctx context.Context, env Environ) error {
	src, err := p.sources.Acquire(ctx, binutilsRequest(p.cfg))
	if err != nil {
		return err
	}

	dir, err := p.stageBuildDir("binutils")
	if err != nil {
		return err
	}

	args := []string{
		"--target=" + p.cfg.Target.Raw,
		"--prefix=" + p.cfg.Prefix,
		"--disable-nls",
		"--disable-werror",
		"--disable-multilib",
	}
	if p.cfg.Sysroot != "" {
		args = append(args, "--with-sysroot")
	}
	args = append(args,
		"--enable-gold",
		"--enable-plugins",
		"--enable-deterministic-archives",
	)
	args = append(args, p.cfg.ConfigureFlags...)

	if err := p.runCommand(ctx, dir, env, filepath.Join(src, "configure"), args...); err != nil {
		return err
	}
	if err := p.runCommand(ctx, dir, env, "make", p.jobsFlag()); err != nil {
		return err
	}
	return p.runCommand(ctx, dir, env, "make", "install")
}

// Bootstraps the compiler: a minimal first pass restricted to the compiler
// driver and libgcc.
//
// A C library cannot be built without a working compiler, and a full
// compiler cannot be built without a C library, so the compiler is built
// twice. This pass configures --without-headers when no C library is
// requested, or against the sysroot when one is. The freshly installed
// binutils are picked up by prepending the prefix's bin directory to the
// search path.
func (p *Pipeline) runGCCBootstrap(ctx context.Context, env Environ) error {
	src, err := p.sources.Acquire(ctx, gccRequest(p.cfg))
	if err != nil {
		return err
	}

	env = env.PrependPath(p.cfg.BinDir())

	// GCC's in-tree prerequisite libraries (GMP, MPFR, MPC, ISL).
	if err := p.runCommand(ctx, src, env, filepath.Join(src, "contrib", "download_prerequisites")); err != nil {
		return err
	}

	dir, err := p.stageBuildDir("gcc")
	if err != nil {
		return err
	}

	args := []string{
		"--target=" + p.cfg.Target.Raw,
		"--prefix=" + p.cfg.Prefix,
		"--enable-languages=" + strings.Join(p.cfg.Languages, ","),
		"--disable-nls",
		"--disable-multilib",
	}
	if p.cfg.CLibrary == LibcNone {
		args = append(args, "--without-headers")
	}
	if p.cfg.Sysroot != "" {
		args = append(args, "--with-sysroot="+p.cfg.Sysroot)
	}
	args = append(args,
		"--disable-libssp",
		"--disable-libstdcxx-pch",
		"--disable-libgomp",
		"--disable-libmudflap",
		"--enable-checking=release",
		"--with-gnu-as",
		"--with-gnu-ld",
	)
	args = append(args, p.cfg.ConfigureFlags...)

	if err := p.runCommand(ctx, dir, env, filepath.Join(src, "configure"), args...); err != nil {
		return err
	}
	if err := p.runCommand(ctx, dir, env, "make", p.jobsFlag(), "all-gcc", "all-target-libgcc"); err != nil {
		return err
	}
	return p.runCommand(ctx, dir, env, "make", "install-gcc", "install-target-libgcc")
}

// Builds the requested C library against the stage-1 compiler.
//
// The bootstrap compiler is selected via CC/CXX and the prefix's bin
// directory on the search path. glibc installs into the sysroot when one
// is in effect; newlib and musl install into the main prefix.
func (p *Pipeline) runLibc(ctx context.Context, env Environ) error {
	src, err := p.sources.Acquire(ctx, libcRequest(p.cfg))
	if err != nil {
		return err
	}

	env = env.PrependPath(p.cfg.BinDir()).
		Set("CC", p.cfg.Target.Prefixed("gcc")).
		Set("CXX", p.cfg.Target.Prefixed("g++"))

	dir, err := p.stageBuildDir(string(p.cfg.CLibrary))
	if err != nil {
		return err
	}

	switch p.cfg.CLibrary {
	case LibcGlibc:
		return p.buildGlibc(ctx, src, dir, env)
	case LibcNewlib:
		return p.buildNewlib(ctx, src, dir, env)
	case LibcMusl:
		return p.buildMusl(ctx, src, dir, env)
	}
	return nil
}

func (p *Pipeline) buildGlibc(ctx context.Context, src, dir string, env Environ) error {
	args := []string{
		"--host=" + p.cfg.Target.Raw,
		"--prefix=/usr",
	}
	if p.cfg.Sysroot != "" {
		args = append(args, "--with-headers="+filepath.Join(p.cfg.Sysroot, "usr", "include"))
	}
	args = append(args, "--disable-werror")
	if p.cfg.Target.IsLinux() {
		args = append(args, "--enable-obsolete-rpc")
	}
	args = append(args, p.cfg.ConfigureFlags...)

	if err := p.runCommand(ctx, dir, env, filepath.Join(src, "configure"), args...); err != nil {
		return err
	}
	if err := p.runCommand(ctx, dir, env, "make", p.jobsFlag()); err != nil {
		return err
	}
	if p.cfg.Sysroot != "" {
		return p.runCommand(ctx, dir, env, "make", "DESTDIR="+p.cfg.Sysroot, "install")
	}
	return nil
}

func (p *Pipeline) buildNewlib(ctx context.Context, src, dir string, env Environ) error {
	args := []string{
		"--target=" + p.cfg.Target.Raw,
		"--prefix=" + p.cfg.Prefix,
		"--disable-nls",
		"--disable-newlib-supplied-syscalls",
		"--enable-multilib",
	}
	args = append(args, p.cfg.ConfigureFlags...)

	if err := p.runCommand(ctx, dir, env, filepath.Join(src, "configure"), args...); err != nil {
		return err
	}
	if err := p.runCommand(ctx, dir, env, "make", p.jobsFlag()); err != nil {
		return err
	}
	return p.runCommand(ctx, dir, env, "make", "install")
}

func (p *Pipeline) buildMusl(ctx context.Context, src, dir string, env Environ) error {
	args := []string{
		"--target=" + p.cfg.Target.Raw,
		"--prefix=" + p.cfg.Prefix,
		"--disable-shared",
		"--enable-static",
	}
	args = append(args, p.cfg.ConfigureFlags...)

	if err := p.runCommand(ctx, dir, env, filepath.Join(src, "configure"), args...); err != nil {
		return err
	}
	if err := p.runCommand(ctx, dir, env, "make", p.jobsFlag()); err != nil {
		return err
	}
	return p.runCommand(ctx, dir, env, "make", "install")
}

// Completes the compiler: re-enters the bootstrap build directory for the
// full build and install, now that the C library exists.
//
// The directory is deliberately not cleaned; the second pass continues
// from the bootstrap's state.
func (p *Pipeline) runGCCFinish(ctx context.Context, env Environ) error {
	env = env.PrependPath(p.cfg.BinDir())
	dir := filepath.Join(p.cfg.BuildDir, "gcc")

	if err := p.runCommand(ctx, dir, env, "make", p.jobsFlag()); err != nil {
		return err
	}
	return p.runCommand(ctx, dir, env, "make", "install")
}

// Returns the parallelism flag passed to make and ninja.
func (p *Pipeline) jobsFlag() string {
	return "-j" + strconv.Itoa(p.cfg.Jobs)
}
