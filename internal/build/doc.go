// Package build orchestrates the staged construction of cross-compilation
// toolchains.
//
// A [Config] is derived once from user options and never mutated. Each
// toolchain family carries its own fixed stage chain: the GCC family runs
// binutils, a minimal compiler bootstrap, the chosen C library, and a
// second full compiler pass; the LLVM family runs a single
// configure-build-install stage. Stages execute strictly in order, each
// invoking external build tools through a [host.Runner] with a
// functionally composed environment. A non-zero exit is fatal to the stage
// and halts the pipeline with a truncated output excerpt for diagnostics.
//
// Example usage:
//
//	cfg, err := build.Derive(build.Options{
//	    Family:   "gcc",
//	    Target:   "arm-none-eabi",
//	    CLibrary: "newlib",
//	})
//	if err != nil {
//	    return err
//	}
//
//	pipe := build.NewPipeline(cfg, source.New(cfg.CacheDir, cfg.SourceDir), host.Exec{})
//	if err := pipe.Run(ctx); err != nil {
//	    return err
//	}
package build
