package build

import (
	"fmt"

	"github.com/forgehq/xcforge/internal/source"
)

// Upstream mirror prefixes per component, in fallback priority order.
var (
	gccMirrors = []string{
		"https://ftp.gnu.org/gnu/gcc/",
		"https://mirrors.kernel.org/gnu/gcc/",
		"https://ftpmirror.gnu.org/gcc/",
	}
	binutilsMirrors = []string{
		"https://ftp.gnu.org/gnu/binutils/",
		"https://mirrors.kernel.org/gnu/binutils/",
	}
	llvmMirrors = []string{
		"https://github.com/llvm/llvm-project/releases/download/llvmorg-",
		"https://mirrors.edge.kernel.org/pub/llvm/",
	}
	glibcMirrors = []string{
		"https://ftp.gnu.org/gnu/glibc/",
		"https://mirrors.kernel.org/gnu/glibc/",
	}
	newlibMirrors = []string{
		"https://sourceware.org/pub/newlib/",
		"https://mirrors.kernel.org/sourceware/newlib/",
	}
	muslMirrors = []string{
		"https://musl.libc.org/releases/",
	}
)

// Builds the source request for the GCC release. GNU mirrors nest the
// archive under a per-release directory.
func gccRequest(cfg *Config) source.Request {
	archive := fmt.Sprintf("gcc-%s.tar.xz", cfg.GCCVersion)
	req := source.Request{Name: "gcc", Version: cfg.GCCVersion}
	for _, mirror := range gccMirrors {
		req.Mirrors = append(req.Mirrors, source.Remote{
			URL:      fmt.Sprintf("%sgcc-%s/%s", mirror, cfg.GCCVersion, archive),
			Filename: archive,
		})
	}
	return req
}

// Builds the source request for the binutils release.
func binutilsRequest(cfg *Config) source.Request {
	archive := fmt.Sprintf("binutils-%s.tar.xz", cfg.BinutilsVersion)
	req := source.Request{Name: "binutils", Version: cfg.BinutilsVersion}
	for _, mirror := range binutilsMirrors {
		req.Mirrors = append(req.Mirrors, source.Remote{
			URL:      mirror + archive,
			Filename: archive,
		})
	}
	return req
}

// Builds the source request for the LLVM release.
//
// LLVM publishes releases under two archive names depending on the release
// line, so each mirror carries both candidates: the ".src" naming first,
// then the plain naming, before moving to the next mirror.
func llvmRequest(cfg *Config) source.Request {
	primary := fmt.Sprintf("llvm-project-%s.src.tar.xz", cfg.LLVMVersion)
	alternate := fmt.Sprintf("llvm-project-%s.tar.xz", cfg.LLVMVersion)

	req := source.Request{Name: "llvm-project", Version: cfg.LLVMVersion}
	for _, mirror := range llvmMirrors {
		base := fmt.Sprintf("%s%s/", mirror, cfg.LLVMVersion)
		req.Mirrors = append(req.Mirrors,
			source.Remote{URL: base + primary, Filename: primary},
			source.Remote{URL: base + alternate, Filename: alternate},
		)
	}
	return req
}

// Builds the source request for the configured C library.
//
// Must not be called when the C library is none.
func libcRequest(cfg *Config) source.Request {
	var mirrors []string
	var archive string

	switch cfg.CLibrary {
	case LibcGlibc:
		mirrors = glibcMirrors
		archive = fmt.Sprintf("glibc-%s.tar.xz", cfg.LibcVersion)
	case LibcNewlib:
		mirrors = newlibMirrors
		archive = fmt.Sprintf("newlib-%s.tar.gz", cfg.LibcVersion)
	case LibcMusl:
		mirrors = muslMirrors
		archive = fmt.Sprintf("musl-%s.tar.gz", cfg.LibcVersion)
	}

	req := source.Request{Name: string(cfg.CLibrary), Version: cfg.LibcVersion}
	for _, mirror := range mirrors {
		req.Mirrors = append(req.Mirrors, source.Remote{
			URL:      mirror + archive,
			Filename: archive,
		})
	}
	return req
}
