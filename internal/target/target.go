package target

import "strings"

// Default field values for under-specified triples.
const (
	defaultVendor = "unknown"
	defaultOS     = "none"
	defaultEnv    = "gnu"
)

// Describes a parsed cross-compilation target triple.
//
// A Triple is an immutable value. Raw preserves the original identifier and
// is used verbatim for tool prefixes, configure --target arguments, and
// sysroot layout.
type Triple struct {
	Raw    string // Original identifier (e.g., "x86_64-elf").
	Arch   string // Architecture (e.g., "x86_64", "riscv64").
	Vendor string // Vendor, "unknown" when omitted.
	OS     string // Operating system, "none" when omitted.
	Env    string // ABI/environment, "gnu" when omitted.
}

// Parses a target triple into its components.
//
// Parsing is total: under-specified triples are completed with defaults
// rather than rejected, since many real-world triples omit the vendor
// (e.g., "x86_64-elf", "arm-none-eabi"). A two-field triple is read as
// arch-os, following the GNU convention; three and four fields are read
// positionally as arch-vendor-os[-env].
func Parse(raw string) Triple {
	t := Triple{
		Raw:    raw,
		Vendor: defaultVendor,
		OS:     defaultOS,
		Env:    defaultEnv,
	}

	parts := strings.Split(raw, "-")
	t.Arch = parts[0]
	switch {
	case len(parts) == 2:
		t.OS = parts[1]
	case len(parts) >= 3:
		t.Vendor = parts[1]
		t.OS = parts[2]
	}
	if len(parts) > 3 {
		t.Env = parts[3]
	}

	return t
}

// Whether the target has no operating system.
//
// Bare-metal targets select headerless compiler bootstraps and default to
// embedded C libraries downstream.
func (t Triple) BareMetal() bool {
	switch t.OS {
	case "elf", "none", "eabi":
		return true
	}
	return false
}

// Whether the target runs Linux.
func (t Triple) IsLinux() bool {
	return t.OS == "linux"
}

// Whether the target runs Windows.
func (t Triple) IsWindows() bool {
	return t.OS == "mingw32" || t.Env == "mingw32"
}

// Returns the tool name prefixed with the target identifier
// (e.g., Prefixed("gcc") on "x86_64-elf" yields "x86_64-elf-gcc").
func (t Triple) Prefixed(tool string) string {
	return t.Raw + "-" + tool
}
