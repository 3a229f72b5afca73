package build

import (
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Separator between entries of the executable search path.
var pathListSeparator = string(os.PathListSeparator)

// An immutable process environment: a base snapshot plus an overlay.
//
// Every modifier returns a new value; the receiver is never changed. The
// pipeline composes one Environ per external invocation instead of mutating
// a shared environment, so stages cannot observe each other's scratch
// variables.
type Environ struct {
	base    []string          // Ambient "key=value" snapshot, never modified.
	overlay map[string]string // Overrides applied on top of base.
	binDirs []string          // Directories prepended to PATH, most recent first.
}

// Creates an [Environ] over the given ambient snapshot.
func NewEnviron(base []string) Environ {
	return Environ{base: slices.Clone(base)}
}

// Returns a copy with the variable set in the overlay.
func (e Environ) Set(key, value string) Environ {
	c := e.clone()
	c.overlay[key] = value
	return c
}

// Returns a copy with the directory prepended to the search path.
//
// The most recently prepended directory wins, so later stages pick up
// freshly installed tools before anything ambient.
func (e Environ) PrependPath(dir string) Environ {
	c := e.clone()
	c.binDirs = append([]string{dir}, c.binDirs...)
	return c
}

// Returns the effective value of a variable, or "" when unset.
func (e Environ) Get(key string) string {
	if v, ok := e.overlay[key]; ok {
		return v
	}
	// Last assignment wins, matching process environment semantics.
	value := ""
	for _, entry := range e.base {
		if k, v, ok := strings.Cut(entry, "="); ok && k == key {
			value = v
		}
	}
	return value
}

// Composes the full environment as "key=value" entries, sorted by key.
func (e Environ) Environ() []string {
	merged := make(map[string]string, len(e.base)+len(e.overlay))
	for _, entry := range e.base {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}
	maps.Copy(merged, e.overlay)

	if len(e.binDirs) > 0 {
		path := strings.Join(e.binDirs, pathListSeparator)
		if existing := merged["PATH"]; existing != "" {
			path += pathListSeparator + existing
		}
		merged["PATH"] = path
	}

	keys := slices.Sorted(maps.Keys(merged))
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+merged[k])
	}
	return env
}

func (e Environ) clone() Environ {
	c := Environ{
		base:    e.base,
		overlay: make(map[string]string, len(e.overlay)+1),
		binDirs: slices.Clone(e.binDirs),
	}
	maps.Copy(c.overlay, e.overlay)
	return c
}

// Composes the base build environment for a run: user compile and link
// flags, the optimization level folded into CFLAGS/CXXFLAGS, and the
// parallelism directive for make.
func buildEnv(cfg *Config, base Environ) Environ {
	e := base

	if len(cfg.CFlags) > 0 {
		e = e.Set("CFLAGS", strings.Join(cfg.CFlags, " "))
	}
	if len(cfg.CXXFlags) > 0 {
		e = e.Set("CXXFLAGS", strings.Join(cfg.CXXFlags, " "))
	}
	if len(cfg.LDFlags) > 0 {
		e = e.Set("LDFLAGS", strings.Join(cfg.LDFlags, " "))
	}

	opt := "-O" + cfg.Optimize
	e = e.Set("CFLAGS", strings.TrimSpace(opt+" "+e.Get("CFLAGS")))
	e = e.Set("CXXFLAGS", strings.TrimSpace(opt+" "+e.Get("CXXFLAGS")))
	e = e.Set("MAKEFLAGS", "-j"+strconv.Itoa(cfg.Jobs))

	return e
}
