// Provides platform-appropriate default paths for the builder.
//
// The download cache follows XDG conventions on Linux and platform-native
// conventions on macOS and Windows, so archives survive across working
// directories. Source, build, and install directories default to the
// working directory because they are per-project state.
package paths
