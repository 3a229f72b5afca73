// Runs external build tools as blocking host processes.
//
// The pipeline treats every invocation as atomic: the process inherits a
// fully composed environment, runs to completion in its working directory,
// and reports its exit code through a [Result]. No retries, no timeouts
// beyond the caller's context, and no partial output streaming.
package host
