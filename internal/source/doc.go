// Resolves upstream release archives to verified local source trees.
//
// An [Acquirer] downloads a component's archive into a persistent cache,
// trying each mirror candidate in order, then extracts it under the source
// directory. Cached archives are reused across runs; when an expected
// digest is known, a cached file is reused only if it still matches, and a
// mismatch forces deletion and a fresh download. Extraction supports
// tar.gz, tar.bz2, tar.xz, tar.zst, and zip containers.
//
// Example usage:
//
//	acq := source.New(cacheDir, sourceDir)
//	dir, err := acq.Acquire(ctx, source.Request{
//	    Name:    "binutils",
//	    Version: "2.42",
//	    Mirrors: []source.Remote{
//	        {URL: "https://ftp.gnu.org/gnu/binutils/binutils-2.42.tar.xz", Filename: "binutils-2.42.tar.xz"},
//	    },
//	})
package source
