package source

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/opencontainers/go-digest"
)

// Builds a gzipped tarball with the given files, keyed by path.
func makeTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)

	for name, content := range files {
		hdr := &tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("write body: %v", err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

// Serves fixed responses and records the request order.
type mirrorServer struct {
	mu       sync.Mutex
	requests []string
	payloads map[string][]byte // Path to body; missing paths return 404.
	*httptest.Server
}

func newMirrorServer(payloads map[string][]byte) *mirrorServer {
	ms := &mirrorServer{payloads: payloads}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms.mu.Lock()
		ms.requests = append(ms.requests, r.URL.Path)
		ms.mu.Unlock()

		body, ok := ms.payloads[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	return ms
}

func (ms *mirrorServer) requestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.requests)
}

func newTestAcquirer(t *testing.T) *Acquirer {
	t.Helper()
	return New(t.TempDir(), t.TempDir())
}

func TestAcquireMirrorFallbackAndCacheHit(t *testing.T) {
	archive := makeTarGz(t, map[string]string{"comp-1.0/file.txt": "hello"})
	ms := newMirrorServer(map[string][]byte{"/good/comp-1.0.tar.gz": archive})
	defer ms.Close()

	acq := newTestAcquirer(t)
	req := Request{
		Name:    "comp",
		Version: "1.0",
		Mirrors: []Remote{
			{URL: ms.URL + "/missing/comp-1.0.tar.gz", Filename: "comp-1.0.tar.gz"},
			{URL: ms.URL + "/good/comp-1.0.tar.gz", Filename: "comp-1.0.tar.gz"},
		},
	}

	dir, err := acq.Acquire(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != filepath.Join(acq.SourceDir, "comp-1.0") {
		t.Fatalf("dir = %q, want extraction under source dir", dir)
	}

	body, err := os.ReadFile(filepath.Join(dir, "file.txt"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(body) != "hello" {
		t.Fatalf("extracted content = %q, want hello", body)
	}

	if n := ms.requestCount(); n != 2 {
		t.Fatalf("request count = %d, want 2 (one failed, one succeeded)", n)
	}

	// Second acquisition must be served entirely from the cache.
	if _, err := acq.Acquire(context.Background(), req); err != nil {
		t.Fatalf("unexpected error on cached acquire: %v", err)
	}
	if n := ms.requestCount(); n != 2 {
		t.Fatalf("request count = %d after cached acquire, want 2 (no network I/O)", n)
	}
}

func TestAcquireNamingVariantTriedBeforeNextMirror(t *testing.T) {
	archive := makeTarGz(t, map[string]string{"comp-1.0/f": "x"})
	// Primary naming 404s on m1, the variant succeeds on m1, m2 must never
	// be contacted.
	ms := newMirrorServer(map[string][]byte{"/m1/comp-1.0.tar.gz": archive})
	defer ms.Close()

	acq := newTestAcquirer(t)
	req := Request{
		Name:    "comp",
		Version: "1.0",
		Mirrors: []Remote{
			{URL: ms.URL + "/m1/comp-1.0.src.tar.gz", Filename: "comp-1.0.src.tar.gz"},
			{URL: ms.URL + "/m1/comp-1.0.tar.gz", Filename: "comp-1.0.tar.gz"},
			{URL: ms.URL + "/m2/comp-1.0.src.tar.gz", Filename: "comp-1.0.src.tar.gz"},
		},
	}

	if _, err := acq.Acquire(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	want := []string{"/m1/comp-1.0.src.tar.gz", "/m1/comp-1.0.tar.gz"}
	if len(ms.requests) != len(want) {
		t.Fatalf("requests = %v, want %v", ms.requests, want)
	}
	for i := range want {
		if ms.requests[i] != want[i] {
			t.Fatalf("request %d = %q, want %q", i, ms.requests[i], want[i])
		}
	}
}

func TestAcquireChecksumMismatchRedownloadsOnce(t *testing.T) {
	archive := makeTarGz(t, map[string]string{"comp-1.0/f": "x"})
	ms := newMirrorServer(map[string][]byte{"/comp-1.0.tar.gz": archive})
	defer ms.Close()

	acq := newTestAcquirer(t)

	// Seed the cache with a stale file under the same name.
	stale := filepath.Join(acq.CacheDir, "comp-1.0.tar.gz")
	if err := os.WriteFile(stale, []byte("stale"), 0644); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	req := Request{
		Name:    "comp",
		Version: "1.0",
		Mirrors: []Remote{{URL: ms.URL + "/comp-1.0.tar.gz", Filename: "comp-1.0.tar.gz"}},
		Digest:  digest.FromBytes(archive),
	}

	if _, err := acq.Acquire(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := ms.requestCount(); n != 1 {
		t.Fatalf("request count = %d, want exactly 1 re-download", n)
	}

	cached, err := os.ReadFile(stale)
	if err != nil {
		t.Fatalf("cache file missing: %v", err)
	}
	if !bytes.Equal(cached, archive) {
		t.Fatal("cache still holds the stale file")
	}
}

func TestAcquireAllMirrorsExhausted(t *testing.T) {
	ms := newMirrorServer(nil)
	defer ms.Close()

	acq := newTestAcquirer(t)
	_, err := acq.Acquire(context.Background(), Request{
		Name:    "comp",
		Version: "1.0",
		Mirrors: []Remote{
			{URL: ms.URL + "/a.tar.gz", Filename: "a.tar.gz"},
			{URL: ms.URL + "/b.tar.gz", Filename: "b.tar.gz"},
		},
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
}

func TestAcquireUnsupportedArchiveFormat(t *testing.T) {
	ms := newMirrorServer(map[string][]byte{"/comp-1.0.rar": []byte("junk")})
	defer ms.Close()

	acq := newTestAcquirer(t)
	_, err := acq.Acquire(context.Background(), Request{
		Name:    "comp",
		Version: "1.0",
		Mirrors: []Remote{{URL: ms.URL + "/comp-1.0.rar", Filename: "comp-1.0.rar"}},
	})
	if !errors.Is(err, ErrUnsupportedArchive) {
		t.Fatalf("err = %v, want ErrUnsupportedArchive", err)
	}
}

func TestAcquireSkipsExtractionWhenDirExists(t *testing.T) {
	acq := newTestAcquirer(t)

	// Cached archive and an existing extraction directory: no network, no
	// re-extraction.
	if err := os.WriteFile(filepath.Join(acq.CacheDir, "comp-1.0.tar.gz"), []byte("unused"), 0644); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	marker := filepath.Join(acq.SourceDir, "comp-1.0", "marker")
	if err := os.MkdirAll(filepath.Dir(marker), 0755); err != nil {
		t.Fatalf("seed source dir: %v", err)
	}
	if err := os.WriteFile(marker, nil, 0644); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	dir, err := acq.Acquire(context.Background(), Request{
		Name:    "comp",
		Version: "1.0",
		Mirrors: []Remote{{URL: "http://127.0.0.1:0/unreachable.tar.gz", Filename: "comp-1.0.tar.gz"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker")); err != nil {
		t.Fatal("existing extraction directory was disturbed")
	}
}

func TestAcquireFreshDownloadChecksumMismatchNeverFallsBack(t *testing.T) {
	ms := newMirrorServer(map[string][]byte{"/comp-1.0.tar.gz": []byte("wrong content")})
	defer ms.Close()

	acq := newTestAcquirer(t)
	_, err := acq.Acquire(context.Background(), Request{
		Name:    "comp",
		Version: "1.0",
		Mirrors: []Remote{{URL: ms.URL + "/comp-1.0.tar.gz", Filename: "comp-1.0.tar.gz"}},
		Digest:  digest.FromString("expected content"),
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted after checksum rejection", err)
	}
	if _, err := os.Stat(filepath.Join(acq.CacheDir, "comp-1.0.tar.gz")); !os.IsNotExist(err) {
		t.Fatal("rejected download left behind in cache")
	}
}
