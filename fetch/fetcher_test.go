package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aptprep/aptprep/utils"
	"github.com/cavaliergopher/grab/v3"
)

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"http://example.com/repo/dists/bionic/?x=1#frag": "http://example.com/repo/",
		"http://example.com/repo":                        "http://example.com/repo/",
		"http://example.com/repo/":                       "http://example.com/repo/",
	}

	for in, want := range cases {
		got, err := NormalizeBaseURL(in)
		if err != nil {
			t.Fatalf("NormalizeBaseURL(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFetchRetriesOn5xxThenSucceeds(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.MaxAttempts = 3
	f := New(opts, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := f.Fetch(ctx, server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("Fetch body = %q, want %q", data, "ok")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetch4xxIsTerminal(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := New(DefaultOptions(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := f.Fetch(ctx, server.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", calls.Load())
	}
}

func TestDownloadWithChecksumAcceptsMatchingFile(t *testing.T) {
	body := []byte("artifact contents")
	sum := sha256.Sum256(body)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	f := New(DefaultOptions(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dest := filepath.Join(t.TempDir(), "artifact")
	expected := &utils.ChecksumInfo{Size: int64(len(body)), SHA256: hex.EncodeToString(sum[:])}

	if err := f.DownloadWithChecksum(ctx, server.URL, dest, expected); err != nil {
		t.Fatalf("DownloadWithChecksum: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(got) != string(body) {
		t.Errorf("downloaded content = %q, want %q", got, body)
	}
}

func TestDownloadWithChecksumMismatchDeletesFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("artifact contents"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.MaxAttempts = 1
	f := New(opts, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dest := filepath.Join(t.TempDir(), "artifact")
	wrongSum := sha256.Sum256([]byte("not the same contents"))
	expected := &utils.ChecksumInfo{Size: 17, SHA256: hex.EncodeToString(wrongSum[:])}

	err := f.DownloadWithChecksum(ctx, server.URL, dest, expected)
	if err == nil {
		t.Fatal("expected a checksum mismatch error")
	}
	if !errors.Is(err, grab.ErrBadChecksum) {
		t.Errorf("expected errors.Is(err, grab.ErrBadChecksum), got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Errorf("expected the partial file to be removed after a checksum mismatch")
	}
}
