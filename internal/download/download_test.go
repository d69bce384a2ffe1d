package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ashgrove-labs/terrarium/internal/errs"
	"github.com/ashgrove-labs/terrarium/internal/signature"
)

func TestDownloadSuccess(t *testing.T) {
	const body = "fake-tiff-bytes"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	d := New(srv.URL, "tif")
	dir := t.TempDir()
	localPath := filepath.Join(dir, "0", "1", "2.tif")

	sig := signature.Signature{Lat: 1, Lon: 2}
	if err := d.Download(context.Background(), sig, localPath); err != nil {
		t.Fatalf("Download error: %v", err)
	}

	got, err := os.ReadFile(localPath)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(got) != body {
		t.Errorf("downloaded content = %q, want %q", got, body)
	}
	if _, err := os.Stat(localPath + ".part"); !os.IsNotExist(err) {
		t.Errorf("expected .part file to be gone after rename")
	}
}

func TestDownloadAbsentUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := New(srv.URL, "tif")
	dir := t.TempDir()
	localPath := filepath.Join(dir, "tile.tif")

	err := d.Download(context.Background(), signature.Signature{}, localPath)
	if !errs.Is(err, errs.KindTileAbsentUpstream) {
		t.Errorf("expected KindTileAbsentUpstream, got %v", err)
	}
}

func TestDownloadHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := New(srv.URL, "tif")
	dir := t.TempDir()
	localPath := filepath.Join(dir, "tile.tif")

	err := d.Download(context.Background(), signature.Signature{}, localPath)
	if !errs.Is(err, errs.KindNetworkError) {
		t.Errorf("expected KindNetworkError, got %v", err)
	}
}

func TestURLForUsesCanonicalPath(t *testing.T) {
	d := New("https://example.com/elevations", "tif")
	sig := signature.Signature{Lat: 41, Lon: -88}
	got := d.URLFor(sig)
	want := "https://example.com/elevations/0/41/88.tif"
	if got != want {
		t.Errorf("URLFor() = %q, want %q", got, want)
	}
}
