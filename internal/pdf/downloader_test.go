package pdf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF"

func newTestDownloader(cfg Config) *Downloader {
	cfg.AllowPrivateNetworks = true
	return NewDownloader(cfg)
}

func TestDownload(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte(samplePDF))
	}))
	defer server.Close()

	d := newTestDownloader(Config{})
	result, err := d.Download(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, []byte(samplePDF), result.Content)
	assert.Equal(t, int64(len(samplePDF)), result.SizeBytes)
	assert.Len(t, result.SHA256, 64)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "paper-ladder/1.0", gotUserAgent)
}

func TestDownloadSniffsMagicBytes(t *testing.T) {
	// Some repositories serve PDFs as octet-stream.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(samplePDF))
	}))
	defer server.Close()

	d := newTestDownloader(Config{})
	result, err := d.Download(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(len(samplePDF)), result.SizeBytes)
}

func TestDownloadNotPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>login required</body></html>"))
	}))
	defer server.Close()

	d := newTestDownloader(Config{})
	_, err := d.Download(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestDownloadTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 " + strings.Repeat("x", 2048)))
	}))
	defer server.Close()

	d := newTestDownloader(Config{MaxSize: 1024})
	_, err := d.Download(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDownloadHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	d := newTestDownloader(Config{})
	_, err := d.Download(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrDownloadFailed)
	assert.Contains(t, err.Error(), "403")
}

func TestDownloadRejectsPrivateHosts(t *testing.T) {
	d := NewDownloader(Config{})

	_, err := d.Download(context.Background(), "http://127.0.0.1:8080/paper.pdf")
	assert.ErrorIs(t, err, ErrSSRF)

	_, err = d.Download(context.Background(), "file:///etc/passwd")
	assert.ErrorIs(t, err, ErrSSRF)
}

func TestDownloadPaper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte(samplePDF))
	}))
	defer server.Close()

	dir := t.TempDir()
	d := newTestDownloader(Config{})

	paper := &domain.Paper{
		Title:  "Attention Is All You Need",
		DOI:    "10.48550/arxiv.1706.03762",
		PDFURL: server.URL + "/1706.03762.pdf",
	}

	path, err := d.DownloadPaper(context.Background(), paper, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "10-48550-arxiv-1706-03762.pdf"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte(samplePDF), content)
}

func TestDownloadPaperNoURL(t *testing.T) {
	d := newTestDownloader(Config{})
	_, err := d.DownloadPaper(context.Background(), &domain.Paper{Title: "untitled"}, t.TempDir())
	assert.ErrorIs(t, err, ErrNoPDFURL)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name  string
		paper domain.Paper
		want  string
	}{
		{
			name:  "doi preferred",
			paper: domain.Paper{DOI: "10.1234/abc.5678", Title: "Some Title"},
			want:  "10-1234-abc-5678.pdf",
		},
		{
			name:  "title fallback",
			paper: domain.Paper{Title: "Deep Learning: A Survey!"},
			want:  "Deep-Learning-A-Survey.pdf",
		},
		{
			name:  "empty record",
			paper: domain.Paper{},
			want:  "paper.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(&tt.paper))
		})
	}

	long := Filename(&domain.Paper{Title: strings.Repeat("very long title ", 20)})
	assert.LessOrEqual(t, len(long), 124)
	assert.True(t, strings.HasSuffix(long, ".pdf"))
}
