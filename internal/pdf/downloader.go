// Package pdf downloads open-access PDFs referenced by paper records.
package pdf

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

var (
	// ErrNotPDF is returned when the response is not a PDF.
	ErrNotPDF = errors.New("pdf: response is not a PDF")
	// ErrTooLarge is returned when the file exceeds the maximum allowed size.
	ErrTooLarge = errors.New("pdf: file exceeds maximum size")
	// ErrDownloadFailed is returned on network or HTTP failures.
	ErrDownloadFailed = errors.New("pdf: download failed")
	// ErrNoPDFURL is returned when a paper record carries no PDF link.
	ErrNoPDFURL = errors.New("pdf: paper has no PDF URL")
	// ErrSSRF is returned when the URL resolves to a private network address.
	ErrSSRF = errors.New("pdf: request to private network denied")
)

// pdfMagic is the file signature every PDF starts with.
var pdfMagic = []byte("%PDF")

// Result holds a downloaded PDF.
type Result struct {
	// Content is the PDF bytes.
	Content []byte
	// SHA256 is the hex digest of the content.
	SHA256 string
	// SizeBytes is the content length.
	SizeBytes int64
	// ContentType is the Content-Type header from the response.
	ContentType string
}

// Config holds downloader configuration.
type Config struct {
	// Timeout is the HTTP request timeout. Default: 120 seconds.
	Timeout time.Duration
	// MaxSize is the maximum file size in bytes. Default: 100MB.
	MaxSize int64
	// UserAgent is the User-Agent header.
	UserAgent string
	// AllowPrivateNetworks disables the private-IP checks, for tests
	// against local servers only.
	AllowPrivateNetworks bool
}

// Downloader fetches PDFs with size and destination checks.
type Downloader struct {
	client               *http.Client
	maxSize              int64
	userAgent            string
	allowPrivateNetworks bool
}

// NewDownloader creates a Downloader.
func NewDownloader(cfg Config) *Downloader {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "paper-ladder/1.0"
	}

	d := &Downloader{
		maxSize:              cfg.MaxSize,
		userAgent:            cfg.UserAgent,
		allowPrivateNetworks: cfg.AllowPrivateNetworks,
	}

	d.client = &http.Client{
		Timeout: cfg.Timeout,
		// Redirects are re-checked so an open redirect cannot land on an
		// internal address.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("%w: too many redirects", ErrSSRF)
			}
			if !d.allowPrivateNetworks {
				return validatePublicURL(req.URL.String())
			}
			return nil
		},
	}

	return d
}

// Download fetches a PDF from the given URL. The response must either
// declare application/pdf or start with the %PDF signature; several
// repositories serve PDFs under generic content types.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*Result, error) {
	if !d.allowPrivateNetworks {
		if err := validatePublicURL(rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %w", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/pdf, */*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrDownloadFailed, resp.StatusCode)
	}

	// One extra byte detects oversize without reading the whole body.
	content, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrDownloadFailed, err)
	}
	if int64(len(content)) > d.maxSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrTooLarge, d.maxSize)
	}

	contentType := resp.Header.Get("Content-Type")
	isPDFType := strings.Contains(strings.ToLower(contentType), "application/pdf")
	if !isPDFType && !bytes.HasPrefix(content, pdfMagic) {
		return nil, fmt.Errorf("%w: Content-Type is %q", ErrNotPDF, contentType)
	}

	hash := sha256.Sum256(content)
	return &Result{
		Content:     content,
		SHA256:      hex.EncodeToString(hash[:]),
		SizeBytes:   int64(len(content)),
		ContentType: contentType,
	}, nil
}

// DownloadPaper fetches a paper's PDF and writes it into dir, named after
// the paper. Returns the written path.
func (d *Downloader) DownloadPaper(ctx context.Context, paper *domain.Paper, dir string) (string, error) {
	if paper.PDFURL == "" {
		return "", ErrNoPDFURL
	}

	result, err := d.Download(ctx, paper.PDFURL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	path := filepath.Join(dir, Filename(paper))
	if err := os.WriteFile(path, result.Content, 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	return path, nil
}

// Filename derives a filesystem-safe name for a paper's PDF, preferring
// the DOI and falling back to the title.
func Filename(paper *domain.Paper) string {
	base := paper.DOI
	if base == "" {
		base = paper.Title
	}
	if base == "" {
		base = "paper"
	}

	var sb strings.Builder
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case sb.Len() > 0 && sb.String()[sb.Len()-1] != '-':
			sb.WriteByte('-')
		}
	}
	name := strings.Trim(sb.String(), "-")
	if len(name) > 120 {
		name = name[:120]
	}
	if name == "" {
		name = "paper"
	}
	return name + ".pdf"
}

// isPrivateIP reports whether the address is loopback, link-local, or in
// a private range, for either address family.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() ||
		ip.IsUnspecified()
}

// validatePublicURL rejects non-HTTP schemes and hosts that resolve to
// private addresses.
func validatePublicURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSSRF, err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: scheme %q is not allowed", ErrSSRF, parsed.Scheme)
	}

	host := parsed.Hostname()
	ips, err := net.LookupHost(host)
	if err != nil {
		return fmt.Errorf("%w: DNS lookup failed for %s: %w", ErrDownloadFailed, host, err)
	}
	for _, ipStr := range ips {
		if ip := net.ParseIP(ipStr); ip != nil && isPrivateIP(ip) {
			return fmt.Errorf("%w: %s resolves to private address %s", ErrSSRF, host, ipStr)
		}
	}
	return nil
}
