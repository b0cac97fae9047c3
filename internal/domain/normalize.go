package domain

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// doiPrefixes are the URL and scheme prefixes stripped during DOI
// normalization, longest forms first.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// NormalizeDOI normalizes a DOI for comparison: trimmed, lowercased, with
// any URL or "doi:" prefix removed. Returns "" for an empty input.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(doi, prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	return doi
}

// NormalizeTitle normalizes a paper title for deduplication: lowercased,
// punctuation removed, runs of whitespace collapsed to single spaces.
func NormalizeTitle(title string) string {
	var sb strings.Builder
	sb.Grow(len(title))

	lastSpace := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				sb.WriteByte(' ')
				lastSpace = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastSpace = false
		}
		// Punctuation and symbols are dropped entirely.
	}

	return strings.TrimRight(sb.String(), " ")
}

var (
	yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	tagRe  = regexp.MustCompile(`<[^>]+>`)
	wsRe   = regexp.MustCompile(`\s+`)
)

// ExtractYear pulls a four-digit publication year out of a date string in
// any common format (YYYY, YYYY-MM-DD, "June 2019", ...). Returns 0 when no
// year is present.
func ExtractYear(date string) int {
	match := yearRe.FindString(date)
	if match == "" {
		return 0
	}
	year := 0
	for _, r := range match {
		year = year*10 + int(r-'0')
	}
	return year
}

// CleanText strips HTML tags, decodes entities, and collapses whitespace.
// Several sources embed markup in abstracts and titles.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = html.UnescapeString(text)
	text = tagRe.ReplaceAllString(text, "")
	return strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
}

// IsPDFURL reports whether a URL likely points directly at a PDF.
func IsPDFURL(url string) bool {
	if url == "" {
		return false
	}
	lower := strings.ToLower(url)
	return strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, "/pdf/")
}
