package aggregator

import (
	"strings"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

// interleaveMerge combines per-source result lists into one deduplicated
// list. Sources are drained round-robin - one paper from each list per
// round - so no single source dominates the head of the output when the
// combined lists exceed the requested limit. When a candidate matches an
// already-accepted paper (by normalized DOI, else normalized title), the
// two records are merged field by field instead of one being discarded.
//
// Returns the merged list and the number of duplicates folded in. The
// output is deterministic for a fixed list ordering.
func interleaveMerge(lists [][]*domain.Paper) ([]*domain.Paper, int) {
	var (
		out      []*domain.Paper
		byDOI    = make(map[string]*domain.Paper)
		byTitle  = make(map[string]*domain.Paper)
		mergedN  int
		haveMore = true
	)

	for round := 0; haveMore; round++ {
		haveMore = false
		for _, list := range lists {
			if round >= len(list) {
				continue
			}
			haveMore = true

			candidate := list[round]
			if candidate == nil || candidate.Title == "" {
				continue
			}

			if existing := findMatch(byDOI, byTitle, candidate); existing != nil {
				mergeInto(existing, candidate)
				mergedN++
				// Merging may have filled in a DOI; keep the index current.
				if doi := domain.NormalizeDOI(existing.DOI); doi != "" {
					byDOI[doi] = existing
				}
				continue
			}

			accepted := clonePaper(candidate)
			if doi := domain.NormalizeDOI(accepted.DOI); doi != "" {
				byDOI[doi] = accepted
			}
			if title := domain.NormalizeTitle(accepted.Title); byTitle[title] == nil {
				byTitle[title] = accepted
			}
			out = append(out, accepted)
		}
	}

	return out, mergedN
}

// findMatch locates an accepted paper the candidate duplicates: same
// normalized DOI, or same normalized title when either record lacks a DOI.
// Two records with distinct DOIs are distinct papers even when their
// titles coincide.
func findMatch(byDOI, byTitle map[string]*domain.Paper, candidate *domain.Paper) *domain.Paper {
	doi := domain.NormalizeDOI(candidate.DOI)
	if doi != "" {
		if existing := byDOI[doi]; existing != nil {
			return existing
		}
	}

	existing := byTitle[domain.NormalizeTitle(candidate.Title)]
	if existing == nil {
		return nil
	}
	existingDOI := domain.NormalizeDOI(existing.DOI)
	if doi == "" || existingDOI == "" || doi == existingDOI {
		return existing
	}
	return nil
}

// mergeInto folds candidate's fields into primary. The primary record is
// the first-seen match; its Source and RawData are kept. Preference order
// for the rest: non-empty DOI, longer abstract, keyword union, higher
// citation and reference counts, the author list with more non-empty
// names, a populated PDF URL when the primary lacks one. Ties keep the
// primary's value.
func mergeInto(primary, candidate *domain.Paper) {
	if primary.DOI == "" && candidate.DOI != "" {
		primary.DOI = candidate.DOI
	}

	if len(candidate.Abstract) > len(primary.Abstract) {
		primary.Abstract = candidate.Abstract
	}

	primary.Keywords = unionKeywords(primary.Keywords, candidate.Keywords)

	if candidate.CitationCount > primary.CitationCount {
		primary.CitationCount = candidate.CitationCount
	}
	if candidate.ReferenceCount > primary.ReferenceCount {
		primary.ReferenceCount = candidate.ReferenceCount
	}

	if nonEmptyAuthors(candidate.Authors) > nonEmptyAuthors(primary.Authors) {
		primary.Authors = candidate.Authors
	}

	if primary.PDFURL == "" && candidate.PDFURL != "" {
		primary.PDFURL = candidate.PDFURL
	}
	if primary.URL == "" && candidate.URL != "" {
		primary.URL = candidate.URL
	}
	if primary.Venue == "" && candidate.Venue != "" {
		primary.Venue = candidate.Venue
	}
	if primary.Year == 0 && candidate.Year != 0 {
		primary.Year = candidate.Year
	}

	// Open access: true from either record wins; an unknown flag is filled
	// by whichever record knows.
	if candidate.OpenAccess != nil {
		if primary.OpenAccess == nil || (*candidate.OpenAccess && !*primary.OpenAccess) {
			primary.OpenAccess = candidate.OpenAccess
		}
	}
}

// unionKeywords appends candidate keywords not already present, preserving
// first-seen order. Comparison is case-insensitive via the original casing
// of the first occurrence.
func unionKeywords(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a))
	for _, kw := range a {
		seen[strings.ToLower(kw)] = struct{}{}
	}
	for _, kw := range b {
		if _, ok := seen[strings.ToLower(kw)]; ok {
			continue
		}
		seen[strings.ToLower(kw)] = struct{}{}
		a = append(a, kw)
	}
	return a
}

// nonEmptyAuthors counts authors with a non-empty name.
func nonEmptyAuthors(authors []domain.Author) int {
	n := 0
	for _, a := range authors {
		if a.Name != "" {
			n++
		}
	}
	return n
}

// clonePaper copies a paper so merges never mutate a source adapter's
// returned records.
func clonePaper(p *domain.Paper) *domain.Paper {
	clone := *p
	if p.Authors != nil {
		clone.Authors = append([]domain.Author(nil), p.Authors...)
	}
	if p.Keywords != nil {
		clone.Keywords = append([]string(nil), p.Keywords...)
	}
	return &clone
}
