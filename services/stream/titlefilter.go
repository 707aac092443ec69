package stream

import (
	"log"
	"strings"

	"scavengarr/config"
	"scavengarr/models"
	"scavengarr/utils/releaseparse"
	"scavengarr/utils/similarity"
)

// TitleFilter drops scraped results that do not plausibly belong to the
// reference title. Aggregator sites answer fuzzy queries with unrelated
// hits; this stage is what keeps "Iron Man 2" out of an "Iron Man" request.
type TitleFilter struct {
	cfg config.TitleMatchSettings
}

func NewTitleFilter(cfg config.TitleMatchSettings) *TitleFilter {
	return &TitleFilter{cfg: cfg}
}

// Apply keeps results whose adjusted similarity to ref meets the threshold.
func (f *TitleFilter) Apply(ref models.ReferenceTitle, results []models.RawSearchResult) []models.RawSearchResult {
	kept := make([]models.RawSearchResult, 0, len(results))
	for _, result := range results {
		score := f.Score(ref, result)
		if score >= f.cfg.Threshold {
			kept = append(kept, result)
		} else {
			log.Printf("[titlefilter] dropped %q (score %.2f < %.2f) for %q", result.Title, score, f.cfg.Threshold, ref.Title)
		}
	}
	return kept
}

// Score computes the adjusted similarity of one candidate in [0,1] plus
// bonus/penalty terms.
func (f *TitleFilter) Score(ref models.ReferenceTitle, result models.RawSearchResult) float64 {
	candidate := result.Title
	if candidate == "" {
		candidate = result.ReleaseName
	}
	candidate = releaseparse.StripReleaseTags(candidate)
	score := similarity.Score(ref.Title, candidate)

	if ref.Year > 0 {
		if year, ok := candidateYear(result); ok {
			if withinTolerance(year, ref.Year, f.tolerance(ref.Kind)) {
				score += f.cfg.YearBonus
			} else {
				score -= f.cfg.YearPenalty
			}
		}
	}

	if f.looksLikeOtherInstallment(ref.Title, candidate) {
		score -= f.cfg.SequelPenalty
	}
	return score
}

func (f *TitleFilter) tolerance(kind models.MediaKind) int {
	if kind == models.MediaKindSeries {
		return f.cfg.YearToleranceSeries
	}
	return f.cfg.YearToleranceMovie
}

func candidateYear(result models.RawSearchResult) (int, bool) {
	if year, ok := releaseparse.ParseYear(result.Title); ok {
		return year, true
	}
	return releaseparse.ParseYear(result.ReleaseName)
}

func withinTolerance(year, refYear, tolerance int) bool {
	diff := year - refYear
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// looksLikeOtherInstallment flags candidates that extend the reference title
// with a trailing installment marker the reference itself lacks, such as
// "Iron Man 2" against "Iron Man". A reference that carries the same marker
// is not penalized.
func (f *TitleFilter) looksLikeOtherInstallment(refTitle, candidate string) bool {
	candMarker, ok := releaseparse.TrailingInstallment(candidate)
	if !ok {
		return false
	}
	refMarker, refHas := releaseparse.TrailingInstallment(refTitle)
	if refHas && strings.EqualFold(refMarker, candMarker) {
		return false
	}
	// The marker must extend the reference, not merely appear somewhere.
	base := similarity.Normalize(refTitle)
	cand := similarity.Normalize(candidate)
	return len(cand) > len(base) && cand[:len(base)] == base
}
