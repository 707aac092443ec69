package stream

import (
	"sort"

	"scavengarr/config"
	"scavengarr/models"
)

// Scorer assigns each stream a deterministic weight and keeps the best
// stream per hoster. Equal inputs and config always yield the same order.
type Scorer struct {
	cfg config.ScoringSettings
}

func NewScorer(cfg config.ScoringSettings) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the weight of a single stream.
func (s *Scorer) Score(rs models.RankedStream) int {
	score := s.languageScore(rs.Language.Code)
	score += int(rs.Quality) * s.cfg.QualityMultiplier
	score += s.cfg.HosterScores[rs.Hoster]
	if s.inSizeBand(rs.SizeBytes) {
		score += s.cfg.SizeBonus
	}
	return score
}

func (s *Scorer) languageScore(code string) int {
	if v, ok := s.cfg.LanguageScores[code]; ok {
		return v
	}
	return s.cfg.DefaultLanguageScore
}

func (s *Scorer) inSizeBand(bytes int64) bool {
	if bytes <= 0 {
		return false
	}
	mb := bytes / (1 << 20)
	return mb >= int64(s.cfg.SizeBonusMinMB) && mb <= int64(s.cfg.SizeBonusMaxMB)
}

// Rank scores, sorts and dedupes. Ties fall back to hoster name then URL so
// repeated runs produce identical output. Dedup keeps the best stream per
// hoster; hosterless streams are unique mirrors and always survive.
func (s *Scorer) Rank(streams []models.RankedStream) []models.RankedStream {
	scored := make([]models.RankedStream, len(streams))
	for i, rs := range streams {
		rs.Score = s.Score(rs)
		scored[i] = rs
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Hoster != scored[j].Hoster {
			return scored[i].Hoster < scored[j].Hoster
		}
		return scored[i].URL < scored[j].URL
	})

	seen := make(map[string]bool, len(scored))
	deduped := scored[:0]
	for _, rs := range scored {
		if rs.Hoster != "" {
			if seen[rs.Hoster] {
				continue
			}
			seen[rs.Hoster] = true
		}
		deduped = append(deduped, rs)
	}
	return deduped
}
