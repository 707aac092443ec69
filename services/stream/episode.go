// Package stream contains the resolution pipeline that turns one incoming
// stream request into an ordered list of client-facing streams.
package stream

import (
	"scavengarr/models"
	"scavengarr/utils/releaseparse"
)

// FilterEpisodes reduces results to the requested (season, episode). Season
// and episode use -1 for "not requested"; 0 is a legitimate value.
//
// Sites disagree on where episode information lives: some title every
// release per episode, others title by series and mark each hoster link
// "1x5" style. Both shapes must collapse to the requested episode.
func FilterEpisodes(results []models.RawSearchResult, season, episode int) []models.RawSearchResult {
	if season < 0 && episode < 0 {
		return results
	}

	filtered := make([]models.RawSearchResult, 0, len(results))
	for _, result := range results {
		if parsed, ok := parseResultEpisode(result); ok {
			if episodeMatches(parsed, season, episode) {
				filtered = append(filtered, result)
			}
			continue
		}

		labeled, matching := splitLinksByEpisode(result.Links, season, episode)
		if !labeled {
			// No episode info anywhere: benefit of the doubt.
			filtered = append(filtered, result)
			continue
		}
		if len(matching) == 0 {
			continue
		}
		narrowed := result
		narrowed.Links = matching
		narrowed.PrimaryLink = matching[0].URL
		filtered = append(filtered, narrowed)
	}
	return filtered
}

func parseResultEpisode(result models.RawSearchResult) (releaseparse.Episode, bool) {
	if parsed, ok := releaseparse.ParseEpisode(result.Title); ok {
		return parsed, true
	}
	return releaseparse.ParseEpisode(result.ReleaseName)
}

// splitLinksByEpisode reports whether any link labels carry episode markers
// and, if so, which links match the request.
func splitLinksByEpisode(links []models.HosterLink, season, episode int) (labeled bool, matching []models.HosterLink) {
	for _, link := range links {
		parsed, ok := releaseparse.ParseEpisode(link.Label)
		if !ok {
			continue
		}
		labeled = true
		if episodeMatches(parsed, season, episode) {
			matching = append(matching, link)
		}
	}
	return labeled, matching
}

// episodeMatches compares a parsed marker against the requested pair,
// ignoring whichever side of the request is unset.
func episodeMatches(parsed releaseparse.Episode, season, episode int) bool {
	if season >= 0 && parsed.Season != season {
		return false
	}
	if episode >= 0 && parsed.Episode != episode {
		return false
	}
	return true
}
