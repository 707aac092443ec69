// Package releaseparse extracts season/episode, quality, year and size
// information from scraped release names and link labels.
package releaseparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"scavengarr/models"
)

var (
	// S01E05, s1e5
	reSeasonEpisode = regexp.MustCompile(`(?i)\bS(\d{1,3})[\s._-]?E(\d{1,4})\b`)
	// 1x5, 12x103
	reCrossNotation = regexp.MustCompile(`(?i)\b(\d{1,3})x(\d{1,4})\b`)
	// "season 1 episode 5", "Staffel 2 Folge 10"
	reSpelledOut = regexp.MustCompile(`(?i)\b(?:season|staffel)[\s._-]*(\d{1,3})[\s._-]*(?:episode|folge|ep)[\s._-]*(\d{1,4})\b`)

	reYear = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

	reSize = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*(B|KB|MB|GB|TB)\b`)
)

// Episode is a parsed (season, episode) pair. Zero values are legitimate
// episode numbers, so presence is signalled separately.
type Episode struct {
	Season  int
	Episode int
}

// ParseEpisode extracts the first season/episode marker from s. It recognises
// "S01E05", "1x5" and spelled-out "season 1 episode 5" (German variants
// included), case-insensitively.
func ParseEpisode(s string) (Episode, bool) {
	for _, re := range []*regexp.Regexp{reSeasonEpisode, reSpelledOut, reCrossNotation} {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		season, err1 := strconv.Atoi(m[1])
		episode, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		return Episode{Season: season, Episode: episode}, true
	}
	return Episode{}, false
}

// ParseYear extracts a plausible release year (1900-2099) from s.
func ParseYear(s string) (int, bool) {
	m := reYear.FindString(s)
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return year, true
}

// ParseQuality infers a quality ordinal from a free-form string such as a
// release name or an explicit quality label.
func ParseQuality(s string) models.Quality {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "2160p") || strings.Contains(lower, "4k") || strings.Contains(lower, "uhd"):
		return models.QualityUHD4K
	case strings.Contains(lower, "1080p") || strings.Contains(lower, "1080i") || strings.Contains(lower, "fullhd") || strings.Contains(lower, "fhd"):
		return models.QualityHD1080
	case strings.Contains(lower, "720p") || strings.Contains(lower, "720i") || lower == "hd":
		return models.QualityHD720
	case strings.Contains(lower, "480p") || strings.Contains(lower, "576p") || strings.Contains(lower, "dvdrip") || lower == "sd":
		return models.QualitySD
	default:
		return models.QualityUnknown
	}
}

// ParseSize converts a "1.5 GB" style string to bytes. German-style decimal
// commas are accepted. Returns 0 when nothing parses.
func ParseSize(s string) int64 {
	m := reSize.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0
	}
	var unit float64
	switch strings.ToUpper(m[2]) {
	case "B":
		unit = 1
	case "KB":
		unit = 1 << 10
	case "MB":
		unit = 1 << 20
	case "GB":
		unit = 1 << 30
	case "TB":
		unit = 1 << 40
	}
	return int64(value * unit)
}

// FormatSize renders bytes for display, e.g. "1.5 GB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return ""
	}
	switch {
	case bytes >= 1<<40:
		return fmt.Sprintf("%.1f TB", float64(bytes)/float64(1<<40))
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.0f MB", float64(bytes)/float64(1<<20))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

var hosterAliases = map[string]string{
	"voe.sx":        "voe",
	"streamtape.to": "streamtape",
	"dood":          "doodstream",
	"dood.to":       "doodstream",
	"ds2play":       "doodstream",
	"filemoon.sx":   "filemoon",
	"mixdrop.co":    "mixdrop",
	"vidoza.net":    "vidoza",
	"supervideo.tv": "supervideo",
}

var hosterSuffixes = []string{".com", ".net", ".org", ".sx", ".to", ".tv", ".co", ".cc", ".io"}

// NormalizeHoster lowercases a hoster name, strips known TLD suffixes and
// maps known aliases to one canonical name.
func NormalizeHoster(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ""
	}
	if canonical, ok := hosterAliases[n]; ok {
		return canonical
	}
	for _, suffix := range hosterSuffixes {
		if strings.HasSuffix(n, suffix) {
			n = strings.TrimSuffix(n, suffix)
			break
		}
	}
	if canonical, ok := hosterAliases[n]; ok {
		return canonical
	}
	return n
}

var releaseTagTokens = map[string]bool{
	"german": true, "english": true, "multi": true, "dl": true, "dual": true,
	"dubbed": true, "subbed": true, "ac3": true, "aac": true, "dts": true,
	"bluray": true, "bdrip": true, "brrip": true, "web": true, "webdl": true,
	"webrip": true, "hdtv": true, "dvdrip": true, "hdrip": true, "remux": true,
	"x264": true, "x265": true, "h264": true, "h265": true, "hevc": true,
	"avc": true, "proper": true, "repack": true, "uncut": true, "extended": true,
	"remastered": true, "complete": true, "internal": true, "mkv": true, "mp4": true,
}

var (
	reQualityToken = regexp.MustCompile(`(?i)^(2160p|1080[pi]|720[pi]|480p|576p|4k|uhd|fhd|fullhd)$`)
	reEpisodeToken = regexp.MustCompile(`(?i)^(s\d{1,3}e\d{1,4}|\d{1,3}x\d{1,4})$`)
)

// StripReleaseTags cuts a scene-style release name down to its title part.
// Everything from the first year, resolution, episode marker or known release
// tag onward is dropped: "Iron.Man.2008.German.1080p.BluRay.x264-GRP" becomes
// "Iron Man".
// Strings without recognizable tags come back with separators normalized only.
func StripReleaseTags(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == ' '
	})
	var kept []string
	for _, field := range fields {
		token := strings.ToLower(strings.Trim(field, "()[]"))
		if reYear.MatchString(token) || reQualityToken.MatchString(token) || reEpisodeToken.MatchString(token) || releaseTagTokens[token] {
			break
		}
		kept = append(kept, strings.Trim(field, "()[]"))
	}
	if len(kept) == 0 {
		return s
	}
	return strings.Join(kept, " ")
}

var reTrailingInstallment = regexp.MustCompile(`(?i)[\s._-]+(\d{1,2}|II|III|IV|V|VI|VII|VIII|IX|X)$`)

// TrailingInstallment returns the sequel marker at the end of a title
// ("Iron Man 2" → "2", "Rocky III" → "III") if one is present. Four-digit
// trailers are treated as years, not installments.
func TrailingInstallment(title string) (string, bool) {
	m := reTrailingInstallment.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return "", false
	}
	return m[1], true
}
