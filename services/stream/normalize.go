package stream

import (
	"scavengarr/models"
	"scavengarr/utils/releaseparse"
)

var languageLabels = map[string]string{
	"de": "Deutsch",
	"en": "English",
	"fr": "Français",
	"es": "Español",
	"it": "Italiano",
	"ja": "日本語",
}

// Normalize flattens one (result, link) pair into the canonical ranked form.
// The URL stays the hoster embed URL; CDN resolution happens later.
func Normalize(result models.RawSearchResult, link models.HosterLink, sourceAdapter, defaultLanguage string) models.RankedStream {
	quality := releaseparse.ParseQuality(link.Quality)
	if quality == models.QualityUnknown {
		quality = releaseparse.ParseQuality(result.Title)
	}
	if quality == models.QualityUnknown {
		quality = releaseparse.ParseQuality(result.ReleaseName)
	}

	langCode := link.Language
	if langCode == "" {
		langCode = defaultLanguage
	}

	size := link.SizeBytes
	if size == 0 {
		size = result.SizeBytes
	}

	return models.RankedStream{
		URL:           link.URL,
		Hoster:        releaseparse.NormalizeHoster(link.HosterName),
		Quality:       quality,
		Language:      languageFor(langCode),
		SizeBytes:     size,
		SizeLabel:     releaseparse.FormatSize(size),
		Title:         result.Title,
		ReleaseName:   result.ReleaseName,
		SourceAdapter: sourceAdapter,
	}
}

func languageFor(code string) models.Language {
	label, ok := languageLabels[code]
	if !ok {
		label = code
	}
	return models.Language{Code: code, Label: label}
}
