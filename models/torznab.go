package models

// Torznab category codes used for tagging scraped results. The integer ranges
// follow the newznab taxonomy: 2000-2999 movies, 5000-5099 TV.
const (
	CategoryMovies      = 2000
	CategoryMoviesSD    = 2030
	CategoryMoviesHD    = 2040
	CategoryMoviesUHD   = 2045
	CategoryTV          = 5000
	CategoryTVSD        = 5030
	CategoryTVHD        = 5040
	CategoryTVUHD       = 5045
	CategoryTVAnime     = 5070
	CategoryTVDocu      = 5080
)

// IsMovieCategory reports whether cat falls into the movie range.
func IsMovieCategory(cat int) bool {
	return cat >= 2000 && cat <= 2999
}

// IsTVCategory reports whether cat falls into the TV range.
func IsTVCategory(cat int) bool {
	return cat >= 5000 && cat <= 5099
}

// CategoryForKind returns the top-level category for a media kind.
func CategoryForKind(kind MediaKind) int {
	if kind == MediaKindSeries {
		return CategoryTV
	}
	return CategoryMovies
}
