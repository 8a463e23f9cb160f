package catalog

// ImageBaseURL is the provider's image CDN root.
const ImageBaseURL = "https://image.tmdb.org/t/p"

// ImageURL builds a CDN URL for a poster, backdrop or profile path.
// Empty paths yield "".
func ImageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return ImageBaseURL + "/" + size + path
}

// PosterURL returns the row-sized poster image.
func PosterURL(path string) string {
	return ImageURL("w500", path)
}

// OriginalURL returns the full-resolution image used for backdrops.
func OriginalURL(path string) string {
	return ImageURL("original", path)
}
