// Package pagination builds one logical list out of numbered provider pages.
//
// TMDB list endpoints return a page number and a total page count with
// every response. Infinite fetches those pages one at a time in order and
// stitches their results; Warmer preloads many pages in parallel into the
// shared query cache.
//
// Example usage:
//
//	list := pagination.NewInfinite(query.K("category", "action"), fetchPage,
//		pagination.Options{Cache: qc})
//	_ = list.Start(ctx)
//	for list.HasNextPage() {
//		if err := list.FetchNextPage(ctx); err != nil {
//			break
//		}
//	}
//	items := list.Items()
//
// Infinite:
//   - never overlaps page fetches
//   - keeps pages gapless and in order
//   - refetches a failed page on the next FetchNextPage
//
// Warmer fetches page 1 to learn the page count, then runs the rest on a
// bounded errgroup and reports partial results when pages fail.
package pagination
