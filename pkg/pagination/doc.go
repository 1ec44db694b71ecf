// Package pagination provides a lazy iterator over paged Clockify list endpoints.
//
// Clockify list endpoints accept "page" (1-based) and "page-size" query
// parameters and never report a total count. The iterator therefore keeps
// asking for the next page until one comes back shorter than the page size.
//
// Example usage:
//
//	it := server.Iterator("/workspaces/123/user/456/time-entries", apiKey, nil)
//	for {
//		record, ok, err := it.Next(ctx)
//		if err != nil {
//			return err
//		}
//		if !ok {
//			break
//		}
//		// use record
//	}
//
// The iterator:
//   - Requests pages sequentially, only when the buffered page is used up
//   - Merges page and page-size into a copy of the caller's filters
//   - Stops after a short page (an exact multiple costs one extra, empty, request)
//   - Is single-pass: build a new one to read from page 1 again
//   - Holds no locks; share it between goroutines at your own risk
package pagination
