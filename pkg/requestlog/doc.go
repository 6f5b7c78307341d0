// Package requestlog captures the requests a stub server received so tests
// can inspect them afterwards.
//
// It is distinct from operational logging (log/slog): entries are kept in a
// bounded in-memory buffer, queried through the admin API, and streamed to
// subscribers as they arrive.
//
//	store := requestlog.NewMemoryStore(1000)
//	store.Log(&requestlog.Entry{Method: "POST", Path: "/api/v1/cars", Body: `{"id":1}`})
//
// This is a leaf package with no internal dependencies.
package requestlog
