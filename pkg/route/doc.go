// Package route maps (method, path pattern) pairs to stub behaviors.
//
// Patterns are slash-separated and may contain named segments written as
// ":name" or "{name}". A Table keeps compiled patterns in registration order
// and Match returns the first route whose method and pattern both match, so
// "/cars/fixed" registered before "/cars/:id" wins for that concrete path.
//
// Matching follows common web router defaults: a trailing slash is ignored
// and literal segments compare case-insensitively. Extracted parameter
// values keep their original case.
package route
