package route

import "errors"

var (
	// ErrRouteNotFound is returned by Match when nothing is registered for
	// the method and path.
	ErrRouteNotFound = errors.New("route not found")

	// ErrDuplicateRoute is returned when a method and pattern are registered twice.
	ErrDuplicateRoute = errors.New("duplicate route")

	// ErrInvalidRoute is returned for a malformed definition.
	ErrInvalidRoute = errors.New("invalid route")
)
