package fixture

import "errors"

// Errors returned by Store. Callers match them with errors.Is; returned
// errors carry the fixture name and cause as wrapped context.
var (
	// ErrFixtureLoad is returned when a source blob is not a JSON array of objects.
	ErrFixtureLoad = errors.New("fixture load failed")

	// ErrUnknownFixture is returned when a name was never loaded.
	ErrUnknownFixture = errors.New("unknown fixture")

	// ErrEmptyDocument is returned when mutating a document with no records.
	ErrEmptyDocument = errors.New("fixture has no records")

	// ErrDuplicateFixture is returned when loading a name twice.
	ErrDuplicateFixture = errors.New("fixture already loaded")

	// ErrInvalidField is returned for an empty or unparseable field expression.
	ErrInvalidField = errors.New("invalid field")
)
