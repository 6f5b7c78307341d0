package requestlog

// Logger is the minimal interface for recording entries.
type Logger interface {
	Log(entry *Entry)
}

// Store defines the interface for request history storage.
type Store interface {
	Logger

	// Get retrieves a log entry by ID.
	Get(id string) *Entry

	// List returns log entries newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all log entries.
	Clear()

	// Count returns the number of log entries.
	Count() int
}

// Filter defines criteria for filtering request logs.
type Filter struct {
	// Method filters by HTTP method.
	Method string

	// Path filters by path prefix.
	Path string

	// Route filters by matched route pattern.
	Route string

	// StatusCode filters by response status code.
	StatusCode int

	// Limit is the maximum number of entries to return.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

// Subscriber is a channel that receives new log entries.
type Subscriber chan *Entry

// SubscribableStore extends Store with real-time updates.
type SubscribableStore interface {
	Store

	// Subscribe registers a subscriber and returns it with its unsubscribe function.
	Subscribe() (Subscriber, func())
}
