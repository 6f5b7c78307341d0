package requestlog

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LogAssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(10)

	entry := &Entry{Method: "POST", Path: "/api/v1/cars"}
	s.Log(entry)

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Same(t, entry, s.Get(entry.ID))
	assert.Nil(t, s.Get("missing"))

	s.Log(nil)
	assert.Equal(t, 1, s.Count())
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(3)
	for i := range 5 {
		s.Log(&Entry{Path: fmt.Sprintf("/%d", i)})
	}

	require.Equal(t, 3, s.Count())
	entries := s.List(nil)
	assert.Equal(t, "/4", entries[0].Path)
	assert.Equal(t, "/2", entries[2].Path)
}

func TestMemoryStore_DefaultCapacity(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultMaxEntries, NewMemoryStore(0).maxEntries)
}

func TestMemoryStore_ListFilter(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(100)
	s.Log(&Entry{Method: "GET", Path: "/api/v1/cars", Route: "/api/v1/cars", ResponseStatus: 200})
	s.Log(&Entry{Method: "POST", Path: "/api/v1/cars", Route: "/api/v1/cars", ResponseStatus: 200})
	s.Log(&Entry{Method: "GET", Path: "/api/v1/trucks", ResponseStatus: 404})
	s.Log(&Entry{Method: "GET", Path: "/api/v2/planes/1/passengers", Route: "/api/v2/planes/:plane_id/passengers", ResponseStatus: 200})

	tests := []struct {
		name   string
		filter *Filter
		want   int
	}{
		{"nil filter", nil, 4},
		{"method", &Filter{Method: "post"}, 1},
		{"path prefix", &Filter{Path: "/api/v1"}, 3},
		{"route", &Filter{Route: "/api/v1/cars"}, 2},
		{"status", &Filter{StatusCode: 404}, 1},
		{"limit", &Filter{Limit: 2}, 2},
		{"offset", &Filter{Offset: 3}, 1},
		{"offset past end", &Filter{Offset: 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Len(t, s.List(tt.filter), tt.want)
		})
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(10)
	s.Log(&Entry{})
	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.List(nil))
}

func TestMemoryStore_Subscribe(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(10)

	sub, unsubscribe := s.Subscribe()
	s.Log(&Entry{Path: "/api/v1/hb"})

	select {
	case got := <-sub:
		assert.Equal(t, "/api/v1/hb", got.Path)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive entry")
	}

	unsubscribe()
	unsubscribe()
	_, open := <-sub
	assert.False(t, open)

	assert.NotPanics(t, func() { s.Log(&Entry{}) })
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(1000)
	_, unsubscribe := s.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for range subscriberBuffer * 3 {
			s.Log(&Entry{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Log blocked on a full subscriber")
	}
}

func TestMemoryStore_ConcurrentLog(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(500)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				s.Log(&Entry{Method: "GET"})
				_ = s.List(&Filter{Limit: 5})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 500, s.Count())
}

func TestTruncateBody(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abc", TruncateBody([]byte("abc")))
	long := strings.Repeat("x", MaxBodySize+10)
	assert.Len(t, TruncateBody([]byte(long)), MaxBodySize)
}
