package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetOrCreate(t *testing.T) {
	store := NewStore(&fakeGenerator{}, time.Second, time.Hour)

	c1 := store.GetOrCreate("abc")
	c2 := store.GetOrCreate("abc")
	assert.Same(t, c1, c2)
	assert.Equal(t, "abc", c1.ID())

	fresh := store.GetOrCreate("")
	assert.NotEmpty(t, fresh.ID())
	assert.Equal(t, 2, store.Len())
}

func TestStore_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(&fakeGenerator{}, time.Second, time.Hour)
	store.now = func() time.Time { return now }

	store.GetOrCreate("old")
	now = now.Add(50 * time.Minute)
	store.GetOrCreate("recent")

	removed := store.Sweep(now.Add(30 * time.Minute))
	assert.Equal(t, 1, removed)

	assert.NotContains(t, store.sessions, "old")
	assert.Contains(t, store.sessions, "recent")
}

func TestStore_SweepKeepsInFlight(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	gen := &fakeGenerator{release: make(chan struct{})}
	defer close(gen.release)

	store := NewStore(gen, time.Minute, time.Minute)
	store.now = func() time.Time { return now }

	c := store.GetOrCreate("busy")
	c.SetUserPhoto(imageA())
	c.SetReferenceImage(imageB())
	_, err := c.Generate(t.Context())
	require.NoError(t, err)

	assert.Zero(t, store.Sweep(now.Add(time.Hour)))
	assert.Equal(t, 1, store.Len())
}
