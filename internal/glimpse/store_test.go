package glimpse

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")

	s, err := openPayloadStore(path)
	require.NoError(t, err)

	at := time.Now().Truncate(0)
	s.PutAsync("revenue", linePayload(10), at)
	s.PutAsync("latency", linePayload(20), at.Add(time.Second))
	s.close() // drains the writer loop

	s, err = openPayloadStore(path)
	require.NoError(t, err)
	defer s.close()

	got := s.LoadAll()
	require.Len(t, got, 2)
	assert.True(t, linePayload(10).Equal(got["revenue"].Payload))
	assert.Equal(t, at.UnixNano(), got["revenue"].SuccessAt)
	assert.True(t, linePayload(20).Equal(got["latency"].Payload))
}

func TestPayloadStoreOverwriteKeepsLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")

	s, err := openPayloadStore(path)
	require.NoError(t, err)
	at := time.Now()
	s.PutAsync("w", linePayload(1), at)
	s.PutAsync("w", linePayload(2), at.Add(time.Minute))
	s.close()

	s, err = openPayloadStore(path)
	require.NoError(t, err)
	defer s.close()

	got := s.LoadAll()
	require.Len(t, got, 1)
	assert.True(t, linePayload(2).Equal(got["w"].Payload))
}

func TestManagerWarmStartFromStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	// A previous run persisted a payload an hour ago.
	s, err := openPayloadStore(dir)
	require.NoError(t, err)
	savedAt := time.Now().Add(-time.Hour)
	s.PutAsync("revenue", Payload{Shape: ShapeBar, Bars: []Point{{"a", 1}}}, savedAt)
	s.PutAsync("gone", linePayload(9), savedAt) // widget no longer configured
	s.close()

	cfg, err := ParseConfig([]byte(validConfig))
	require.NoError(t, err)
	cfg.Storage.Path = dir

	m, err := NewManager(cfg)
	require.NoError(t, err)
	defer m.Close()

	page, ok := m.PageBySlug("overview")
	require.True(t, ok)
	snap := m.Snapshot(page)

	rev := snap.Columns[0][0]
	require.Equal(t, "revenue", rev.Spec.ID)
	assert.Equal(t, SlotStale, rev.State, "warm-started data is stale, not unavailable")
	assert.Equal(t, []Point{{"a", 1}}, rev.Payload.Bars)

	lat := snap.Columns[0][1]
	assert.Equal(t, SlotUnavailable, lat.State, "no persisted payload means no success yet")
}
