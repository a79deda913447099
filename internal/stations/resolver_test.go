package stations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestPicksClosestStation(t *testing.T) {
	dir := NewDirectory(
		Station{ID: "L08", Name: "Bedford Av", Latitude: 40.717304, Longitude: -73.956872, Lines: []string{"L"}},
		Station{ID: "127", Name: "Times Sq-42 St", Latitude: 40.75529, Longitude: -73.987495, Lines: []string{"1", "2", "3"}},
	)

	// A point in Williamsburg is much closer to Bedford Av
	st, err := dir.Nearest(40.7170, -73.9570)
	require.NoError(t, err)
	assert.Equal(t, "L08", st.ID)

	// Midtown resolves to Times Sq
	st, err = dir.Nearest(40.7550, -73.9870)
	require.NoError(t, err)
	assert.Equal(t, "127", st.ID)
}

func TestNearestIsDeterministic(t *testing.T) {
	dir := NewDirectory(
		Station{ID: "A01", Latitude: 40.70, Longitude: -74.00},
		Station{ID: "B02", Latitude: 40.71, Longitude: -74.01},
	)

	first, err := dir.Nearest(40.705, -74.005)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		st, err := dir.Nearest(40.705, -74.005)
		require.NoError(t, err)
		assert.Equal(t, first.ID, st.ID)
	}
}

func TestNearestTieBreaksByLowestID(t *testing.T) {
	// Two stations at the exact same coordinates
	dir := NewDirectory(
		Station{ID: "R16", Latitude: 40.754672, Longitude: -73.986754},
		Station{ID: "127", Latitude: 40.754672, Longitude: -73.986754},
	)

	st, err := dir.Nearest(40.754672, -73.986754)
	require.NoError(t, err)
	assert.Equal(t, "127", st.ID)
}

func TestNearestEmptyDirectory(t *testing.T) {
	dir := NewDirectory()
	_, err := dir.Nearest(40.7, -74.0)
	assert.ErrorIs(t, err, ErrNoStations)
}

func TestHaversine(t *testing.T) {
	// Bedford Av to Lorimer St is roughly 650m
	d := Haversine(40.717304, -73.956872, 40.714063, -73.950275)
	assert.InDelta(t, 660, d, 60)

	// Zero distance to itself
	assert.InDelta(t, 0, Haversine(40.7, -74.0, 40.7, -74.0), 1e-6)
}
