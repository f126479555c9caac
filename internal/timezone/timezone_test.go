package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationFallsBack(t *testing.T) {
	assert.Equal(t, Location(DefaultTimezone).String(), Location("Not/AZone").String())
	assert.Equal(t, "UTC", Location("UTC").String())
}

func TestParseInstant(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)

	got, err := ParseInstant("2025-03-10T13:00:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	got, err = ParseInstant("2025-03-10T10:00", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)))

	_, err = ParseInstant("amanhã", loc)
	assert.Error(t, err)
}

func TestParseDateAndStartOfDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	d, err := ParseDate("2025-03-10", loc)
	require.NoError(t, err)
	assert.Equal(t, d, StartOfDay(d.Add(15*time.Hour)))

	_, err = ParseDate("10/03/2025", loc)
	assert.Error(t, err)
}
