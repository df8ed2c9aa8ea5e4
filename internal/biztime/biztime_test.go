package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToOperationalAppliesFixedOffset(t *testing.T) {
	require.NoError(t, Init(""))

	// Asia/Karachi is a fixed UTC+5 zone with no DST.
	utc := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	local := ToOperational(utc)

	assert.Equal(t, 17, local.Hour())
	_, offset := local.Zone()
	assert.Equal(t, 5*60*60, offset)
	// Same instant, different representation.
	assert.True(t, utc.Equal(local))
}

func TestFormatOperational(t *testing.T) {
	utc := time.Date(2025, 6, 1, 20, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-02 01:30", FormatOperational(utc, "2006-01-02 15:04"))
}

func TestNowUTC(t *testing.T) {
	assert.Equal(t, time.UTC, NowUTC().Location())
}
