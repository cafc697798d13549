package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDayUsesBusinessZone(t *testing.T) {
	// 23:30 UTC is already the next day in Lagos
	utc := time.Date(2025, 3, 14, 23, 30, 0, 0, time.UTC)
	got := StartOfDay(utc)
	assert.Equal(t, 15, got.Day())
	assert.Equal(t, 0, got.Hour())
}

func TestStartOfMonth(t *testing.T) {
	got := StartOfMonth(time.Date(2025, 3, 14, 12, 0, 0, 0, WAT))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, WAT), got)
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate("2025-03-20")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-20", FormatDate(&d))
	assert.Equal(t, "", FormatDate(nil))

	_, err = ParseDate("20/03/2025")
	assert.Error(t, err)
}

func TestAgo(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-time.Minute), "1 minute ago"},
		{now.Add(-5 * time.Minute), "5 minutes ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-49 * time.Hour), "2 days ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Ago(tt.at, now))
	}
}
