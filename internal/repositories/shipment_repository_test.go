package repositories

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"eukexpress-backend/internal/models"
)

func TestBuildFilter(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   models.ListFilter
		contains []string
		args     int
	}{
		{name: "empty", filter: models.ListFilter{}, args: 0},
		{
			name:     "status only",
			filter:   models.ListFilter{Status: "EN_ROUTE"},
			contains: []string{"current_status = $1"},
			args:     1,
		},
		{
			name:     "search shares one placeholder",
			filter:   models.ListFilter{Search: "lagos"},
			contains: []string{"tracking_number ILIKE $1", "destination_location ILIKE $1"},
			args:     1,
		},
		{
			name:     "all filters numbered in order",
			filter:   models.ListFilter{Status: "BOOKED", Search: "EUK", DateFrom: &from, DateTo: &to},
			contains: []string{"current_status = $1", "sender_name ILIKE $2", "created_at::date >= $3::date", "created_at::date <= $4::date"},
			args:     4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildFilter(tt.filter)
			assert.Len(t, args, tt.args)
			if tt.args == 0 {
				assert.Empty(t, where)
				return
			}
			assert.True(t, strings.HasPrefix(where, " WHERE "))
			for _, c := range tt.contains {
				assert.Contains(t, where, c)
			}
		})
	}
}

func TestBuildFilterWrapsSearchTerm(t *testing.T) {
	_, args := buildFilter(models.ListFilter{Search: "ada"})
	assert.Equal(t, []any{"%ada%"}, args)
}
