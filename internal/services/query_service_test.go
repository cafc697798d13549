package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eukexpress-backend/internal/models"
)

func TestNormalizeFilter(t *testing.T) {
	f := NormalizeFilter(models.ListFilter{})
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.Limit)

	f = NormalizeFilter(models.ListFilter{Page: 3, Limit: 500})
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, MaxPageSize, f.Limit)
	assert.Equal(t, 2*MaxPageSize, f.Offset())
}

func TestListPaging(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 5; i++ {
		s := env.seed(fmt.Sprintf("EUKAB23%d", i+2), models.StatusEnRoute)
		env.shipments.rows[s.TrackingNumber].CreatedAt = testNow.Add(-time.Duration(i) * time.Hour)
	}
	env.seed("EUKZZ222", models.StatusBooked)

	list, err := env.queries.List(context.Background(), models.ListFilter{Page: 2, Limit: 2, Status: "EN_ROUTE"})
	require.NoError(t, err)
	assert.Equal(t, 5, list.Total)
	assert.Equal(t, 3, list.Pages)
	require.Len(t, list.Shipments, 2)
	assert.Equal(t, "EUKAB234", list.Shipments[0].Tracking)
	assert.Equal(t, "En Route", list.Shipments[0].StatusDisplay)
	assert.Equal(t, models.ColorGreen, list.Shipments[0].StatusColor)
	assert.Equal(t, "1 hour ago", list.Shipments[0].LastUpdateDisplay)
}

func TestListFlagsInterventions(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusCustomsBond)
	env.shipments.rows["EUKAB234"].CustomsBondActive = true
	env.shipments.rows["EUKAB234"].DelayActive = true

	list, err := env.queries.List(context.Background(), models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list.Shipments, 1)
	assert.True(t, list.Shipments[0].HasInterventions)
	assert.Equal(t, []models.InterventionType{models.InterventionCustoms, models.InterventionDelay},
		list.Shipments[0].InterventionTypes)
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusBooked)
	env.seed("EUKAB235", models.StatusDelivered)

	var buf bytes.Buffer
	n, err := env.queries.Export(context.Background(), models.ListFilter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])
	assert.Len(t, records[1], len(exportHeader))
	assert.Equal(t, "25000.00", records[1][13])
}

func TestDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s, err := env.service.Create(ctx, validRequest(), &models.ImageUpload{Filename: "f.png", Data: []byte("f")}, nil, "ops")
	require.NoError(t, err)
	_, err = env.service.UpdateStatus(ctx, s.TrackingNumber, &models.StatusUpdateRequest{Status: "COLLECTED"}, "ops")
	require.NoError(t, err)

	d, err := env.queries.Detail(ctx, s.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, s.TrackingNumber, d.Tracking)
	assert.Equal(t, models.StatusCollected, d.Status.Current)
	assert.Equal(t, "₦25,000.00", d.Payment.Display)
	assert.Equal(t, "https://eukexpress.test/api/v1/shipments/"+s.TrackingNumber+"/images/front", d.Images.Front)
	assert.Empty(t, d.Images.Rear)
	assert.Equal(t, "https://eukexpress.test/api/v1/public/track/"+s.TrackingNumber+"/invoice", d.InvoicePDF)

	require.Len(t, d.Timeline, 2)
	assert.Equal(t, "BOOKED → COLLECTED", d.Timeline[0].Event)
	assert.Equal(t, "START → BOOKED", d.Timeline[1].Event)
	assert.False(t, d.Interventions.Customs.Active)
	assert.Nil(t, d.Interventions.Customs.Duration)
}

func TestDetailActiveInterventionDurationRunsToNow(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed("EUKAB234", models.StatusCustomsBond)
	activated := testNow.Add(-50 * time.Hour)
	row := env.shipments.rows[s.TrackingNumber]
	row.CustomsBondActive = true
	row.CustomsBondActivatedAt = &activated

	d, err := env.queries.Detail(context.Background(), "EUKAB234")
	require.NoError(t, err)
	require.NotNil(t, d.Interventions.Customs.Duration)
	assert.Equal(t, "2 days", *d.Interventions.Customs.Duration)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.dashboard.stats = models.DashboardStats{ActiveShipments: 4, CustomsBondCount: 1}
	_, err := env.service.Create(context.Background(), validRequest(), nil, nil, "ops")
	require.NoError(t, err)

	d, err := env.queries.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, d.Stats.ActiveShipments)
	require.Len(t, d.RecentActivity, 1)
	assert.Equal(t, "Start → Booked", d.RecentActivity[0].EventDisplay)
	assert.Len(t, env.queries.QuickActions(), 4)
}

func TestEmailHistoryMasksAddresses(t *testing.T) {
	env := newTestEnv(t)
	s := env.seed("EUKAB234", models.StatusBooked)
	id := s.ID
	require.NoError(t, env.emails.Create(context.Background(), &models.EmailLogEntry{
		ShipmentID:     &id,
		RecipientType:  models.RecipientRecipient,
		RecipientEmail: "ben@example.com",
		EmailType:      models.EmailInvoice,
		Status:         models.EmailStatusSent,
		Attempt:        1,
	}))

	items, err := env.queries.EmailHistory(context.Background(), "EUKAB234")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotEqual(t, "ben@example.com", items[0].RecipientEmail)
	assert.Contains(t, items[0].RecipientEmail, "@example.com")
}

func TestFilterOptions(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusEnRoute)

	f, err := env.queries.FilterOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, f.Statuses, 1)
	assert.Equal(t, "En Route", f.Statuses[0].Label)
	assert.Equal(t, []string{"Lagos"}, f.Locations)
	assert.Len(t, f.DateRanges, 4)
}
