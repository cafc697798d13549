package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eukexpress-backend/internal/models"
)

func TestTrackingCodeFormat(t *testing.T) {
	g := NewTrackingCodeGenerator(func(context.Context, string) (bool, error) { return false, nil })
	for i := 0; i < 50; i++ {
		code, err := g.Generate(context.Background())
		require.NoError(t, err)
		assert.Len(t, code, 8)
		assert.True(t, ValidTrackingFormat(code), code)
		assert.False(t, strings.ContainsAny(code[3:], "IO01"), code)
	}
}

func TestTrackingCodeFallsBackAfterCollisions(t *testing.T) {
	calls := 0
	g := NewTrackingCodeGenerator(func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	code, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, maxCodeAttempts, calls)
	assert.Len(t, code, 7)
	assert.True(t, ValidTrackingFormat(code), code)
}

func TestValidTrackingFormat(t *testing.T) {
	assert.True(t, ValidTrackingFormat("EUKAB234"))
	assert.True(t, ValidTrackingFormat("EUKQ123"))
	assert.False(t, ValidTrackingFormat("EUKAB23"))
	assert.False(t, ValidTrackingFormat("EUKAB1O4"))
	assert.False(t, ValidTrackingFormat("ABCAB234"))
	assert.Equal(t, "EUKAB234", NormalizeTracking("  eukab234 "))
	assert.Equal(t, "INV-20250314-AB234", InvoiceNumber("EUKAB234", testNow))
}

func TestPublicTrack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s, err := env.service.Create(ctx, validRequest(), nil, nil, "ops")
	require.NoError(t, err)

	p, err := env.tracking.Track(ctx, strings.ToLower(s.TrackingNumber))
	require.NoError(t, err)
	assert.Equal(t, s.TrackingNumber, p.Tracking)
	assert.Equal(t, "Booked", p.Status.Display)
	assert.Equal(t, "London", p.Route.Destination)
	assert.Equal(t, "2025-03-21", p.Dates.Estimated)
	assert.Empty(t, p.Dates.Actual)
	require.Len(t, p.Timeline, 1)
	assert.Equal(t, "START → BOOKED", p.Timeline[0].Event)
	assert.Equal(t, "https://eukexpress.test/api/v1/public/track/"+s.TrackingNumber+"/qr", p.QRCode)
}

func TestPublicTrackUnknownAndMalformed(t *testing.T) {
	env := newTestEnv(t)
	for _, code := range []string{"EUKZZZZZ", "hello", ""} {
		_, err := env.tracking.Track(context.Background(), code)
		assert.ErrorIs(t, err, models.ErrNotFound, code)
	}
}

func TestPublicDocuments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s, err := env.service.Create(ctx, validRequest(), nil, nil, "ops")
	require.NoError(t, err)

	qr, err := env.tracking.QRCode(ctx, s.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(qr[:4]))

	pdf, name, err := env.tracking.Invoice(ctx, s.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, s.InvoiceNumber+".pdf", name)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	// documents are rebuilt when the stored copy is gone
	delete(env.docs.docs, s.InvoicePDFPath)
	pdf, _, err = env.tracking.Invoice(ctx, s.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestAdminImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s, err := env.service.Create(ctx, validRequest(), &models.ImageUpload{Filename: "f.png", Data: []byte("front")}, nil, "ops")
	require.NoError(t, err)

	data, _, err := env.tracking.Image(ctx, s.TrackingNumber, "front")
	require.NoError(t, err)
	assert.Equal(t, []byte("front"), data)

	_, _, err = env.tracking.Image(ctx, s.TrackingNumber, "rear")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, _, err = env.tracking.Image(ctx, s.TrackingNumber, "side")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
