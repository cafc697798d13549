package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"eukexpress-backend/internal/models"
)

const (
	trackingPrefix   = "EUK"
	trackingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	trackingLength   = 5
	maxCodeAttempts  = 10
)

// TrackingCodeGenerator issues unique EUK tracking numbers
type TrackingCodeGenerator struct {
	exists func(ctx context.Context, tracking string) (bool, error)
	now    func() time.Time
}

func NewTrackingCodeGenerator(exists func(ctx context.Context, tracking string) (bool, error)) *TrackingCodeGenerator {
	return &TrackingCodeGenerator{exists: exists, now: time.Now}
}

// Generate returns a code not yet present in the store. After
// maxCodeAttempts collisions it falls back to a time-derived code.
func (g *TrackingCodeGenerator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := randomCode(trackingLength)
		if err != nil {
			return "", err
		}
		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check tracking number: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return g.fallback()
}

func (g *TrackingCodeGenerator) fallback() (string, error) {
	c, err := randomChar()
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrDuplicateTrackingCode, err)
	}
	return fmt.Sprintf("%s%c%03d", trackingPrefix, c, g.now().Unix()%1000), nil
}

func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	for i := range buf {
		c, err := randomChar()
		if err != nil {
			return "", err
		}
		buf[i] = c
	}
	return trackingPrefix + string(buf), nil
}

func randomChar() (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(trackingAlphabet))))
	if err != nil {
		return 0, err
	}
	return trackingAlphabet[idx.Int64()], nil
}

// InvoiceNumber is INV-<YYYYMMDD>-<last five of the tracking number>
func InvoiceNumber(tracking string, day time.Time) string {
	suffix := tracking
	if len(suffix) > 5 {
		suffix = suffix[len(suffix)-5:]
	}
	return "INV-" + day.Format("20060102") + "-" + suffix
}

var trackingPattern = regexp.MustCompile(`^EUK(?:[` + trackingAlphabet + `]{5}|[` + trackingAlphabet + `][0-9]{3})$`)

// ValidTrackingFormat reports whether s is a well-formed tracking number,
// either the random form or the collision fallback form.
func ValidTrackingFormat(s string) bool {
	return trackingPattern.MatchString(s)
}

// NormalizeTracking uppercases and trims user input
func NormalizeTracking(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
