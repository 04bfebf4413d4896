package redis

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"

	"github.com/redis/go-redis/v9"

	"github.com/colisapp/shipping-core/internal/core/ports"
)

// suffixAlphabet drops 0/O and 1/I so numbers read back unambiguously.
const (
	suffixAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	suffixLen      = 4
)

// TrackingSequence mints tracking numbers such as MA-CAS-FR-PAR-000042-K7QD
// from a per-route counter and a random suffix. The suffix keeps numbers
// distinct when the counter restarts after Redis loses its data.
// Key format: colisapp:tracking:seq:<route prefix>
type TrackingSequence struct {
	client *redis.Client
}

func NewTrackingSequence(client *redis.Client) *TrackingSequence {
	return &TrackingSequence{client: client}
}

func (s *TrackingSequence) Generate(ctx context.Context, route ports.TrackingRoute) (string, error) {
	prefix := RoutePrefix(route)
	n, err := s.client.Incr(ctx, keyPrefix+"tracking:seq:"+prefix).Result()
	if err != nil {
		return "", fmt.Errorf("tracking sequence: %w", err)
	}
	suffix, err := randomSuffix()
	if err != nil {
		return "", fmt.Errorf("tracking sequence: %w", err)
	}
	return formatTrackingNumber(prefix, n, suffix), nil
}

func formatTrackingNumber(prefix string, n int64, suffix string) string {
	return fmt.Sprintf("%s-%06d-%s", prefix, n, suffix)
}

func randomSuffix() (string, error) {
	b := make([]byte, suffixLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = suffixAlphabet[int(b[i])%len(suffixAlphabet)]
	}
	return string(b), nil
}

// RoutePrefix renders the route as COUNTRY-CITY-COUNTRY-CITY using two letters
// per country and three per city.
func RoutePrefix(route ports.TrackingRoute) string {
	return strings.Join([]string{
		code(route.DepartureCountry, 2),
		code(route.DepartureCity, 3),
		code(route.DestinationCountry, 2),
		code(route.DestinationCity, 3),
	}, "-")
}

// code keeps the first n ASCII letters of s, upper-cased and padded with X.
func code(s string, n int) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == n {
			break
		}
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	for b.Len() < n {
		b.WriteByte('X')
	}
	return b.String()
}
