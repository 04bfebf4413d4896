package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultGuardTTL = 30 * time.Second

// releaseScript deletes the key only while it still holds the caller's token,
// so a holder that outlived the TTL cannot free a guard taken over since.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ConfirmationGuard serialises confirmations of a simulation across instances.
// Key format: colisapp:confirm:<simulation_id>, value: the holder's token.
type ConfirmationGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewConfirmationGuard wraps client. The TTL bounds how long a crashed holder
// blocks retries.
func NewConfirmationGuard(client *redis.Client, ttl time.Duration) *ConfirmationGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &ConfirmationGuard{client: client, ttl: ttl}
}

// Acquire reports whether the caller now holds the guard for simulationID and
// returns the token to release it with.
func (g *ConfirmationGuard) Acquire(ctx context.Context, simulationID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key(simulationID), token, g.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("confirmation guard: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the guard if token still owns it. Releasing an expired or
// foreign guard is a no-op.
func (g *ConfirmationGuard) Release(ctx context.Context, simulationID, token string) error {
	if err := releaseScript.Run(ctx, g.client, []string{g.key(simulationID)}, token).Err(); err != nil {
		return fmt.Errorf("confirmation guard release: %w", err)
	}
	return nil
}

func (g *ConfirmationGuard) key(simulationID string) string {
	return keyPrefix + "confirm:" + simulationID
}
