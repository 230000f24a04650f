//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/infrastructure/events"
)

// go test -tags integration ./internal/infrastructure/events/...
func TestRedisPublisher_LPush(t *testing.T) {
	ctx := context.Background()

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := events.NewRedis(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	pub := events.NewRedisPublisher(rdb, "")
	for _, typ := range []string{inventory.EventMovementRecorded, inventory.EventLowStockDetected} {
		require.NoError(t, pub.Publish(ctx, inventory.Event{Type: typ, ItemID: "i1", ClinicID: "c1", OccurredAt: time.Now()}))
	}

	n, err := rdb.LLen(ctx, events.DefaultEventList).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// BRPOP entrega en orden de llegada
	res, err := rdb.BRPop(ctx, time.Second, events.DefaultEventList).Result()
	require.NoError(t, err)
	var env struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal([]byte(res[1]), &env))
	assert.Equal(t, inventory.EventMovementRecorded, env.Type)
}
