//go:build integration

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/promo-storefront/internal/cart"
)

func TestStoreIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := testcontainers.Run(ctx, "redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(wait.ForLog("Ready to accept connections")),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	s, err := New(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Load(ctx, cart.Namespace)
	require.ErrorIs(t, err, cart.ErrRecordNotFound)

	c, err := cart.Open(ctx, s)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, cart.ProductRef{ID: 1, Name: "Taza"}, 2))

	data, err := s.Load(ctx, cart.Namespace)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"Taza","price":0,"qty":2}]`, string(data))
}
