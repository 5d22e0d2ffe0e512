package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/promo-storefront/internal/cart"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Load(ctx, "cart")
	require.ErrorIs(t, err, cart.ErrRecordNotFound)

	buf := []byte(`[]`)
	require.NoError(t, s.Save(ctx, "cart", buf))
	buf[0] = 'x'

	data, err := s.Load(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data), "stored value must not alias the caller's slice")
}
