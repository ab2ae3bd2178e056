package api

import (
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenHolderRaceSafety(t *testing.T) {
	holder := NewTokenHolder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			holder.Set("tok")
			holder.Clear()
		}()
		go func() {
			defer wg.Done()
			_ = holder.Token()
		}()
	}
	wg.Wait()
	holder.Set("final")
	assert.Equal(t, "final", holder.Token())
}

func TestTokenHolderExpiresAt(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ada@vitta.com",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)

	holder := NewTokenHolder()
	holder.Set(signed)

	got, ok := holder.ExpiresAt()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
}

func TestTokenHolderExpiresAtHandlesOpaqueTokens(t *testing.T) {
	holder := NewTokenHolder()

	_, ok := holder.ExpiresAt()
	assert.False(t, ok, "no token held")

	holder.Set("not-a-jwt")
	_, ok = holder.ExpiresAt()
	assert.False(t, ok, "opaque tokens have no readable expiry")
}
