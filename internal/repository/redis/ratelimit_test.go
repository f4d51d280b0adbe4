package redis

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLimiterKeys(t *testing.T) {
	l := NewLoginLimiter(nil, clockwork.NewFakeClock(), 5, time.Minute)

	assert.Equal(t, []string{
		"sellbook:v1:login:client:10.0.0.1",
		"sellbook:v1:login:account:admin@example.com",
	}, l.keys(" 10.0.0.1 ", " Admin@Example.com "))
	assert.Equal(t, []string{"sellbook:v1:login:client:10.0.0.1"}, l.keys("10.0.0.1", "  "))
	assert.Empty(t, l.keys("", ""))
}

func TestLoginLimiterAllowsWithoutSubjects(t *testing.T) {
	l := NewLoginLimiter(nil, clockwork.NewFakeClock(), 5, time.Minute)

	v, err := l.Attempt(context.Background(), "", "")
	require.NoError(t, err)
	assert.True(t, v.Allowed)

	require.NoError(t, l.Clear(context.Background(), " "))
}

func TestLoginLimiterDisabled(t *testing.T) {
	l := NewLoginLimiter(nil, clockwork.NewFakeClock(), 0, time.Minute)

	v, err := l.Attempt(context.Background(), "10.0.0.1", "admin@example.com")
	require.NoError(t, err)
	assert.True(t, v.Allowed)
}

func TestKeyCreateReplayIsScopedToSubject(t *testing.T) {
	assert.NotEqual(t, KeyCreateReplay("a@example.com", "k1"), KeyCreateReplay("b@example.com", "k1"))
	assert.Equal(t, "sellbook:v1:statistics:this-week", KeyStatistics("this-week"))
}
