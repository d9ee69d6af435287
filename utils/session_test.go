package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		ctx.Request.AddCookie(c)
	}
	return ctx, w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSessionCodec_RoundTrip(t *testing.T) {
	codec := NewSessionCodec("secret", 31*24*time.Hour, false)

	ctx, w := testContext()
	s := codec.Load(ctx)
	assert.False(t, s.LoggedIn)
	assert.NotEmpty(t, s.ID)

	s.LogIn()
	s.Flash("success", "You are now logged in.")
	require.NoError(t, codec.Save(ctx, s))

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 31*24*3600, cookie.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	ctx, _ = testContext(cookie)
	loaded := codec.Load(ctx)
	assert.True(t, loaded.LoggedIn)
	assert.True(t, loaded.Permanent)
	assert.Equal(t, s.ID, loaded.ID)
	assert.WithinDuration(t, time.Now().Add(31*24*time.Hour), loaded.ExpiresAt, time.Minute)
	assert.Equal(t, []Flash{{Category: "success", Message: "You are now logged in."}}, loaded.TakeFlashes())
	assert.Empty(t, loaded.TakeFlashes())
	assert.True(t, loaded.Modified())
}

func TestSessionCodec_UnmodifiedSessionWritesNothing(t *testing.T) {
	codec := NewSessionCodec("secret", time.Hour, false)
	ctx, w := testContext()
	require.NoError(t, codec.Save(ctx, codec.Load(ctx)))
	assert.Nil(t, sessionCookie(t, w))
}

func TestSessionCodec_RejectsForgedCookies(t *testing.T) {
	codec := NewSessionCodec("secret", time.Hour, false)
	ctx, w := testContext()
	s := codec.Load(ctx)
	s.LogIn()
	require.NoError(t, codec.Save(ctx, s))
	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)

	tampered := *cookie
	tampered.Value += "x"
	ctx, _ = testContext(&tampered)
	assert.False(t, codec.Load(ctx).LoggedIn)

	other := NewSessionCodec("another-secret", time.Hour, false)
	ctx, _ = testContext(cookie)
	assert.False(t, other.Load(ctx).LoggedIn)

	ctx, _ = testContext(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
	assert.False(t, codec.Load(ctx).LoggedIn)
}

func TestSessionCodec_ClearDeletesCookie(t *testing.T) {
	codec := NewSessionCodec("secret", time.Hour, false)
	ctx, w := testContext()
	s := codec.Load(ctx)
	s.LogIn()
	id := s.ID
	s.Clear()
	assert.NotEqual(t, id, s.ID)
	require.NoError(t, codec.Save(ctx, s))

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestSessionCodec_FlashOnlySessionIsNotPermanent(t *testing.T) {
	codec := NewSessionCodec("secret", time.Hour, false)
	ctx, w := testContext()
	s := codec.Load(ctx)
	s.Flash("danger", "Incorrect password.")
	require.NoError(t, codec.Save(ctx, s))

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	assert.Zero(t, cookie.MaxAge)

	ctx, _ = testContext(cookie)
	loaded := codec.Load(ctx)
	assert.False(t, loaded.LoggedIn)
	assert.Len(t, loaded.Flashes, 1)
}

func TestRevokedSessionIsRejected(t *testing.T) {
	run := func(t *testing.T) {
		codec := NewSessionCodec("secret", time.Hour, false)
		ctx, w := testContext()
		s := codec.Load(ctx)
		s.LogIn()
		require.NoError(t, codec.Save(ctx, s))
		cookie := sessionCookie(t, w)
		require.NotNil(t, cookie)

		RevokeSession(context.Background(), s.ID, codec.RevocationDeadline(s))
		assert.True(t, IsSessionRevoked(context.Background(), s.ID))
		assert.False(t, IsSessionRevoked(context.Background(), "someone-else"))

		ctx, _ = testContext(cookie)
		assert.False(t, codec.Load(ctx).LoggedIn)
	}

	t.Run("in memory", run)

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		UseRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		t.Cleanup(func() { UseRedis(nil) })
		run(t)
		assert.NotEmpty(t, mr.Keys())
	})
}

func TestRevokeSession_ExpiredDeadlineIsIgnored(t *testing.T) {
	RevokeSession(context.Background(), "stale", time.Now().Add(-time.Minute))
	assert.False(t, IsSessionRevoked(context.Background(), "stale"))
}
