package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/leadstream/leadstream/internal/config"
	"github.com/leadstream/leadstream/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func newAuthTestApp(t *testing.T) *LeadStreamApp {
	return NewLeadStreamApp(
		http.NewServeMux(),
		testutil.TestLogger(t),
		nil,
		nil,
		nil,
		&config.Config{
			SigningKey: []byte("test-signing-key"),
		},
	)
}

func TestUserId(t *testing.T) {
	tcases := []struct {
		name     string
		ctx      context.Context
		userId   int
		expected bool
	}{
		{
			name:     "no user ID",
			ctx:      context.Background(),
			expected: false,
		},
		{
			name:     "user ID set",
			ctx:      WithUserId(context.Background(), 42),
			userId:   42,
			expected: true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			userId, ok := UserId(tc.ctx)
			assert.Equal(t, tc.expected, ok, "expected UserId to return %v", tc.expected)
			assert.Equal(t, tc.userId, userId, "expected UserId to return %d", tc.userId)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("password")
	assert.NoError(t, err, "expected no error hashing password")
	assert.NotEqual(t, "password", hash, "expected hash to differ from plaintext")

	assert.True(t, verifyPassword(hash, "password"), "expected correct password to verify")
	assert.False(t, verifyPassword(hash, "wrong"), "expected wrong password to fail verification")
}

func TestJwtRoundTrip(t *testing.T) {
	app := newAuthTestApp(t)

	token, err := app.createJwtForSession(42, time.Hour)
	assert.NoError(t, err, "expected no error creating token")
	assert.NotEmpty(t, token)

	userId, err := app.extractUserIdFromToken(token)
	assert.NoError(t, err, "expected no error extracting user id")
	assert.Equal(t, 42, userId)
}

func TestJwtExpired(t *testing.T) {
	app := newAuthTestApp(t)

	token, err := app.createJwtForSession(42, -time.Hour)
	assert.NoError(t, err, "expected no error creating token")

	_, err = app.extractUserIdFromToken(token)
	assert.Error(t, err, "expected error for expired token")
}

func TestJwtWrongKey(t *testing.T) {
	app := newAuthTestApp(t)

	token, err := app.createJwtForSession(42, time.Hour)
	assert.NoError(t, err)

	other := NewLeadStreamApp(
		http.NewServeMux(),
		testutil.TestLogger(t),
		nil,
		nil,
		nil,
		&config.Config{SigningKey: []byte("another-key")},
	)

	_, err = other.extractUserIdFromToken(token)
	assert.Error(t, err, "expected token signed with a different key to be rejected")
}

func Test_createJwtCookie(t *testing.T) {
	cookie := createJwtCookie("token-value", time.Hour)

	assert.Equal(t, tokenCookieKey, cookie.Name)
	assert.Equal(t, "token-value", cookie.Value)
	assert.True(t, cookie.HttpOnly, "expected cookie to be http-only")
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.True(t, cookie.Expires.After(time.Now()), "expected cookie to expire in the future")
}
