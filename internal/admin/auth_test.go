package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostingbot/internal/model"
)

func testServer(secret string) *Server {
	return &Server{
		jwtSecret:  []byte(secret),
		sessionTTL: time.Hour,
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	s := testServer("test-secret")
	user := &model.User{ID: 42, Username: "staff"}

	token, err := s.issueToken(user, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := s.verifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "staff", claims.Username)
}

func TestSessionTokenExpired(t *testing.T) {
	s := testServer("test-secret")
	user := &model.User{ID: 1, Username: "staff"}

	token, err := s.issueToken(user, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = s.verifyToken(token)
	assert.Error(t, err)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	user := &model.User{ID: 1, Username: "staff"}

	token, err := testServer("secret-a").issueToken(user, time.Now())
	require.NoError(t, err)

	_, err = testServer("secret-b").verifyToken(token)
	assert.Error(t, err)
}

func TestSessionTokenGarbage(t *testing.T) {
	_, err := testServer("test-secret").verifyToken("not-a-token")
	assert.Error(t, err)
}
