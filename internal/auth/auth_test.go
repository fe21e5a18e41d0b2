package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestPasswordHasher(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	digest, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", digest)
	assert.True(t, h.Verify("hunter22", digest))
	assert.False(t, h.Verify("hunter23", digest))

	again, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, digest, again, "salt must differ per call")
}

func TestPasswordHasher_VerifyIsNullSafe(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("anything", ""))
	assert.False(t, h.Verify("anything", "not-a-bcrypt-digest"))
}

func TestNewPasswordHasher_DefaultCost(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, DefaultCost, NewPasswordHasher(99).cost)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()
	issuer := NewTokenIssuer(testSecret)

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	userID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	claims := &SessionClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.WithinDuration(t, claims.IssuedAt.Add(SessionTTL), claims.ExpiresAt.Time, time.Second)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	t.Parallel()
	issuer := NewTokenIssuer(testSecret)

	expired := NewTokenIssuer(testSecret)
	expired.now = func() time.Time { return time.Now().Add(-SessionTTL - time.Hour) }
	expiredToken, err := expired.Issue("user-1")
	require.NoError(t, err)

	foreignToken, err := NewTokenIssuer("another-secret").Issue("user-1")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "Expired", token: expiredToken},
		{name: "Wrong Secret", token: foreignToken},
		{name: "None Algorithm", token: noneToken},
		{name: "Missing User", token: noUser},
		{name: "Malformed", token: "malformed.token.here"},
		{name: "Empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenIssuer_IssueRequiresUser(t *testing.T) {
	t.Parallel()
	_, err := NewTokenIssuer(testSecret).Issue("")
	assert.Error(t, err)
}

func TestSessionCookie(t *testing.T) {
	t.Parallel()
	app := fiber.New()
	app.Get("/set", func(c *fiber.Ctx) error {
		SetSessionCookie(c, "abc", true)
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/clear", func(c *fiber.Ctx) error {
		ClearSessionCookie(c, false)
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/read", func(c *fiber.Ctx) error {
		return c.SendString(SessionToken(c))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/set", nil))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	assert.Equal(t, int(SessionTTL.Seconds()), cookies[0].MaxAge)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/clear", nil))
	require.NoError(t, err)
	cookies = resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.False(t, cookies[0].Secure)
	assert.True(t, cookies[0].Expires.Before(time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	buf := make([]byte, 3)
	n, _ := resp.Body.Read(buf)
	assert.Equal(t, "tok", string(buf[:n]))
}
