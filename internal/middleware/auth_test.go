package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"murmur/internal/auth"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRequireSession(t *testing.T) {
	tokens := auth.NewTokenIssuer(testSecret)
	valid, err := tokens.Issue("user-1")
	require.NoError(t, err)
	orphan, err := tokens.Issue("user-gone")
	require.NoError(t, err)
	broken, err := tokens.Issue("user-broken")
	require.NoError(t, err)
	foreign, err := auth.NewTokenIssuer("other-secret").Issue("user-1")
	require.NoError(t, err)

	tests := []struct {
		name            string
		cookie          string
		setupMock       func(m *MockUserLookup)
		expectedStatus  int
		expectedMessage string
		expectedUserID  string
	}{
		{
			name:   "Happy Path",
			cookie: valid,
			setupMock: func(m *MockUserLookup) {
				m.On("GetByID", mock.Anything, "user-1").
					Return(&models.User{ID: "user-1", Username: "amy", Password: "digest"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedUserID: "user-1",
		},
		{
			name:            "Missing Cookie",
			setupMock:       func(m *MockUserLookup) {},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: MsgNoToken,
		},
		{
			name:            "Malformed Token",
			cookie:          "malformed.token.here",
			setupMock:       func(m *MockUserLookup) {},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: MsgInvalidToken,
		},
		{
			name:            "Foreign Signature",
			cookie:          foreign,
			setupMock:       func(m *MockUserLookup) {},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: MsgInvalidToken,
		},
		{
			name:   "User Deleted",
			cookie: orphan,
			setupMock: func(m *MockUserLookup) {
				m.On("GetByID", mock.Anything, "user-gone").Return(nil, repository.ErrNotFound)
			},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: MsgUserNotFound,
		},
		{
			name:   "Store Failure",
			cookie: broken,
			setupMock: func(m *MockUserLookup) {
				m.On("GetByID", mock.Anything, "user-broken").Return(nil, errors.New("connection refused"))
			},
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserLookup)
			tt.setupMock(users)

			app := fiber.New()
			app.Get("/test", RequireSession(tokens, users), func(c *fiber.Ctx) error {
				assert.Equal(t, CurrentUserID(c), observability.ExtractUserID(c.UserContext()))
				return c.JSON(CurrentUser(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: tt.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedUserID != "" {
				assert.Equal(t, tt.expectedUserID, body["_id"])
				assert.NotContains(t, body, "password")
			} else {
				assert.Equal(t, tt.expectedMessage, body["error"])
			}

			users.AssertExpectations(t)
			if tt.cookie == "" || tt.expectedMessage == MsgInvalidToken {
				users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestStructuredLoggerAndContext(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-42")
		return c.Next()
	})
	app.Use(ContextMiddleware())
	app.Use(TracingMiddleware())
	app.Use(StructuredLogger())
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(observability.ExtractRequestID(c.UserContext()))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	buf := make([]byte, 16)
	n, _ := resp.Body.Read(buf)
	assert.Equal(t, "req-42", string(buf[:n]))
}
