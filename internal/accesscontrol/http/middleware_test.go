package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
	accessService "github.com/allisson/controlplane/internal/accesscontrol/service"
)

func operatorClient() *accessDomain.Client {
	return &accessDomain.Client{
		ID:       uuid.Must(uuid.NewV7()),
		Name:     "test-client",
		Role:     accessDomain.RoleOperator,
		IsActive: true,
	}
}

// performAuthRequest runs a GET through a router with the authentication
// middleware installed, optionally followed by a role requirement.
func performAuthRequest(
	t *testing.T,
	mockTokenUseCase *MockTokenUseCase,
	authorization string,
	requiredRole accessDomain.Role,
) *httptest.ResponseRecorder {
	t.Helper()

	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokenService := accessService.NewTokenService()

	router := gin.New()
	router.Use(AuthenticationMiddleware(mockTokenUseCase, tokenService, logger))
	if requiredRole != "" {
		router.Use(RequireRole(requiredRole, logger))
	}
	router.GET("/v1/protected", func(c *gin.Context) {
		client, ok := GetClient(c.Request.Context())
		assert.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"client": client.Name})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(w, req)

	return w
}

func TestAuthenticationMiddleware_Success(t *testing.T) {
	mockTokenUseCase := &MockTokenUseCase{}
	tokenService := accessService.NewTokenService()
	client := operatorClient()

	mockTokenUseCase.On("Authenticate", mock.Anything, tokenService.HashToken("valid-token")).
		Return(client, nil).
		Once()

	w := performAuthRequest(t, mockTokenUseCase, "Bearer valid-token", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-client")
	mockTokenUseCase.AssertExpectations(t)
}

func TestAuthenticationMiddleware_CaseInsensitiveScheme(t *testing.T) {
	mockTokenUseCase := &MockTokenUseCase{}
	tokenService := accessService.NewTokenService()

	mockTokenUseCase.On("Authenticate", mock.Anything, tokenService.HashToken("valid-token")).
		Return(operatorClient(), nil).
		Once()

	w := performAuthRequest(t, mockTokenUseCase, "bearer valid-token", "")

	assert.Equal(t, http.StatusOK, w.Code)
	mockTokenUseCase.AssertExpectations(t)
}

func TestAuthenticationMiddleware_MissingHeader(t *testing.T) {
	mockTokenUseCase := &MockTokenUseCase{}

	w := performAuthRequest(t, mockTokenUseCase, "", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockTokenUseCase.AssertNotCalled(t, "Authenticate")
}

func TestAuthenticationMiddleware_MalformedHeader(t *testing.T) {
	mockTokenUseCase := &MockTokenUseCase{}

	w := performAuthRequest(t, mockTokenUseCase, "Basic dXNlcjpwYXNz", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockTokenUseCase.AssertNotCalled(t, "Authenticate")
}

func TestAuthenticationMiddleware_EmptyBearerToken(t *testing.T) {
	mockTokenUseCase := &MockTokenUseCase{}

	w := performAuthRequest(t, mockTokenUseCase, "Bearer ", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockTokenUseCase.AssertNotCalled(t, "Authenticate")
}

func TestAuthenticationMiddleware_InvalidToken(t *testing.T) {
	mockTokenUseCase := &MockTokenUseCase{}
	mockTokenUseCase.On("Authenticate", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, accessDomain.ErrInvalidCredentials).
		Once()

	w := performAuthRequest(t, mockTokenUseCase, "Bearer expired-token", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockTokenUseCase.AssertExpectations(t)
}

func TestAuthenticationMiddleware_InactiveClient(t *testing.T) {
	mockTokenUseCase := &MockTokenUseCase{}
	mockTokenUseCase.On("Authenticate", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, accessDomain.ErrClientInactive).
		Once()

	w := performAuthRequest(t, mockTokenUseCase, "Bearer valid-token", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockTokenUseCase.AssertExpectations(t)
}

func TestRequireRole_SufficientRole(t *testing.T) {
	mockTokenUseCase := &MockTokenUseCase{}
	mockTokenUseCase.On("Authenticate", mock.Anything, mock.AnythingOfType("string")).
		Return(operatorClient(), nil).
		Once()

	// Operator satisfies a reader requirement.
	w := performAuthRequest(t, mockTokenUseCase, "Bearer valid-token", accessDomain.RoleReader)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_ExactRole(t *testing.T) {
	mockTokenUseCase := &MockTokenUseCase{}
	mockTokenUseCase.On("Authenticate", mock.Anything, mock.AnythingOfType("string")).
		Return(operatorClient(), nil).
		Once()

	w := performAuthRequest(t, mockTokenUseCase, "Bearer valid-token", accessDomain.RoleOperator)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_InsufficientRole(t *testing.T) {
	mockTokenUseCase := &MockTokenUseCase{}
	mockTokenUseCase.On("Authenticate", mock.Anything, mock.AnythingOfType("string")).
		Return(operatorClient(), nil).
		Once()

	// Operator does not satisfy an admin requirement.
	w := performAuthRequest(t, mockTokenUseCase, "Bearer valid-token", accessDomain.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetClient_RoundTrip(t *testing.T) {
	client := operatorClient()

	ctx := WithClient(t.Context(), client)

	got, ok := GetClient(ctx)
	assert.True(t, ok)
	assert.Equal(t, client, got)

	_, ok = GetClient(t.Context())
	assert.False(t, ok)
}
