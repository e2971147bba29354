package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
	"github.com/allisson/controlplane/internal/accesscontrol/http/dto"
)

// MockTokenUseCase is a mock implementation of TokenUseCase for testing.
type MockTokenUseCase struct {
	mock.Mock
}

func (m *MockTokenUseCase) Issue(
	ctx context.Context,
	input *accessDomain.IssueTokenInput,
) (*accessDomain.IssueTokenOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accessDomain.IssueTokenOutput), args.Error(1)
}

func (m *MockTokenUseCase) Authenticate(
	ctx context.Context,
	tokenHash string,
) (*accessDomain.Client, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accessDomain.Client), args.Error(1)
}

func (m *MockTokenUseCase) CleanExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// setupTokenTestHandler creates a test token handler with mocked dependencies.
func setupTokenTestHandler(t *testing.T) (*TokenHandler, *MockTokenUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockTokenUseCase := &MockTokenUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewTokenHandler(mockTokenUseCase, logger)

	return handler, mockTokenUseCase
}

// createTestContext creates a test Gin context with the given request.
func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func TestTokenHandler_IssueHandler(t *testing.T) {
	t.Run("Success_ValidCredentials", func(t *testing.T) {
		handler, mockUseCase := setupTokenTestHandler(t)

		clientID := uuid.Must(uuid.NewV7())
		expiresAt := time.Now().UTC().Add(time.Hour)

		request := dto.IssueTokenRequest{
			ClientID:     clientID.String(),
			ClientSecret: "test_secret_123",
		}

		mockUseCase.On("Issue", mock.Anything, &accessDomain.IssueTokenInput{
			ClientID:     clientID,
			ClientSecret: "test_secret_123",
		}).
			Return(&accessDomain.IssueTokenOutput{
				PlainToken: "tok_1234567890abcdef",
				ExpiresAt:  expiresAt,
			}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/token", request)

		handler.IssueHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.IssueTokenResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "tok_1234567890abcdef", response.AccessToken)
		assert.Equal(t, "Bearer", response.TokenType)
		assert.Equal(t, expiresAt.Unix(), response.ExpiresAt.Unix())

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTokenTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/auth/token", nil)
		c.Request.Body = io.NopCloser(bytes.NewReader([]byte("invalid json")))

		handler.IssueHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "validation_error", response["error"])
	})

	t.Run("Error_InvalidUUIDFormat", func(t *testing.T) {
		handler, _ := setupTokenTestHandler(t)

		request := dto.IssueTokenRequest{
			ClientID:     "not-a-uuid",
			ClientSecret: "test_secret_123",
		}

		c, w := createTestContext(http.MethodPost, "/v1/auth/token", request)

		handler.IssueHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_MissingClientSecret", func(t *testing.T) {
		handler, _ := setupTokenTestHandler(t)

		request := dto.IssueTokenRequest{
			ClientID:     uuid.Must(uuid.NewV7()).String(),
			ClientSecret: "",
		}

		c, w := createTestContext(http.MethodPost, "/v1/auth/token", request)

		handler.IssueHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_InvalidCredentials", func(t *testing.T) {
		handler, mockUseCase := setupTokenTestHandler(t)

		request := dto.IssueTokenRequest{
			ClientID:     uuid.Must(uuid.NewV7()).String(),
			ClientSecret: "wrong_secret",
		}

		mockUseCase.On("Issue", mock.Anything, mock.AnythingOfType("*domain.IssueTokenInput")).
			Return(nil, accessDomain.ErrInvalidCredentials).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/token", request)

		handler.IssueHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "unauthorized", response["error"])

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_ClientInactive", func(t *testing.T) {
		handler, mockUseCase := setupTokenTestHandler(t)

		request := dto.IssueTokenRequest{
			ClientID:     uuid.Must(uuid.NewV7()).String(),
			ClientSecret: "test_secret_123",
		}

		mockUseCase.On("Issue", mock.Anything, mock.AnythingOfType("*domain.IssueTokenInput")).
			Return(nil, accessDomain.ErrClientInactive).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/token", request)

		handler.IssueHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_RepositoryError", func(t *testing.T) {
		handler, mockUseCase := setupTokenTestHandler(t)

		request := dto.IssueTokenRequest{
			ClientID:     uuid.Must(uuid.NewV7()).String(),
			ClientSecret: "test_secret_123",
		}

		mockUseCase.On("Issue", mock.Anything, mock.AnythingOfType("*domain.IssueTokenInput")).
			Return(nil, errors.New("database connection failed")).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/token", request)

		handler.IssueHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "internal_error", response["error"])

		mockUseCase.AssertExpectations(t)
	})
}
