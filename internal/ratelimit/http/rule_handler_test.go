package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
	"github.com/allisson/controlplane/internal/ratelimit/http/dto"
)

// MockRuleUseCase is a mock implementation of RuleUseCase for testing.
type MockRuleUseCase struct {
	mock.Mock
}

func (m *MockRuleUseCase) CreateRule(ctx context.Context, rule *ratelimitDomain.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleUseCase) UpdateRule(ctx context.Context, rule *ratelimitDomain.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleUseCase) GetRule(ctx context.Context, name string) (*ratelimitDomain.Rule, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ratelimitDomain.Rule), args.Error(1)
}

func (m *MockRuleUseCase) ListRules(
	ctx context.Context,
	offset, limit int,
) ([]*ratelimitDomain.Rule, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ratelimitDomain.Rule), args.Error(1)
}

func (m *MockRuleUseCase) DeleteRule(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// setupRuleTestHandler creates a test rule handler with mocked dependencies.
func setupRuleTestHandler(t *testing.T) (*RuleHandler, *MockRuleUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &MockRuleUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewRuleHandler(mockUseCase, logger)

	return handler, mockUseCase
}

func storedRule(name string) *ratelimitDomain.Rule {
	now := time.Now().UTC()
	return &ratelimitDomain.Rule{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      name,
		Scope:     ratelimitDomain.ScopeUser,
		Algorithm: ratelimitDomain.AlgorithmFixedWindow,
		Limit:     100,
		Window:    time.Minute,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func validRuleRequest(name string) dto.RuleRequest {
	return dto.RuleRequest{
		Name:          name,
		Scope:         "user",
		Algorithm:     "fixed-window",
		Limit:         100,
		WindowSeconds: 60,
	}
}

func TestRuleHandler_CreateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		var created *ratelimitDomain.Rule
		mockUseCase.On("CreateRule", mock.Anything, mock.AnythingOfType("*domain.Rule")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*ratelimitDomain.Rule)
			}).
			Return(nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/ratelimit/rules", validRuleRequest("api-default"))

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "api-default", created.Name)
		assert.Equal(t, ratelimitDomain.ScopeUser, created.Scope)
		assert.Equal(t, ratelimitDomain.AlgorithmFixedWindow, created.Algorithm)
		assert.Equal(t, int64(100), created.Limit)
		assert.Equal(t, time.Minute, created.Window)
		assert.True(t, created.Enabled)

		var response dto.RuleResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "api-default", response.Name)
		assert.Equal(t, int64(60), response.WindowSeconds)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_DisabledRule", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		var created *ratelimitDomain.Rule
		mockUseCase.On("CreateRule", mock.Anything, mock.AnythingOfType("*domain.Rule")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*ratelimitDomain.Rule)
			}).
			Return(nil).
			Once()

		disabled := false
		request := validRuleRequest("api-default")
		request.Enabled = &disabled
		c, w := createTestContext(http.MethodPost, "/v1/ratelimit/rules", request)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.False(t, created.Enabled)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_DuplicateName", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		mockUseCase.On("CreateRule", mock.Anything, mock.AnythingOfType("*domain.Rule")).
			Return(ratelimitDomain.ErrRuleExists).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/ratelimit/rules", validRuleRequest("api-default"))

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_UnknownScope", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		request := validRuleRequest("api-default")
		request.Scope = "tenant"
		c, w := createTestContext(http.MethodPost, "/v1/ratelimit/rules", request)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "CreateRule")
	})

	t.Run("Error_ZeroLimit", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		request := validRuleRequest("api-default")
		request.Limit = 0
		c, w := createTestContext(http.MethodPost, "/v1/ratelimit/rules", request)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "CreateRule")
	})
}

func TestRuleHandler_UpdateHandler(t *testing.T) {
	t.Run("Success_URLNameWins", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		var updated *ratelimitDomain.Rule
		mockUseCase.On("UpdateRule", mock.Anything, mock.AnythingOfType("*domain.Rule")).
			Run(func(args mock.Arguments) {
				updated = args.Get(1).(*ratelimitDomain.Rule)
			}).
			Return(nil).
			Once()
		mockUseCase.On("GetRule", mock.Anything, "api-default").
			Return(storedRule("api-default"), nil).
			Once()

		c, w := createTestContext(
			http.MethodPut, "/v1/ratelimit/rules/api-default", validRuleRequest("other-name"),
		)
		c.Params = gin.Params{{Key: "name", Value: "api-default"}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "api-default", updated.Name)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		mockUseCase.On("UpdateRule", mock.Anything, mock.AnythingOfType("*domain.Rule")).
			Return(ratelimitDomain.ErrRuleNotFound).
			Once()

		c, w := createTestContext(
			http.MethodPut, "/v1/ratelimit/rules/missing", validRuleRequest("missing"),
		)
		c.Params = gin.Params{{Key: "name", Value: "missing"}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestRuleHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		mockUseCase.On("GetRule", mock.Anything, "api-default").
			Return(storedRule("api-default"), nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/ratelimit/rules/api-default", nil)
		c.Params = gin.Params{{Key: "name", Value: "api-default"}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.RuleResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "api-default", response.Name)
		assert.Equal(t, "user", response.Scope)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		mockUseCase.On("GetRule", mock.Anything, "missing").
			Return(nil, ratelimitDomain.ErrRuleNotFound).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/ratelimit/rules/missing", nil)
		c.Params = gin.Params{{Key: "name", Value: "missing"}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidName", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/ratelimit/rules/bad--name", nil)
		c.Params = gin.Params{{Key: "name", Value: "bad  name"}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "GetRule")
	})
}

func TestRuleHandler_ListHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		rules := []*ratelimitDomain.Rule{storedRule("api-default"), storedRule("login-attempts")}
		mockUseCase.On("ListRules", mock.Anything, 0, 50).
			Return(rules, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/ratelimit/rules", nil)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListRulesResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 2)

		mockUseCase.AssertExpectations(t)
	})
}

func TestRuleHandler_DeleteHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		mockUseCase.On("DeleteRule", mock.Anything, "api-default").
			Return(nil).
			Once()

		c, w := createTestContext(http.MethodDelete, "/v1/ratelimit/rules/api-default", nil)
		c.Params = gin.Params{{Key: "name", Value: "api-default"}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupRuleTestHandler(t)

		mockUseCase.On("DeleteRule", mock.Anything, "missing").
			Return(ratelimitDomain.ErrRuleNotFound).
			Once()

		c, w := createTestContext(http.MethodDelete, "/v1/ratelimit/rules/missing", nil)
		c.Params = gin.Params{{Key: "name", Value: "missing"}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}
