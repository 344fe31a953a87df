package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-backend/models"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}
func (m *MockAuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockAuthService) UpdateInfo(ctx context.Context, id uuid.UUID, password, name, phoneNumber string) error {
	args := m.Called(ctx, id, password, name, phoneNumber)
	return args.Error(0)
}
func (m *MockAuthService) UpdatePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword, confirmPassword string) error {
	args := m.Called(ctx, id, oldPassword, newPassword, confirmPassword)
	return args.Error(0)
}
func (m *MockAuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

const testUploadDir = "testdata"

func newUserRouter(svc *MockAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewUserController(svc, testUploadDir, zap.NewNop())
	router := gin.New()
	router.POST("/api/login", controller.Login)
	router.GET("/api/logout", controller.Logout)
	router.GET("/api/user/:id", controller.GetUserByID)
	return router
}

func TestLoginRoute(t *testing.T) {
	t.Run("success sets the token cookie", func(t *testing.T) {
		svc := new(MockAuthService)
		router := newUserRouter(svc)

		user := &models.User{ID: uuid.New(), Name: "Test", Email: "test@example.com"}
		svc.On("Login", mock.Anything, "test@example.com", "secret123").
			Return("signed-token", user, nil).Once()

		payload := `{"email":"test@example.com","password":"secret123"}`
		req, _ := http.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Login successful!")

		cookies := recorder.Result().Cookies()
		assert.Len(t, cookies, 1)
		assert.Equal(t, "token", cookies[0].Name)
		assert.Equal(t, "signed-token", cookies[0].Value)
		svc.AssertExpectations(t)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		svc := new(MockAuthService)
		router := newUserRouter(svc)

		svc.On("Login", mock.Anything, "test@example.com", "wrong").
			Return("", nil, services.ErrInvalidCredentials).Once()

		payload := `{"email":"test@example.com","password":"wrong"}`
		req, _ := http.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Invalid credentials")
	})

	t.Run("missing password never reaches the service", func(t *testing.T) {
		svc := new(MockAuthService)
		router := newUserRouter(svc)

		payload := `{"email":"test@example.com"}`
		req, _ := http.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		svc.AssertNotCalled(t, "Login")
	})
}

func TestLogoutRoute(t *testing.T) {
	router := newUserRouter(new(MockAuthService))

	req, _ := http.NewRequest(http.MethodGet, "/api/logout", nil)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	cookies := recorder.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestGetUserByIDRoute(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := new(MockAuthService)
		router := newUserRouter(svc)

		id := uuid.New()
		svc.On("GetUser", mock.Anything, id).
			Return(&models.User{ID: id, Name: "Test", Email: "test@example.com"}, nil).Once()

		req, _ := http.NewRequest(http.MethodGet, "/api/user/"+id.String(), nil)
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "test@example.com")
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockAuthService)
		router := newUserRouter(svc)

		id := uuid.New()
		svc.On("GetUser", mock.Anything, id).Return(nil, services.ErrUserNotFound).Once()

		req, _ := http.NewRequest(http.MethodGet, "/api/user/"+id.String(), nil)
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "User not found")
	})

	t.Run("malformed id", func(t *testing.T) {
		svc := new(MockAuthService)
		router := newUserRouter(svc)

		req, _ := http.NewRequest(http.MethodGet, "/api/user/not-a-uuid", nil)
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		svc.AssertNotCalled(t, "GetUser")
	})
}
