package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"storefront-backend/middleware"
	"storefront-backend/models"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthServiceAPI is the auth surface the user routes need.
type AuthServiceAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateInfo(ctx context.Context, id uuid.UUID, password, name, phoneNumber string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword, confirmPassword string) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

type RegisterUserRequest struct {
	Name        string `form:"name" validate:"required"`
	Email       string `form:"email" validate:"required,email"`
	Password    string `form:"password" validate:"required,min=6"`
	PhoneNumber string `form:"phoneNumber"`
	Address     string `form:"address"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserInfoRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password" binding:"required"`
	Name        string `json:"name" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
}

type UpdatePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type UserController struct {
	Auth      AuthServiceAPI
	UploadDir string
	Logger    *zap.Logger

	validate *validator.Validate
}

func NewUserController(auth AuthServiceAPI, uploadDir string, logger *zap.Logger) *UserController {
	return &UserController{
		Auth:      auth,
		UploadDir: uploadDir,
		Logger:    logger,
		validate:  validator.New(),
	}
}

// Register creates an account from a multipart form with a required avatar
// upload. The stored avatar is removed again when registration fails.
func (uc *UserController) Register(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
		return
	}
	if err := uc.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}

	avatar := fmt.Sprintf("%s-%d%s",
		filenameStem(file.Filename), time.Now().UnixNano(), filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(uc.UploadDir, avatar)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store avatar"})
		return
	}

	_, err = uc.Auth.Register(c.Request.Context(), services.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Avatar:      avatar,
	})
	if err != nil {
		if removeErr := os.Remove(filepath.Join(uc.UploadDir, avatar)); removeErr != nil {
			uc.Logger.Warn("Failed to remove avatar after failed registration", zap.Error(removeErr))
		}
		if errors.Is(err, services.ErrUserExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
			return
		}
		uc.Logger.Error("Error registering user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully!",
	})
}

// Login authenticates and sets the token cookie.
func (uc *UserController) Login(c *gin.Context) {
	var req LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide all fields!"})
		return
	}

	token, user, err := uc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
			return
		}
		uc.Logger.Error("Error logging in", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.SetCookie("token", token, 3600, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful!",
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
		"token": token,
	})
}

// GetUser returns the authenticated user.
func (uc *UserController) GetUser(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func (uc *UserController) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout successful!",
	})
}

func (uc *UserController) UpdateUserInfo(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
		return
	}

	var req UpdateUserInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	err := uc.Auth.UpdateInfo(c.Request.Context(), user.ID, req.Password, req.Name, req.PhoneNumber)
	if err != nil {
		uc.respondAuthError(c, "Error updating user info", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User information updated successfully!",
	})
}

func (uc *UserController) UpdatePassword(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	err := uc.Auth.UpdatePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Old password is incorrect!"})
			return
		}
		if errors.Is(err, services.ErrPasswordMismatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match!"})
			return
		}
		uc.respondAuthError(c, "Error updating password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password updated successfully!",
	})
}

// GetUserByID looks up any user by ID.
func (uc *UserController) GetUserByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := uc.Auth.GetUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User not found"})
			return
		}
		uc.Logger.Error("Error fetching user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

// AdminListUsers returns all users, newest first. Admin only.
func (uc *UserController) AdminListUsers(c *gin.Context) {
	users, err := uc.Auth.ListUsers(c.Request.Context())
	if err != nil {
		uc.Logger.Error("Error listing users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
	})
}

func (uc *UserController) respondAuthError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User doesn't exist"})
	default:
		uc.Logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func filenameStem(name string) string {
	base := filepath.Base(name)
	return base[:len(base)-len(filepath.Ext(base))]
}
