package handlers

import (
	"errors"
	"net/http"
	"time"

	userRepo "github.com/mouhaned372/facture-digitalisation/database/repository/user"
	"github.com/mouhaned372/facture-digitalisation/models"
	"github.com/mouhaned372/facture-digitalisation/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 30 * 24 * time.Hour

// AuthHandler exposes registration, login and device-token endpoints.
type AuthHandler struct {
	Users userRepo.UserRepository
}

func NewAuthHandler(users userRepo.UserRepository) *AuthHandler {
	return &AuthHandler{Users: users}
}

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

// RegisterHandler handles POST /auth/register.
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	logger := utils.GetLogger()

	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid registration payload", err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Registration failed", "")
		return
	}

	user := &models.User{
		Email:    creds.Email,
		Password: string(hash),
		Name:     creds.Name,
	}
	if err := h.Users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, userRepo.ErrEmailTaken) {
			utils.JSONError(c, http.StatusConflict, "Email already registered", "")
			return
		}
		logger.Error("failed to create user", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Registration failed", "")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, tokenTTL)
	if err != nil {
		logger.Error("failed to issue token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Registration failed", "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// LoginHandler handles POST /auth/login.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid login payload", err.Error())
		return
	}

	user, err := h.Users.GetByEmail(c.Request.Context(), creds.Email)
	if err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "Invalid email or password", "")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "Invalid email or password", "")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, tokenTTL)
	if err != nil {
		utils.GetLogger().Error("failed to issue token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Login failed", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// UpdateFCMTokenHandler handles PUT /users/fcm-token, registering the device
// token used for overdue push notifications.
func (h *AuthHandler) UpdateFCMTokenHandler(c *gin.Context) {
	var body struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := h.Users.UpdateFCMToken(c.Request.Context(), authUserID(c), body.Token); err != nil {
		if errors.Is(err, userRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "User not found", "")
			return
		}
		utils.GetLogger().Error("failed to update fcm token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to update token", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated"})
}
