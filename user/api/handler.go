package api

import (
	"net/http"

	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/pkg/jwt"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/user/models"
	"leadmsg/backend/user/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users *service.UserService
	jwt   *jwt.Service
	log   *logger.Logger
}

func NewAuthHandler(users *service.UserService, jwtService *jwt.Service, log *logger.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwtService, log: log}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err.Error()))
		return
	}

	user, err := h.users.Signup(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		c.Error(errors.NewInternalServerError("TOKEN_ERROR", "failed to issue token"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":  user.ToResponse(),
		"token": token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err.Error()))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		c.Error(errors.NewInternalServerError("TOKEN_ERROR", "failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user.ToResponse(),
		"token": token,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.Error(errors.NewUnauthenticatedError("Authentication required"))
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}

// RegisterRoutes registers auth endpoints on the given group.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	authRoutes := rg.Group("/auth")
	{
		authRoutes.POST("/signup", h.Signup)
		authRoutes.POST("/login", h.Login)
		authRoutes.GET("/me", auth, h.Me)
	}
}
