package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vanguardmoney/services/internal/auth"
	"github.com/vanguardmoney/services/internal/middleware"
	"github.com/vanguardmoney/services/internal/models"
)

// AuthWorkflow defines the operations AuthHandler maps onto HTTP.
type AuthWorkflow interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	VerifyToken(ctx context.Context, token string) (*auth.TokenCheck, error)
	GetProfile(ctx context.Context, userID string) (*models.SafeUser, error)
}

// AuthHandler exposes registration, login, token verification and profile
// fetch. Status codes follow the original API: 409 for duplicate email, 401
// for anything credential-shaped, 400 for validation.
type AuthHandler struct {
	workflow AuthWorkflow
}

func NewAuthHandler(workflow AuthWorkflow) *AuthHandler {
	return &AuthHandler{workflow: workflow}
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,min=5,max=255"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"omitempty,max=50"`
	LastName  string `json:"lastName" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SuccessResponse is the envelope for every successful reply.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if details := middleware.ValidateRequest(req); details != nil {
		middleware.RespondWithValidationError(c, details)
		return
	}

	session, err := h.workflow.Register(c.Request.Context(), auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if ve, ok := auth.AsValidationError(err); ok {
			middleware.RespondWithValidationError(c, fieldDetails(ve))
			return
		}
		if errors.Is(err, auth.ErrEmailAlreadyExists) {
			middleware.RespondWithError(c, http.StatusConflict, "EMAIL_ALREADY_EXISTS", "This email is already registered")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register user")
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "User registered successfully",
		Data:    session,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if details := middleware.ValidateRequest(req); details != nil {
		middleware.RespondWithValidationError(c, details)
		return
	}

	session, err := h.workflow.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			middleware.RespondWithError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		case errors.Is(err, auth.ErrUserInactive):
			middleware.RespondWithError(c, http.StatusUnauthorized, "USER_INACTIVE", "User is inactive, contact an administrator")
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to log in")
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Login successful",
		Data:    session,
	})
}

func (h *AuthHandler) VerifyToken(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "NO_TOKEN", "Authorization token required")
		return
	}

	check, err := h.workflow.VerifyToken(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			middleware.RespondWithError(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token expired")
		case errors.Is(err, auth.ErrInvalidToken):
			middleware.RespondWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "TOKEN_VERIFICATION_FAILED", "Failed to verify token")
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Token is valid",
		Data:    check,
	})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "NO_TOKEN", "Authorization token required")
		return
	}

	user, err := h.workflow.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "PROFILE_FETCH_FAILED", "Failed to fetch profile")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Profile fetched successfully",
		Data:    gin.H{"user": user},
	})
}

func fieldDetails(ve *auth.ValidationError) []middleware.FieldDetail {
	details := make([]middleware.FieldDetail, len(ve.Fields))
	for i, f := range ve.Fields {
		details[i] = middleware.FieldDetail{Field: f.Field, Message: f.Message}
	}
	return details
}
