package handlers

import (
	"hospital-admin-server/internal/config"
	"hospital-admin-server/internal/middleware"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/utils"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	Auth *services.AuthService
	Cfg  *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Auth: auth, Cfg: cfg}
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         *models.Account `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	account, err := h.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(account, h.Cfg)
	if err != nil {
		_ = c.Error(err)
		utils.InternalServerError(c, "Failed to generate tokens")
		return
	}
	h.setRefreshCookie(c, refreshToken, h.Cfg.JWTRefreshExpirationHours*60*60)

	utils.Success(c, "Login successful", LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         account,
	})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetCookie(
		refreshCookie,
		value,
		maxAge,
		"/",
		"",
		h.Cfg.Environment != "development", // Secure (true in prod, false in dev)
		true,
	)
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RefreshTokenResponse represents the response body for successful token refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken issues a new token pair for a still active account.
// The refresh token comes from the cookie, or from the body when no cookie is sent.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		token = req.RefreshToken
	}

	claims, err := utils.ValidateToken(token, h.Cfg.JWTRefreshSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	account, err := h.Auth.GetAccount(c.Request.Context(), claims.UserID)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}
	if !account.IsActive {
		utils.Unauthorized(c, "User account is inactive")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(account, h.Cfg)
	if err != nil {
		_ = c.Error(err)
		utils.InternalServerError(c, "Failed to generate tokens")
		return
	}
	h.setRefreshCookie(c, refreshToken, h.Cfg.JWTRefreshExpirationHours*60*60)

	utils.Success(c, "Access token refreshed successfully", RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Logout clears the refresh cookie. Tokens are stateless and simply expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setRefreshCookie(c, "", -1)
	utils.Success(c, "Logout successful", nil)
}

// GetProfile handles fetching the currently authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	account, err := h.Auth.GetAccount(c.Request.Context(), userID)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Profile fetched successfully", account)
}

// UpdateProfile handles updating the currently authenticated user's profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req services.ProfileInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	account, err := h.Auth.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Profile updated successfully", account)
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// ChangePassword handles changing the authenticated user's password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req ChangePasswordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.Auth.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Password changed successfully", nil)
}
