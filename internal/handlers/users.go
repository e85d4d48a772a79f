package handlers

import (
	"strconv"

	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler handles staff account requests (typically admin operations).
type UserHandler struct {
	Auth *services.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(auth *services.AuthService) *UserHandler {
	return &UserHandler{Auth: auth}
}

// CreateUser handles creating a new staff account (admin).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateAccountInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	account, err := h.Auth.CreateAccount(c.Request.Context(), req)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Created(c, "User created successfully", account)
}

// GetUsers lists accounts, optionally by ?role= and ?active=.
func (h *UserHandler) GetUsers(c *gin.Context) {
	filter := services.AccountFilter{Role: models.Role(c.Query("role"))}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			utils.BadRequest(c, "active must be true or false")
			return
		}
		filter.Active = &active
	}

	accounts, err := h.Auth.ListAccounts(c.Request.Context(), filter)
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Users fetched successfully", accounts)
}

// GetUserByID handles fetching a single account (admin).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	account, err := h.Auth.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "User fetched successfully", account)
}

// DeactivateUser blocks an account from logging in (admin).
func (h *UserHandler) DeactivateUser(c *gin.Context) {
	if err := h.Auth.DeactivateAccount(c.Request.Context(), c.Param("id")); err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "User deactivated successfully", nil)
}

// GetDoctors lists active doctors for booking. Open to every authenticated user.
func (h *UserHandler) GetDoctors(c *gin.Context) {
	doctors, err := h.Auth.ListDoctors(c.Request.Context())
	if err != nil {
		utils.ServiceError(c, err)
		return
	}

	utils.Success(c, "Doctors fetched successfully", doctors)
}
