package utils

import (
	"hospital-admin-server/internal/services"

	"github.com/gin-gonic/gin"
)

// BindAndValidate binds the request body to a struct and validates it.
// If validation fails, it sends a BadRequest response and returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return false
	}
	if err := services.Validate(obj); err != nil {
		BadRequest(c, "Validation failed: "+services.Message(err))
		return false
	}
	return true
}

// BindQuery binds query parameters into obj and validates them.
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return false
	}
	if err := services.Validate(obj); err != nil {
		BadRequest(c, "Validation failed: "+services.Message(err))
		return false
	}
	return true
}
