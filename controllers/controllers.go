// Package controllers contains the Gin handlers. They parse the request,
// call a service, and translate the sentinel error kinds to HTTP statuses —
// nothing else lives here.
package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"nimbusdrive/common"
	"nimbusdrive/utils"
)

// getUserID extracts the authenticated principal set by the auth middleware.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString("userIdStr")
	if userID == "" {
		return "", fmt.Errorf("user not authenticated")
	}
	return userID, nil
}

// handleServiceError maps the error taxonomy onto HTTP statuses. Unknown
// errors are internal by definition.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrContentNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "File content not found", err.Error())
	case errors.Is(err, common.ErrNotFound):
		utils.NotFoundResponse(c, "Not found")
	case errors.Is(err, common.ErrInvalidArgument):
		utils.BadRequestResponse(c, "Invalid request", err.Error())
	case errors.Is(err, common.ErrUnauthorized):
		utils.UnauthorizedResponse(c, "Unauthorized")
	case errors.Is(err, common.ErrAlreadyExists):
		utils.ConflictResponse(c, "Already exists", err.Error())
	default:
		utils.LogError("unhandled service error", err)
		utils.InternalServerErrorResponse(c, "Internal server error", err.Error())
	}
}
