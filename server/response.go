package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/dictation/errors"
)

// SuccessResponse is the acknowledgement body `{"success": true}`.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// RespondSuccess sends 200 with a success acknowledgement.
func RespondSuccess(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// RespondWithError sends `{"error": message}`. The status comes from an
// *errors.AppError when err is one; anything else becomes a 500.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, appErr.ToResponse())
}
