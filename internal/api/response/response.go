package response

import (
	"ctchen222/tateti/internal/validator"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON API reply.
type Response struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Extras  any  `json:"extras"`
}

func NewResponse(success bool, code int, extras any) Response {
	return Response{
		Success: success,
		Code:    code,
		Extras:  extras,
	}
}

// SuccessResponse replies 200 with extras as the payload.
func SuccessResponse(c *gin.Context, extras any) {
	c.JSON(http.StatusOK, NewResponse(true, http.StatusOK, extras))
}

// ErrorResponse replies with code and a {"message": ...} payload.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, NewResponse(false, code, gin.H{"message": message}))
}

// BindErrorResponse replies 400 for a request that failed binding, naming
// the offending fields.
func BindErrorResponse(c *gin.Context, err error) {
	ErrorResponse(c, http.StatusBadRequest, validator.Describe(err).Error())
}
