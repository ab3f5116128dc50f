package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response standard response structure
type Response struct {
	Code      ResponseCode `json:"code"`
	Message   string       `json:"message"`
	Data      interface{}  `json:"data,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// SuccessResponse returns success response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      CodeSuccess,
		Message:   "success",
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// SuccessMessageResponse returns success response with an advisory message
func SuccessMessageResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      CodeSuccess,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// Error returns error response with a business code
func Error(c *gin.Context, code ResponseCode, message string) {
	c.JSON(code.HTTPStatus(), Response{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

// ErrorFromErr translates an error into a response. AppError keeps its code
// and message; anything else is reported as a generic internal error.
func ErrorFromErr(c *gin.Context, err error) {
	if appErr, ok := IsAppError(err); ok {
		Error(c, appErr.Code, appErr.Message)
		return
	}
	Error(c, CodeInternalError, "internal server error")
}

// PageResponse page response structure
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}

// SuccessPageResponse returns success page response
func SuccessPageResponse(c *gin.Context, list interface{}, total int64, page, size int) {
	SuccessResponse(c, PageResponse{
		List:  list,
		Total: total,
		Page:  page,
		Size:  size,
	})
}
