package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the Gin context key holding the request id echoed in every envelope.
const RequestIDKey = "request_id"

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	Count  int `json:"count"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// CountMeta is the meta block for unpaged listings.
type CountMeta struct {
	Count int `json:"count"`
}

func envelope[T any](ctx *gin.Context, status int, ok bool, message string) APIResponse[T] {
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString(RequestIDKey),
		Success:   ok,
		Message:   message,
	}
}

// Success writes a success envelope with the given status and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := envelope[T](ctx, status, true, message)
	resp.Data = data
	resp.Meta = meta
	ctx.JSON(status, resp)
	return resp
}

// Error writes an error envelope with the given status and returns it.
func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := envelope[T](ctx, status, false, message)
	resp.Error = err
	ctx.JSON(status, resp)
	return resp
}

// Abort writes an error envelope and stops the handler chain.
func Abort(ctx *gin.Context, status int, message string, err interface{}) {
	Error[any](ctx, status, message, err)
	ctx.Abort()
}
