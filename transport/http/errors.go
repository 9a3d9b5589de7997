package http

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Santhosh121805/based.credit/core"
)

const (
	isoMillis = "2006-01-02T15:04:05.000Z07:00"

	keyErrorOrigin = "gatekeeper_error_origin"
)

// errorOrigin locates where a server error was raised
type errorOrigin struct {
	caller string
	stack  string
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	RequestID string `json:"requestId,omitempty"`
	ResetAt   string `json:"resetAt,omitempty"`
	Details   string `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// abort records err for ErrorHandler and stops the chain. Server errors
// also record the call site and stack.
func abort(c *gin.Context, err error) {
	if core.KindOf(err) == core.KindInternal {
		origin := errorOrigin{stack: string(debug.Stack())}
		if _, file, line, ok := runtime.Caller(1); ok {
			origin.caller = file + ":" + strconv.Itoa(line)
		}
		c.Set(keyErrorOrigin, origin)
	}
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last error recorded on the context. Server
// errors are logged at error level, client errors at warn. In production
// the message of a server error is replaced with a generic one.
func ErrorHandler(logger *slog.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		kind := core.KindInternal
		message := "Internal server error"
		body := errorBody{}
		var authErr *core.AuthError
		if errors.As(err, &authErr) {
			kind = authErr.Kind
			message = authErr.Message
			if !authErr.ResetAt.IsZero() {
				body.ResetAt = authErr.ResetAt.UTC().Format(isoMillis)
			}
		}

		status := kind.HTTPStatus()
		attrs := []any{
			slog.String("request_id", RequestIDFromContext(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.String("code", kind.Code()),
			slog.Any("error", err),
		}
		if status >= http.StatusInternalServerError {
			if v, ok := c.Get(keyErrorOrigin); ok {
				origin := v.(errorOrigin)
				attrs = append(attrs, slog.String("caller", origin.caller))
				if !production {
					attrs = append(attrs, slog.String("stack", origin.stack))
				}
			}
			logger.Error("Server error", attrs...)
			if production {
				message = "Internal server error"
			} else {
				body.Details = err.Error()
			}
		} else {
			logger.Warn("Client error", attrs...)
		}

		if c.Writer.Written() {
			return
		}

		body.Code = kind.Code()
		body.Message = message
		body.Timestamp = time.Now().UTC().Format(isoMillis)
		body.Path = c.Request.URL.Path
		body.RequestID = RequestIDFromContext(c)

		c.JSON(status, errorResponse{Error: body})
	}
}

// NotFound renders unknown routes in the error envelope
func NotFound(c *gin.Context) {
	abort(c, core.NotFound("Route "+c.Request.Method+" "+c.Request.URL.Path+" not found", nil))
}
