package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurobridge-backend/internal/pkg/ctxutil"
)

// AttachRequestContext stamps every request with a request ID and trace ID
// and seeds a RequestData value that downstream packages read via ctxutil,
// instead of threading *gin.Context into completion/ratelimit/commit code.
// The auth middleware fills in UserID once the token is verified.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		traceID := strings.TrimSpace(c.GetHeader("X-Trace-Id"))
		if traceID == "" {
			if spanCtx := trace.SpanContextFromContext(c.Request.Context()); spanCtx.HasTraceID() {
				traceID = spanCtx.TraceID().String()
			}
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-Id", reqID)
		c.Writer.Header().Set("X-Trace-Id", traceID)

		rd := &ctxutil.RequestData{
			ClientIP:  c.ClientIP(),
			RequestID: reqID,
			TraceID:   traceID,
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), rd)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
