package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData carries per-request identity and tracing fields through
// context, so downstream packages (completion, ratelimit, commit) don't
// need a *gin.Context threaded into them.
type RequestData struct {
	UserID    uuid.UUID
	ClientIP  string
	RequestID string
	TraceID   string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	rd, ok := val.(*RequestData)
	if !ok {
		return nil
	}
	return rd
}
