package pkglog

import "context"

// NoCorrelationID is returned for contexts that never passed the correlation
// middleware, such as CLI runs and background tasks.
const NoCorrelationID = "-"

type correlationIDKey struct{}

func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return NoCorrelationID
	}
	cid, ok := ctx.Value(correlationIDKey{}).(string)
	if !ok || cid == "" {
		return NoCorrelationID
	}
	return cid
}

func SetCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, cid)
}
