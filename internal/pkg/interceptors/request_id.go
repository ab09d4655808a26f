// Package interceptors carries the request id and idempotency key across
// process boundaries: inbound HTTP via chi's RequestID middleware, outbound
// HTTP via Transport and gRPC via unary interceptors.
package interceptors

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/food-delivery/internal/pkg/interceptors/constants"
)

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, constants.ContextKeyRequestID, id)
}

// RequestIDFromContext looks the id up in our own key, then chi's, then
// incoming gRPC metadata. Returns "" when none is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && id != "" {
		return id
	}
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(constants.HeaderXRequestId); len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}

// IdempotencyKeyFromContext returns the key captured by AttachRequestMetadata.
func IdempotencyKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(constants.ContextKeyIdempotencyKey).(string)
	return key
}

// AttachRequestMetadata copies the request id assigned by middleware.RequestID
// and the client's idempotency key into the request context, and echoes the
// request id back in the response.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = r.Header.Get(constants.HeaderXRequestId)
		}
		ctx := WithRequestID(r.Context(), requestID)
		if key := r.Header.Get(constants.HeaderXIdempotencyKey); key != "" {
			ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, key)
		}
		if requestID != "" {
			w.Header().Set(constants.HeaderXRequestId, requestID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Transport forwards the context's request id on outbound HTTP calls.
type Transport struct {
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	id := RequestIDFromContext(req.Context())
	if id == "" || req.Header.Get(constants.HeaderXRequestId) != "" {
		return base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(constants.HeaderXRequestId, id)
	return base.RoundTrip(clone)
}

// ContextWithPropagatedID appends the request id to outgoing gRPC metadata.
func ContextWithPropagatedID(ctx context.Context) context.Context {
	id := RequestIDFromContext(ctx)
	if id == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, constants.HeaderXRequestId, id)
}
