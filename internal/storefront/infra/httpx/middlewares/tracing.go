package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AttachTracingMetadata tags the request span with the request id and the
// caller's identity. It must run after RequestID and AttachIdentity.
func AttachTracingMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			span.SetAttributes(attribute.String("http.request_id", middleware.GetReqID(ctx)))
			if id := DeviceID(ctx); id != "" {
				span.SetAttributes(attribute.String("storefront.device_id", id))
			}
			if id := UserID(ctx); id != "" {
				span.SetAttributes(attribute.String("enduser.id", id))
			}
		}
		next.ServeHTTP(w, r)
	})
}
