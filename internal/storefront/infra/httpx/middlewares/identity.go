package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jcmexdev/storefront/internal/pkg/constants"
)

// AttachIdentity copies the device and user headers set by the client (and,
// for the user, by the identity provider in front of it) into the context.
func AttachIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, constants.ContextKeyDeviceID, strings.TrimSpace(r.Header.Get(constants.HeaderXDeviceID)))
		ctx = context.WithValue(ctx, constants.ContextKeyUserID, strings.TrimSpace(r.Header.Get(constants.HeaderXUserID)))
		ctx = context.WithValue(ctx, constants.ContextKeyUserEmail, strings.TrimSpace(r.Header.Get(constants.HeaderXUserEmail)))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireDevice rejects requests without a device id; every session route is
// keyed by it.
func RequireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if DeviceID(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "device_id_required",
				"message": "The " + constants.HeaderXDeviceID + " header is required.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func DeviceID(ctx context.Context) string {
	v, _ := ctx.Value(constants.ContextKeyDeviceID).(string)
	return v
}

func UserID(ctx context.Context) string {
	v, _ := ctx.Value(constants.ContextKeyUserID).(string)
	return v
}

func UserEmail(ctx context.Context) string {
	v, _ := ctx.Value(constants.ContextKeyUserEmail).(string)
	return v
}
