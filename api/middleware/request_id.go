package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ridegearhq/ridegear-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID attaches a request identifier to the response and the log
// context. An inbound header value is honored only when it is a well-formed
// UUID; anything else is replaced so log correlation keys stay uniform.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if _, err := uuid.Parse(reqID); err != nil {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
