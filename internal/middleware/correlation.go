package middleware

import (
	"net/http"

	"github.com/fhuszti/digimedia-ms-go/internal/api_context"
	"github.com/fhuszti/digimedia-ms-go/internal/uuid"
)

// WithCorrelationID assigns every request a correlation id, honouring an
// inbound X-Correlation-ID header when the caller already has one. The
// id surfaces in every log line through the logger's context handler.
func WithCorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := r.Header.Get("X-Correlation-ID")
			if cid == "" {
				cid = uuid.NewString()
			}
			w.Header().Set("X-Correlation-ID", cid)

			ctx := api_context.WithCorrelationID(r.Context(), cid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
