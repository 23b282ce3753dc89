package middleware

import (
	"context"
	"net/http"

	"github.com/rs/xid"
)

const CorrelationIDHeader = "X-Correlation-ID"
const correlationIDKey = "correlation_id"

// maxInboundIDLen caps caller-supplied correlation IDs so a hostile
// header cannot inject arbitrarily long values into every log line.
const maxInboundIDLen = 64

// CorrelationCtx retrieves the correlation ID from the context, or ""
// when the request did not pass through CorrelationIDMiddleware.
func CorrelationCtx(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// CorrelationIDMiddleware assigns every request a correlation ID. An
// inbound X-Correlation-ID is honored so the CLI client can stitch its
// own traces together; otherwise a fresh xid is minted. The ID is
// echoed back in the response header either way.
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" || len(id) > maxInboundIDLen {
			id = xid.New().String()
		}
		w.Header().Set(CorrelationIDHeader, id)

		ctx := context.WithValue(r.Context(), correlationIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
