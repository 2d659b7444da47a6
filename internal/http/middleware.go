package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const ClientIDHeader = "X-Client-ID"

const maxClientIDLength = 128

type ctxKey int

const (
	clientIDKey ctxKey = iota
	clientIDIssuedKey
)

// ClientIDMiddleware binds the request to a client instance. Requests
// without an id get a fresh one, echoed back so the client can keep it.
func ClientIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := r.Header.Get(ClientIDHeader)
		if len(clientID) > maxClientIDLength {
			respondError(w, r, http.StatusBadRequest, "invalid_client_id", "client id is too long")
			return
		}
		issued := clientID == ""
		if issued {
			clientID = uuid.NewString()
		}

		w.Header().Set(ClientIDHeader, clientID)
		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("client_id", clientID)
		})
		ctx := context.WithValue(r.Context(), clientIDKey, clientID)
		ctx = context.WithValue(ctx, clientIDIssuedKey, issued)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(clientIDKey).(string); ok {
		return id
	}
	return ""
}

// clientIDIssued reports whether the id was generated for this request. Such
// a client has no state yet.
func clientIDIssued(ctx context.Context) bool {
	issued, _ := ctx.Value(clientIDIssuedKey).(bool)
	return issued
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", middleware.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
