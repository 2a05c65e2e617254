package server

import (
	"context"
	"net/http"
)

type ctxKey string

const ctxIdentity ctxKey = "identity"

// withIdentity places the upstream-asserted identity (if any) in the request
// context. No authentication happens here; see the auth package contract.
func (a *App) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := a.ids.FromRequest(r)
		ctx := r.Context()
		if identity != "" {
			ctx = context.WithValue(ctx, ctxIdentity, identity)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) string {
	if v := r.Context().Value(ctxIdentity); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
