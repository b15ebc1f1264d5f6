package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"golang.org/x/text/language"

	"github.com/Shivanand-hulikatti/eventhub/internal/i18n"
)

// Logger writes one structured access log line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// CORS is permissive so a separately hosted front-end can call the API with
// bearer tokens.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token, Accept-Language")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type languageKey struct{}

// Language resolves the response language once per request and remembers an
// explicit ?lang= choice in a cookie.
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag, persist := i18n.ResolveTag(r)
		if persist {
			i18n.SetLanguageCookie(w, tag)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), languageKey{}, tag)))
	})
}

func languageFrom(r *http.Request) language.Tag {
	if tag, ok := r.Context().Value(languageKey{}).(language.Tag); ok {
		return tag
	}
	tag, _ := i18n.ResolveTag(r)
	return tag
}

// CSRF protects form submissions. JSON API requests are exempt: browsers
// cannot send them cross-site without a CORS preflight. Rejections use the
// same error envelope as every other handler.
func CSRF(authKey []byte, secure bool, trustedOrigins []string, resp *Responder) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.TrustedOrigins(trustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp.logger.Debug("csrf rejected", "method", r.Method, "path", r.URL.Path, "reason", csrf.FailureReason(r))
			resp.Error(w, r, http.StatusForbidden, "csrf_invalid", i18n.KeyCSRFInvalid)
		})),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				next.ServeHTTP(w, r)
				return
			}
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}
