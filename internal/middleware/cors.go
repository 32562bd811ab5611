package middleware

import (
	"net/http"
	"strings"
)

// allowedMethods はAPIが受け付けるメソッドの一覧。プリフライト応答に使用する。
const allowedMethods = "GET, POST, DELETE, OPTIONS"

// NewCORSMiddleware は許可オリジンリストに基づくCORSミドルウェアを返す。
// allowedOriginsが空の場合は全オリジン(*)を許可する。
// 非空の場合はリクエストのOriginがリストに含まれるときのみそのオリジンをエコーし、
// 含まれないときはCORSヘッダーを一切付与しない（ブラウザ側で拒否される）。
// OPTIONSプリフライトリクエストには204で応答する。
func NewCORSMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) == 0 {
				setCORSHeaders(w, "*")
			} else if origin := r.Header.Get("Origin"); allowed[origin] {
				setCORSHeaders(w, origin)
				w.Header().Set("Vary", "Origin")
			}

			// OPTIONSプリフライトリクエストには204で応答
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setCORSHeaders(w http.ResponseWriter, origin string) {
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "86400")
}
