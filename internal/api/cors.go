package api

import (
	"net/http"

	"github.com/rs/cors"
)

// WithCORS 允许配置的来源跨域访问 API；未配置来源时只接受同源请求。
func WithCORS(next http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		return next
	}
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Correlation-ID"},
	}).Handler(next)
}
