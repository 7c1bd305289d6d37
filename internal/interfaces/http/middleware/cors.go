// Package middleware 提供 HTTP 中间件
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// 问答 API 只有 GET/POST 两类端点，默认放行集合保持最小
var (
	corsDefaultMethods = []string{"GET", "POST", "OPTIONS"}
	corsDefaultHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
)

// CORS 跨域中间件
func CORS(cfg CORSConfig) gin.HandlerFunc {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = corsDefaultMethods
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = corsDefaultHeaders
	}

	// 通配符来源与凭证不能同时开启
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     methods,
		AllowHeaders:     headers,
		ExposeHeaders:    []string{"X-Request-ID", "X-Trace-ID"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	})
}
