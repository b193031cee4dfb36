package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware 创建 CORS 跨域中间件
// 参数:
//   - allowOrigins: 允许的来源，为空时允许所有来源
//
// 返回:
//   - gin.HandlerFunc: Gin 中间件函数
func CORSMiddleware(allowOrigins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(allowOrigins) == 0 || (len(allowOrigins) == 1 && allowOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowOrigins
		cfg.AllowCredentials = true
	}
	cfg.AllowMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	cfg.ExposeHeaders = []string{"Content-Length"}
	cfg.MaxAge = 24 * time.Hour
	return cors.New(cfg)
}
