package gintool

import (
	"github.com/gin-gonic/gin"
)

// ContextMiddleware 把网关头部注入日志上下文
func ContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(GinContextToLoggerContext(c))
	}
}
