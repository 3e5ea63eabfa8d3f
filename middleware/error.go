package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lavish-perfumes/seo-analyzer/stats"
)

// AnalysisFailedPrefix starts every 500 error message
const AnalysisFailedPrefix = "خطأ في التحليل: "

// ErrorHandler middleware recovers from any panics and handles errors
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("panic", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", GetRequestID(c)),
					zap.ByteString("stack", debug.Stack()),
				)

				SetOutcome(c, stats.OutcomeInternalError)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": AnalysisFailedPrefix + fmt.Sprint(err),
				})
			}
		}()

		c.Next()
	}
}
