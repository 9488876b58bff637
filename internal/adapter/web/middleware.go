package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simaogato/billlink-backend/internal/domain"
	"github.com/simaogato/billlink-backend/internal/session"
)

// SessionCookie carries the browser session identifier. It has no Max-Age,
// so it ends when the browser session does.
const SessionCookie = "billlink_session"

const sessionIDKey = "session_id"

// sessionMiddleware makes sure every customer request carries a session
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			id = session.NewSessionID()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id, 0, "/customer", "", s.secureCookies, true)
		}
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

// scope returns the wizard scope of the request's session and bill
func scope(c *gin.Context) session.Scope {
	return session.Scope{
		SessionID: c.GetString(sessionIDKey),
		BillID:    billID(c),
	}
}

// billID returns the normalized bill identifier of the route
func billID(c *gin.Context) string {
	return domain.NormalizeIdentifier(c.Param("id"))
}

// requestLogger logs every request with zap
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
