package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/tech-arch1tect/berth-archiver/internal/audit"
	"github.com/tech-arch1tect/berth-archiver/internal/common"
	"github.com/tech-arch1tect/berth-archiver/internal/logging"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func TokenMiddleware(accessToken string, logger *logging.Logger, auditService *audit.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sourceIP := c.RealIP()

			reject := func(status int, reason string) error {
				logging.SetAuthFailure(c, reason)
				auditService.LogAuthEvent(audit.EventAuthFailure, sourceIP, false, reason)
				logger.Warn("authentication failed",
					zap.String("auth_status", logging.AuthStatusFailed),
					zap.String("source_ip", sourceIP),
					zap.String("reason", reason))
				return common.SendError(c, status, reason)
			}

			if accessToken == "" {
				return reject(http.StatusInternalServerError, "Access token not configured")
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return reject(http.StatusUnauthorized, "Authorization header required")
			}

			token := logging.ExtractBearerToken(authHeader)
			if token == "" {
				return reject(http.StatusUnauthorized, "Bearer token required")
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(accessToken)) != 1 {
				logger.Debug("token mismatch", zap.String("token_hash", logging.HashToken(token)))
				return reject(http.StatusUnauthorized, "Invalid token")
			}

			logging.SetAuthSuccess(c, token)
			logger.Debug("authentication successful",
				zap.String("auth_status", logging.AuthStatusSuccess),
				zap.String("source_ip", sourceIP),
				zap.String("token_hash", logging.HashToken(token)))
			return next(c)
		}
	}
}
