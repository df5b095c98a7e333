package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mnemo-dev/mnemo/internal/pkg/errcode"
	"github.com/mnemo-dev/mnemo/internal/pkg/jwt"
	"github.com/mnemo-dev/mnemo/internal/pkg/response"
)

const (
	ContextUserIDKey    = "user_id"
	ContextUserEmailKey = "user_email"
)

func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, errcode.ErrUnauthorized, "missing authorization")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, errcode.ErrUnauthorized, "invalid authorization")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(parts[1], secret)
		if err != nil {
			response.Error(c, errcode.ErrUnauthorized, "invalid token")
			c.Abort()
			return
		}
		uid, err := claims.UserID()
		if err != nil {
			response.Error(c, errcode.ErrUnauthorized, "invalid token subject")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, uid)
		if claims.Email != "" {
			c.Set(ContextUserEmailKey, claims.Email)
		}
		c.Next()
	}
}
