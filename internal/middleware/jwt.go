package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/apexlabs/ntamock-backend/internal/response"
	"github.com/apexlabs/ntamock-backend/internal/service"
)

// ContextKeyClaims is the Gin context key for JWT claims.
const ContextKeyClaims = "claims"

// TokenValidator parses bearer tokens. *service.AuthService implements it.
type TokenValidator interface {
	ValidateToken(token string) (*service.Claims, error)
}

// RequireStudentJWT accepts student tokens from the Authorization header.
func RequireStudentJWT(v TokenValidator) gin.HandlerFunc {
	return requireToken(v, service.TokenTypeStudent, response.ErrStudentAccessOnly, false)
}

// RequireAdminJWT accepts admin tokens from the Authorization header, or from
// ?token= for EventSource clients that cannot set headers.
func RequireAdminJWT(v TokenValidator) gin.HandlerFunc {
	return requireToken(v, service.TokenTypeAdmin, response.ErrAdminAccessOnly, true)
}

// RequireStudentWSAuth accepts student tokens from ?token= as well, since
// browsers cannot set headers on a WebSocket upgrade.
func RequireStudentWSAuth(v TokenValidator) gin.HandlerFunc {
	return requireToken(v, service.TokenTypeStudent, response.ErrStudentAccessOnly, true)
}

func requireToken(v TokenValidator, want service.TokenType, wrongType response.ErrCode, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" && allowQuery {
			tokenStr = c.Query("token")
		}
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := v.ValidateToken(tokenStr)
		if err != nil {
			code := response.ErrTokenInvalid
			if errors.Is(err, jwt.ErrTokenExpired) {
				code = response.ErrTokenExpired
			}
			response.AbortFail(c, http.StatusUnauthorized, code)
			return
		}

		if claims.TokenType != want {
			response.AbortFail(c, http.StatusForbidden, wrongType)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, _ := val.(*service.Claims)
	return claims
}

// SubjectID returns the authenticated student or admin ID, or "".
func SubjectID(c *gin.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.Subject
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
