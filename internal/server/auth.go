package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	userdomain "github.com/Sasidhar-2001/HMS/internal/user/domain"
)

const actorContextKey = "hms.actor"

// Actor is the caller identity decoded from the bearer credential. The
// identity provider is external; the server trusts a valid signature.
type Actor struct {
	UserID snowflake.ID
	Role   userdomain.Role
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(s.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		userID, err := snowflake.ParseString(strings.TrimSpace(claims.Subject))
		if err != nil || userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(actorContextKey, Actor{
			UserID: userID,
			Role:   userdomain.Role(strings.ToUpper(strings.TrimSpace(claims.Role))),
		})
		c.Next()
	}
}

func requireRole(roles ...userdomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

// requireSelfOrStaff lets staff read anyone and students read only their
// own records.
func (s *Server) requireSelfOrStaff(c *gin.Context, studentID snowflake.ID) error {
	actor, ok := actorFrom(c)
	if !ok {
		return ErrUnauthorized
	}
	if actor.Role == userdomain.RoleStudent && actor.UserID != studentID {
		return ErrForbidden
	}
	return nil
}

func actorFrom(c *gin.Context) (Actor, bool) {
	value, ok := c.Get(actorContextKey)
	if !ok {
		return Actor{}, false
	}
	actor, ok := value.(Actor)
	return actor, ok
}
