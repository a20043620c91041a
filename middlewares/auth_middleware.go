package middlewares

import (
	"crypto/rsa"
	"net/http"
	"strings"

	"glowfit/logger"
	"glowfit/models"
	"glowfit/services"
	"glowfit/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Keys set on the gin context by AuthMiddleware.
const (
	CtxUserID = "userID"
	CtxEmail  = "email"
	CtxRole   = "role"
	CtxUser   = "user"
)

type Authenticator struct {
	Auth      *services.AuthService
	JWTSecret string
	ClerkKey  *rsa.PublicKey
}

func NewAuthenticator(auth *services.AuthService, jwtSecret string, clerkKey *rsa.PublicKey) *Authenticator {
	return &Authenticator{Auth: auth, JWTSecret: jwtSecret, ClerkKey: clerkKey}
}

// AuthMiddleware accepts Clerk RS256 session tokens and locally issued HS256
// tokens.
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		user, err := a.resolve(c, tokenString)
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if user.Disabled {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account disabled"})
			return
		}

		role := user.Role
		if a.Auth.IsAdmin(user) {
			role = models.RoleAdmin
		}
		c.Set(CtxUserID, user.ID)
		c.Set(CtxEmail, user.Email)
		c.Set(CtxRole, role)
		c.Set(CtxUser, user)
		c.Next()
	}
}

// bearerToken reads the Authorization header. Websocket handshakes from
// browsers cannot set headers, so they may pass ?token= instead.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}

func (a *Authenticator) resolve(c *gin.Context, tokenString string) (*models.User, error) {
	alg, err := utils.TokenAlgorithm(tokenString)
	if err != nil {
		return nil, err
	}
	switch alg {
	case jwt.SigningMethodRS256.Alg():
		claims, err := utils.ParseClerkToken(a.ClerkKey, tokenString)
		if err != nil {
			return nil, err
		}
		return a.Auth.ResolveClerkUser(c.Request.Context(), claims)
	case jwt.SigningMethodHS256.Alg():
		if a.JWTSecret == "" {
			return nil, utils.ErrUnsupportedToken
		}
		claims, err := utils.ParseJWT(a.JWTSecret, tokenString)
		if err != nil {
			return nil, err
		}
		user, err := a.Auth.UserByID(c.Request.Context(), claims.UserID())
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(user.Email, claims.Email) {
			return nil, services.ErrUnauthorized
		}
		return user, nil
	default:
		return nil, utils.ErrUnsupportedToken
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRole) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}
