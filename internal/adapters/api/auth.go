package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/example/logitrack/internal/ctxutil"
	"github.com/example/logitrack/internal/ports/primary"
)

// AuthHeaderKey carries the bearer token.
const AuthHeaderKey = "Authorization"

// Claims are the token claims logitrack reads: sub plus a role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthHandler verifies HS256 bearer tokens and puts the actor on the request context.
type AuthHandler struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

// NewAuthHandler creates an AuthHandler. An empty issuer disables the iss check.
func NewAuthHandler(secret, issuer string) *AuthHandler {
	return &AuthHandler{
		secret: []byte(secret),
		issuer: issuer,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// IssueToken signs a token for userID with role, valid for ttl.
func (a *AuthHandler) IssueToken(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Middleware rejects requests without a valid token. Browsers cannot set
// headers on websocket upgrades, so a "token" query parameter is also accepted.
func (a *AuthHandler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		raw := c.Query("token")
		if header := c.GetHeader(AuthHeaderKey); header != "" {
			if !strings.HasPrefix(header, "Bearer ") {
				respondUnauthorized(c, "no bearer token provided in Authorization header")
				return
			}
			raw = strings.TrimPrefix(header, "Bearer ")
		}
		// delete the header to avoid logging it by accident
		c.Request.Header.Del(AuthHeaderKey)
		if raw == "" {
			respondUnauthorized(c, "user not authenticated")
			return
		}

		claims, err := a.verify(raw)
		if err != nil {
			respondUnauthorized(c, err.Error())
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("role", claims.Role)
		c.Request = c.Request.WithContext(ctxutil.WithActor(c.Request.Context(), claims.Subject, claims.Role))
		c.Next()
	}
}

func (a *AuthHandler) verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: missing sub claim")
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("invalid token: missing role claim")
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return nil, fmt.Errorf("invalid token: unexpected issuer %q", claims.Issuer)
	}
	return claims, nil
}

// actorFrom reads the actor the middleware stored on the request context.
func actorFrom(c *gin.Context) primary.Actor {
	userID, role := ctxutil.ActorFromContext(c.Request.Context())
	return primary.Actor{UserID: userID, Role: role}
}
