package ocpi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AccessGate is the allow/block decision for bearer tokens.
type AccessGate interface {
	IsBlocked(token string) bool
}

type accessTokenKey struct{}

// WithAccessToken stores the request's access token in the context.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// GetAccessToken retrieves the access token from the context.
func GetAccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey{}).(string)
	return token, ok
}

// ExtractAccessToken returns the credential of r from either
// "Authorization: Token <token>" (case-insensitive scheme) or the username of
// basic auth. The token is used verbatim. It returns "" when neither is present.
func ExtractAccessToken(r *http.Request) string {
	header := r.Header.Get("Authorization")

	const tokenPrefix = "token "
	if len(header) > len(tokenPrefix) && strings.EqualFold(header[:len(tokenPrefix)], tokenPrefix) {
		return strings.TrimSpace(header[len(tokenPrefix):])
	}

	if username, _, ok := r.BasicAuth(); ok {
		return username
	}
	return ""
}

// AccessTokenMiddleware rejects requests whose token is blocked by gate with a
// 2000 envelope. Requests without a token, or with any token not explicitly
// blocked, continue with the token stored in the context.
func AccessTokenMiddleware(gate AccessGate, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractAccessToken(c.Request)
		if token == "" {
			c.Next()
			return
		}

		if gate.IsBlocked(token) {
			logger.Debug("rejected blocked access token",
				slog.String("path", c.Request.URL.Path))
			Error(c, StatusClientError, MessageBlockedToken)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithAccessToken(c.Request.Context(), token))
		c.Next()
	}
}
