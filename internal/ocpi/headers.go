package ocpi

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/ocpi/internal/commandlog"
)

// Header names read or written by the OCPI middleware.
const (
	HeaderRequestID       = "X-Request-ID"
	HeaderCorrelationID   = "X-Correlation-ID"
	HeaderToCountryCode   = "OCPI-to-country-code"
	HeaderToPartyID       = "OCPI-to-party-id"
	HeaderFromCountryCode = "OCPI-from-country-code"
	HeaderFromPartyID     = "OCPI-from-party-id"
)

// RoutingHeaders are the OCPI message routing headers of a request. They are
// recorded, not enforced.
type RoutingHeaders struct {
	ToCountryCode   string
	ToPartyID       string
	FromCountryCode string
	FromPartyID     string
}

// IsZero reports whether no routing header was sent.
func (h RoutingHeaders) IsZero() bool {
	return h == RoutingHeaders{}
}

type routingHeadersKey struct{}

// WithRoutingHeaders stores routing headers in the context.
func WithRoutingHeaders(ctx context.Context, h RoutingHeaders) context.Context {
	return context.WithValue(ctx, routingHeadersKey{}, h)
}

// GetRoutingHeaders retrieves the routing headers from the context.
func GetRoutingHeaders(ctx context.Context) (RoutingHeaders, bool) {
	h, ok := ctx.Value(routingHeadersKey{}).(RoutingHeaders)
	return h, ok
}

// HeadersMiddleware prepares every OCPI request:
//   - X-Correlation-ID is echoed, or generated as a UUIDv7 when absent, and
//     becomes the event tracking id of any command logged for the request
//   - Vary: Accept is set on the response
//   - OCPI routing headers are copied into the request context
//
// X-Request-ID is handled by the requestid middleware installed on the router.
func HeadersMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				logger.Error("failed to generate correlation id", slog.Any("error", err))
				id = uuid.New()
			}
			correlationID = id.String()
		}
		c.Header(HeaderCorrelationID, correlationID)
		c.Header("Vary", "Accept")

		routing := RoutingHeaders{
			ToCountryCode:   c.GetHeader(HeaderToCountryCode),
			ToPartyID:       c.GetHeader(HeaderToPartyID),
			FromCountryCode: c.GetHeader(HeaderFromCountryCode),
			FromPartyID:     c.GetHeader(HeaderFromPartyID),
		}

		ctx := commandlog.WithEventTrackingID(c.Request.Context(), correlationID)
		if !routing.IsZero() {
			ctx = WithRoutingHeaders(ctx, routing)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
