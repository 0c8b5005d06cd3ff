package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// RequestIDHeader carries the request id both ways.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	requestID, ok := ctx.Value(requestIDKey{}).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// FromFiberCtx returns the request's user context tagged with its request id,
// taken from the middleware local or else the inbound header.
func FromFiberCtx(c *fiber.Ctx) context.Context {
	requestID, _ := c.Locals(RequestIDHeader).(string)
	if requestID == "" {
		requestID = c.Get(RequestIDHeader)
	}
	if requestID == "" {
		requestID = "unknown"
	}

	return WithRequestID(c.UserContext(), requestID)
}
