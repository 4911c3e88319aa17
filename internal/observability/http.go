package observability

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// HTTPMetricsMiddleware records request counts and latencies per route template.
// Unmatched paths are grouped under "unmatched" to keep label cardinality bounded.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func GRPCServerMetricsUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		svc, method := splitFullMethod(info.FullMethod)
		grpcHandledTotal.WithLabelValues(svc, method, status.Code(err).String()).Inc()
		return resp, err
	}
}

func splitFullMethod(fullMethod string) (string, string) {
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 3 {
		return "unknown", "unknown"
	}
	return parts[1], parts[2]
}

// ClientMeta is the request metadata attached to websocket connection logs.
type ClientMeta struct {
	DeviceID  string
	IP        string
	RequestID string
}

// ClientMetaFromRequest reads device and request ids from headers and the
// client address from the first X-Forwarded-For hop, falling back to RemoteAddr.
func ClientMetaFromRequest(r *http.Request) ClientMeta {
	meta := ClientMeta{
		DeviceID:  r.Header.Get("X-Device-Id"),
		RequestID: r.Header.Get("X-Request-ID"),
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		meta.IP = strings.TrimSpace(first)
		return meta
	}
	meta.IP = r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		meta.IP = host
	}
	return meta
}
