package interceptors

import (
	"context"
	"fmt"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	sessiondomain "risk-adaptive-auth/internal/session/domain"
)

// TrustedProxies are the peers whose forwarding headers are believed.
type TrustedProxies []*net.IPNet

// ParseTrustedProxies parses IP addresses and CIDR blocks. A bare address trusts only itself.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	var out TrustedProxies
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				return nil, fmt.Errorf("trusted proxy %q: not an IP or CIDR", e)
			}
			bits := 8 * net.IPv6len
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 8*net.IPv4len
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Trusts reports whether addr is inside one of the trusted ranges.
func (t TrustedProxies) Trusts(addr string) bool {
	ip := net.ParseIP(strings.TrimSpace(addr))
	if ip == nil {
		return false
	}
	for _, n := range t {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the caller's address. x-forwarded-for and x-real-ip are honored only when
// the direct peer is a trusted proxy; x-forwarded-for is read right to left, skipping trusted
// hops. Without a peer it returns "unknown".
func ClientIP(ctx context.Context, trusted TrustedProxies) string {
	host := peerHost(ctx)
	if host == "" {
		return "unknown"
	}
	if !trusted.Trusts(host) {
		return host
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return host
	}
	if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
		hops := strings.Split(strings.Join(vals, ","), ",")
		var leftmost string
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				continue
			}
			leftmost = hop
			if !trusted.Trusts(hop) {
				return hop
			}
		}
		if leftmost != "" {
			return leftmost
		}
	}
	if vals := md.Get("x-real-ip"); len(vals) > 0 {
		if s := strings.TrimSpace(vals[0]); net.ParseIP(s) != nil {
			return s
		}
	}
	return host
}

func peerHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
		return host
	}
	return p.Addr.String()
}

// UserAgent returns the caller's user agent. A browser-supplied x-user-agent wins over the
// gRPC library's own user-agent header.
func UserAgent(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, key := range []string{"x-user-agent", "user-agent"} {
		if vals := md.Get(key); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	return ""
}

var clientKey = contextKey{"client"}

// ClientUnary resolves the caller's address and user agent once per RPC and stores them for
// Client.
func ClientUnary(trusted TrustedProxies) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		c := sessiondomain.ClientContext{IP: ClientIP(ctx, trusted), UserAgent: UserAgent(ctx)}
		return handler(context.WithValue(ctx, clientKey, c), req)
	}
}

// Client returns where the request came from. Outside ClientUnary only the peer address is used.
func Client(ctx context.Context) sessiondomain.ClientContext {
	if c, ok := ctx.Value(clientKey).(sessiondomain.ClientContext); ok {
		return c
	}
	return sessiondomain.ClientContext{IP: ClientIP(ctx, nil), UserAgent: UserAgent(ctx)}
}
