package middleware

import (
	"context"
	"strings"

	"github.com/MikhailRaia/secure-shortener/internal/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UserIDMetadataKey carries the client-supplied owner for calls without a body field.
const UserIDMetadataKey = "x-user-id"

type GRPCAuthMiddleware struct {
	verifier auth.TokenVerifier
	required bool
}

func NewGRPCAuthMiddleware(verifier auth.TokenVerifier, required bool) *GRPCAuthMiddleware {
	return &GRPCAuthMiddleware{
		verifier: verifier,
		required: required,
	}
}

func (m *GRPCAuthMiddleware) UnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if m.verifier == nil {
		return handler(ctx, req)
	}

	token := firstMetadata(ctx, "authorization")
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(rest)
	}

	if token == "" {
		if m.required {
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}
		return handler(ctx, req)
	}

	identity, err := m.verifier.Verify(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	return handler(WithIdentity(ctx, identity), req)
}

// ClaimedOwner returns the x-user-id metadata value of an incoming call.
func ClaimedOwner(ctx context.Context) string {
	return firstMetadata(ctx, UserIDMetadataKey)
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}

	return values[0]
}
