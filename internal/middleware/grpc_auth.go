package middleware

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GRPCAuthMiddleware authenticates unary gRPC calls from "authorization" metadata.
type GRPCAuthMiddleware struct {
	tokens TokenValidator
	public map[string]bool
}

// NewGRPCAuthMiddleware builds the interceptor. Methods listed in publicMethods
// (full method names) are served without a token; a valid token is still attached.
func NewGRPCAuthMiddleware(tokens TokenValidator, publicMethods ...string) *GRPCAuthMiddleware {
	public := make(map[string]bool, len(publicMethods))
	for _, m := range publicMethods {
		public[m] = true
	}
	return &GRPCAuthMiddleware{
		tokens: tokens,
		public: public,
	}
}

func (m *GRPCAuthMiddleware) UnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	isPublic := m.public[info.FullMethod]

	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			if t, ok := BearerToken(values[0]); ok {
				token = t
			} else {
				token = values[0]
			}
		}
	}

	if token == "" {
		if isPublic {
			return handler(ctx, req)
		}
		return nil, status.Error(codes.Unauthenticated, "authorization token is required")
	}

	claims, err := m.tokens.ValidateToken(token)
	if err != nil {
		if isPublic {
			return handler(ctx, req)
		}
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	return handler(WithPrincipal(ctx, claims.Principal()), req)
}
