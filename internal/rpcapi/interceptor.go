// Package rpcapi adapts the access-control check to gRPC unary calls. The
// token travels in the "authorization" metadata key; per-method role sets
// mirror the HTTP guard.
package rpcapi

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"photomosaic.app/internal/audit"
	"photomosaic.app/internal/auth"
	"photomosaic.app/internal/obs"
)

const authorizationKey = "authorization"

// ownerRequest is implemented by request messages scoped to an account.
type ownerRequest interface {
	GetUsername() string
}

// UnaryAccessControl returns an interceptor enforcing the token policy on
// every unary call. methodRoles maps full method names to the roles allowed
// to call them; methods absent from the map are admin-only.
func UnaryAccessControl(svc *auth.Service, methodRoles map[string][]string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var username string
		if owned, ok := req.(ownerRequest); ok {
			username = owned.GetUsername()
		}

		claims, err := svc.Codec().Decode(tokenFromContext(ctx))
		decision := auth.Decide(claims, err, username, methodRoles[info.FullMethod], time.Now())
		obs.ObserveAuthDecision(decision.Allowed, decision.Reason.String())
		if !decision.Allowed {
			_ = audit.LogEvent(ctx, "auth.denied", map[string]any{
				"method": info.FullMethod,
				"owner":  username,
				"reason": decision.Reason.String(),
			})
			return nil, status.Error(codes.PermissionDenied, decision.Reason.Message())
		}
		return handler(auth.ContextWithClaims(ctx, *claims), req)
	}
}

func tokenFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(authorizationKey)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
