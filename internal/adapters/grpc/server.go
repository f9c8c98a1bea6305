// Package grpc exposes token verification to sibling services so they can
// trust a gate credential without re-checking the identity proof.
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ethosgate/reputation-gate/internal/application"
)

type GateInternalService interface {
	VerifyToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type GateInternalServer struct {
	service *application.Service
}

func NewGateInternalServer(service *application.Service) *GateInternalServer {
	return &GateInternalServer{service: service}
}

// Register installs the service with an ad-hoc descriptor; payloads are
// structpb so no generated stubs are needed on either side.
func Register(server grpc.ServiceRegistrar, svc GateInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "ethosgate.gate.v1.GateInternalService",
		HandlerType: (*GateInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "VerifyToken",
				Handler:    verifyTokenHandler(svc),
			},
		},
		Streams: []grpc.StreamDesc{},
	}, svc)
}

func (s *GateInternalServer) VerifyToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tokenVal := req.GetFields()["token"]
	if tokenVal == nil || tokenVal.GetStringValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	claims, err := s.service.VerifyToken(ctx, tokenVal.GetStringValue())
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	out, err := structpb.NewStruct(map[string]any{
		"address":    claims.Address,
		"score":      claims.Score,
		"tier":       claims.Tier,
		"issued_at":  claims.IssuedAt.Unix(),
		"expires_at": claims.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "encode claims")
	}
	return out, nil
}

func verifyTokenHandler(svc GateInternalService) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.VerifyToken(ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     svc,
			FullMethod: "/ethosgate.gate.v1.GateInternalService/VerifyToken",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return svc.VerifyToken(ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
