// Package grpcapi exposes the moderation workflow over gRPC. Messages are
// google.protobuf.Struct documents shaped like the JSON API bodies.
package grpcapi

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/blog-platform/internal/platform/auth"
	"github.com/example/blog-platform/services/blog/internal/comments"
	"github.com/example/blog-platform/services/blog/internal/moderation"
	"github.com/example/blog-platform/services/blog/internal/permission"
	"github.com/example/blog-platform/services/blog/internal/store"
)

const ServiceName = "blog.moderation.v1.ModerationService"

// ModerationServer is the method set behind ServiceDesc.
type ModerationServer interface {
	GetReplies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReportComment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReviewReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BlockComment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UnblockComment(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ModerationServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetReplies", ModerationServer.GetReplies),
		unary("ReportComment", ModerationServer.ReportComment),
		unary("ReviewReport", ModerationServer.ReviewReport),
		unary("BlockComment", ModerationServer.BlockComment),
		unary("UnblockComment", ModerationServer.UnblockComment),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blog/moderation/v1/moderation.proto",
}

func unary(name string, call func(ModerationServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ModerationServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ModerationServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// Server implements ModerationServer on top of the domain services.
type Server struct {
	Comments   *comments.Service
	Moderation *moderation.Service
	Verifier   auth.JWTVerifier
}

// Register installs the moderation, health and reflection services on s.
func Register(s *grpc.Server, srv *Server) {
	s.RegisterService(&ServiceDesc, srv)
	h := health.NewServer()
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)
}

// actor resolves the caller from the "authorization: Bearer <jwt>" metadata.
// No metadata means an anonymous caller; a bad token is rejected.
func (s *Server) actor(ctx context.Context) (permission.Actor, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return permission.Anonymous, nil
	}
	vals := md.Get("authorization")
	if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
		return permission.Anonymous, nil
	}
	parts := strings.SplitN(strings.TrimSpace(vals[0]), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return permission.Actor{}, status.Error(codes.Unauthenticated, "malformed authorization metadata")
	}
	claims, err := s.Verifier.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		return permission.Actor{}, status.Error(codes.Unauthenticated, "invalid token")
	}
	return permission.Actor{UserID: claims.Subject, Name: claims.Name, Roles: claims.AllRoles()}, nil
}

func (s *Server) GetReplies(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := idField(in, "comment_id")
	if err != nil {
		return nil, err
	}
	nodes, err := s.Comments.Replies(ctx, id, permission.CanViewBlocked(actor))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"replies": nodes})
}

func (s *Server) ReportComment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := idField(in, "comment_id")
	if err != nil {
		return nil, err
	}
	rep, err := s.Moderation.CreateReport(ctx, actor, id, moderation.ReportInput{
		Reason:  stringField(in, "reason"),
		Details: optionalString(in, "details"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"report": rep})
}

func (s *Server) ReviewReport(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := idField(in, "report_id")
	if err != nil {
		return nil, err
	}
	st, err := store.ParseReportStatus(stringField(in, "status"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "status must be reviewed, rejected or action_taken")
	}
	rep, err := s.Moderation.ReviewReport(ctx, actor, id, st, optionalString(in, "notes"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"report": rep})
}

func (s *Server) BlockComment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := idField(in, "comment_id")
	if err != nil {
		return nil, err
	}
	res, err := s.Moderation.BlockComment(ctx, actor, id, stringField(in, "reason"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(res)
}

func (s *Server) UnblockComment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := idField(in, "comment_id")
	if err != nil {
		return nil, err
	}
	c, err := s.Moderation.UnblockComment(ctx, actor, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"comment": c})
}

// UnaryLogger logs every call with its method and resulting code.
func UnaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if code == codes.Internal || code == codes.Unknown {
			log.Error("grpc call", zap.String("method", info.FullMethod), zap.String("code", code.String()), zap.Error(err))
		} else {
			log.Debug("grpc call", zap.String("method", info.FullMethod), zap.String("code", code.String()))
		}
		return resp, err
	}
}

// toStruct round-trips v through its JSON form so gRPC payloads match the
// HTTP API byte for byte.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return out, nil
}
