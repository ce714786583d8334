package handler

import (
	"context"

	"github.com/MikhailRaia/shortlinks/internal/errx"
	"github.com/MikhailRaia/shortlinks/internal/middleware"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/proto"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// PublicGRPCMethods returns the methods served without a bearer token.
// ListURLs is only among them while the HTTP list is public too.
func PublicGRPCMethods(requireAuthForList bool) []string {
	methods := []string{proto.MethodLogin, proto.MethodResolve}
	if !requireAuthForList {
		methods = append(methods, proto.MethodListURLs)
	}
	return methods
}

type ShortenerGRPCServer struct {
	urlService  URLService
	authService AuthService
	clicks      ClickQueue
}

func NewShortenerGRPCServer(urlService URLService, authService AuthService, clicks ClickQueue) *ShortenerGRPCServer {
	return &ShortenerGRPCServer{
		urlService:  urlService,
		authService: authService,
		clicks:      clicks,
	}
}

func (s *ShortenerGRPCServer) Login(ctx context.Context, req *proto.LoginRequest) (*proto.LoginResponse, error) {
	resp, err := s.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, grpcError(err)
	}

	return &proto.LoginResponse{
		Token:     resp.Token,
		Username:  resp.Username,
		Role:      string(resp.Role),
		ExpiresAt: timestamppb.New(resp.ExpiresAt),
	}, nil
}

func (s *ShortenerGRPCServer) CreateURL(ctx context.Context, req *proto.CreateURLRequest) (*proto.URLMessage, error) {
	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}

	view, err := s.urlService.CreateShortURL(ctx, req.OriginalUrl, principal)
	if err != nil {
		return nil, grpcError(err)
	}

	return urlMessage(view), nil
}

func (s *ShortenerGRPCServer) GetURL(ctx context.Context, req *proto.GetURLRequest) (*proto.URLMessage, error) {
	if req.Id <= 0 {
		return nil, status.Error(codes.NotFound, "URL not found")
	}

	details, err := s.urlService.GetDetails(ctx, req.Id)
	if err != nil {
		return nil, grpcError(err)
	}

	msg := urlMessage(details.URLView)
	msg.CreatedByFullName = details.CreatedByFullName
	return msg, nil
}

func (s *ShortenerGRPCServer) ListURLs(ctx context.Context, _ *emptypb.Empty) (*proto.ListURLsResponse, error) {
	views, err := s.urlService.ListAll(ctx)
	if err != nil {
		return nil, grpcError(err)
	}

	resp := &proto.ListURLsResponse{
		Urls: make([]*proto.URLMessage, 0, len(views)),
	}
	for _, v := range views {
		resp.Urls = append(resp.Urls, urlMessage(v))
	}

	return resp, nil
}

func (s *ShortenerGRPCServer) DeleteURL(ctx context.Context, req *proto.DeleteURLRequest) (*proto.DeleteURLResponse, error) {
	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}

	deleted, err := s.urlService.Delete(ctx, req.Id, principal)
	if err != nil {
		return nil, grpcError(err)
	}
	if !deleted {
		return nil, status.Error(codes.NotFound, "URL not found")
	}

	return &proto.DeleteURLResponse{Deleted: true}, nil
}

func (s *ShortenerGRPCServer) Resolve(ctx context.Context, req *proto.ResolveRequest) (*proto.ResolveResponse, error) {
	if req.ShortCode == "" {
		return nil, status.Error(codes.InvalidArgument, "shortCode is required")
	}

	originalURL, err := s.urlService.ResolveOriginalURL(ctx, req.ShortCode)
	if err != nil {
		return nil, grpcError(err)
	}

	if s.clicks == nil || s.clicks.Submit(ctx, req.ShortCode) != nil {
		if err := s.urlService.RecordClick(ctx, req.ShortCode); err != nil {
			log.Error().Err(err).Str("code", req.ShortCode).Msg("Failed to record click")
		}
	}

	return &proto.ResolveResponse{OriginalUrl: originalURL}, nil
}

func urlMessage(v model.URLView) *proto.URLMessage {
	msg := &proto.URLMessage{
		Id:          v.ID,
		OriginalUrl: v.OriginalURL,
		ShortCode:   v.ShortCode,
		ShortUrl:    v.ShortURL,
		CreatedBy:   v.CreatedBy,
		CreatedDate: timestamppb.New(v.CreatedDate),
		ClickCount:  v.ClickCount,
	}
	if v.LastAccessedDate != nil {
		msg.LastAccessedDate = timestamppb.New(*v.LastAccessedDate)
	}
	return msg
}

func grpcError(err error) error {
	var code codes.Code
	switch errx.KindOf(err) {
	case errx.Invalid:
		code = codes.InvalidArgument
	case errx.Conflict:
		code = codes.AlreadyExists
	case errx.Unauthorized:
		code = codes.Unauthenticated
	case errx.Forbidden:
		code = codes.PermissionDenied
	case errx.NotFound:
		code = codes.NotFound
	case errx.Unavailable:
		code = codes.Unavailable
	default:
		log.Error().Err(err).Str("op", errx.OpOf(err)).Msg("gRPC call failed")
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, errx.Message(err))
}
