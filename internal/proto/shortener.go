package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const ServiceName = "shortlinks.Shortener"

// Full method names, as seen by interceptors.
const (
	MethodLogin     = "/" + ServiceName + "/Login"
	MethodCreateURL = "/" + ServiceName + "/CreateURL"
	MethodGetURL    = "/" + ServiceName + "/GetURL"
	MethodListURLs  = "/" + ServiceName + "/ListURLs"
	MethodDeleteURL = "/" + ServiceName + "/DeleteURL"
	MethodResolve   = "/" + ServiceName + "/Resolve"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string                 `json:"token"`
	Username  string                 `json:"username"`
	Role      string                 `json:"role"`
	ExpiresAt *timestamppb.Timestamp `json:"expiresAt"`
}

type CreateURLRequest struct {
	OriginalUrl string `json:"originalUrl"`
}

type URLMessage struct {
	Id                int64                  `json:"id"`
	OriginalUrl       string                 `json:"originalUrl"`
	ShortCode         string                 `json:"shortCode"`
	ShortUrl          string                 `json:"shortUrl"`
	CreatedBy         string                 `json:"createdBy"`
	CreatedByFullName string                 `json:"createdByFullName,omitempty"`
	CreatedDate       *timestamppb.Timestamp `json:"createdDate"`
	ClickCount        int64                  `json:"clickCount"`
	LastAccessedDate  *timestamppb.Timestamp `json:"lastAccessedDate,omitempty"`
}

type GetURLRequest struct {
	Id int64 `json:"id"`
}

type ListURLsResponse struct {
	Urls []*URLMessage `json:"urls"`
}

type DeleteURLRequest struct {
	Id int64 `json:"id"`
}

type DeleteURLResponse struct {
	Deleted bool `json:"deleted"`
}

type ResolveRequest struct {
	ShortCode string `json:"shortCode"`
}

type ResolveResponse struct {
	OriginalUrl string `json:"originalUrl"`
}

// ShortenerServer is the server API for the Shortener service.
type ShortenerServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	CreateURL(context.Context, *CreateURLRequest) (*URLMessage, error)
	GetURL(context.Context, *GetURLRequest) (*URLMessage, error)
	ListURLs(context.Context, *emptypb.Empty) (*ListURLsResponse, error)
	DeleteURL(context.Context, *DeleteURLRequest) (*DeleteURLResponse, error)
	Resolve(context.Context, *ResolveRequest) (*ResolveResponse, error)
}

func RegisterShortenerServer(s grpc.ServiceRegistrar, srv ShortenerServer) {
	s.RegisterService(&_Shortener_serviceDesc, srv)
}

// unaryHandler adapts a typed server method to a grpc.MethodDesc handler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(ShortenerServer, context.Context, *Req) (*Resp, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ShortenerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ShortenerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var _Shortener_serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShortenerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Login",
			Handler:    unaryHandler(MethodLogin, ShortenerServer.Login),
		},
		{
			MethodName: "CreateURL",
			Handler:    unaryHandler(MethodCreateURL, ShortenerServer.CreateURL),
		},
		{
			MethodName: "GetURL",
			Handler:    unaryHandler(MethodGetURL, ShortenerServer.GetURL),
		},
		{
			MethodName: "ListURLs",
			Handler:    unaryHandler(MethodListURLs, ShortenerServer.ListURLs),
		},
		{
			MethodName: "DeleteURL",
			Handler:    unaryHandler(MethodDeleteURL, ShortenerServer.DeleteURL),
		},
		{
			MethodName: "Resolve",
			Handler:    unaryHandler(MethodResolve, ShortenerServer.Resolve),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shortener.proto",
}
