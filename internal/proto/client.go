package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ShortenerClient is the client API for the Shortener service. The
// connection must be dialled with DialOptions so both ends agree on JSONCodec.
type ShortenerClient struct {
	cc grpc.ClientConnInterface
}

func NewShortenerClient(cc grpc.ClientConnInterface) *ShortenerClient {
	return &ShortenerClient{cc: cc}
}

// DialOptions returns the options a client connection needs.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithDefaultCallOptions(grpc.ForceCodec(JSONCodec{})),
	}
}

func (c *ShortenerClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	out := new(LoginResponse)
	if err := c.cc.Invoke(ctx, MethodLogin, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ShortenerClient) CreateURL(ctx context.Context, in *CreateURLRequest, opts ...grpc.CallOption) (*URLMessage, error) {
	out := new(URLMessage)
	if err := c.cc.Invoke(ctx, MethodCreateURL, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ShortenerClient) GetURL(ctx context.Context, in *GetURLRequest, opts ...grpc.CallOption) (*URLMessage, error) {
	out := new(URLMessage)
	if err := c.cc.Invoke(ctx, MethodGetURL, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ShortenerClient) ListURLs(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListURLsResponse, error) {
	out := new(ListURLsResponse)
	if err := c.cc.Invoke(ctx, MethodListURLs, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ShortenerClient) DeleteURL(ctx context.Context, in *DeleteURLRequest, opts ...grpc.CallOption) (*DeleteURLResponse, error) {
	out := new(DeleteURLResponse)
	if err := c.cc.Invoke(ctx, MethodDeleteURL, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ShortenerClient) Resolve(ctx context.Context, in *ResolveRequest, opts ...grpc.CallOption) (*ResolveResponse, error) {
	out := new(ResolveResponse)
	if err := c.cc.Invoke(ctx, MethodResolve, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
