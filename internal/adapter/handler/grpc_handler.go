package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/meal-order/internal/core/domain"
	"github.com/rl1809/meal-order/internal/core/service"
)

const storefrontServiceName = "storefront.v1.Storefront"

// JSONCodec carries plain Go structs over gRPC so the menu API needs no
// generated protobuf code. Both ends must force it.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSONCodec) Name() string                       { return "json" }

type ListMenuRequest struct {
	Meal string `json:"meal"`
}

type ListMenuResponse struct {
	Meal domain.Category `json:"meal"`
	Days []DayResponse   `json:"days"`
}

type ActiveMealsRequest struct{}

type ActiveMealsResponse struct {
	Meals []domain.Category `json:"meals"`
}

type StorefrontServer interface {
	ListMenu(ctx context.Context, req *ListMenuRequest) (*ListMenuResponse, error)
	ActiveMeals(ctx context.Context, req *ActiveMealsRequest) (*ActiveMealsResponse, error)
}

type GRPCHandler struct {
	storefront *service.Storefront
	logger     *slog.Logger
}

func NewGRPCHandler(storefront *service.Storefront, logger *slog.Logger) *GRPCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCHandler{storefront: storefront, logger: logger}
}

func (h *GRPCHandler) ListMenu(ctx context.Context, req *ListMenuRequest) (*ListMenuResponse, error) {
	meal, ok := domain.ParseCategory(req.Meal)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown meal %q", req.Meal)
	}

	days, err := h.storefront.Menu(ctx, meal)
	if err != nil {
		h.logger.Error("list menu failed", "meal", meal, "error", err)
		return nil, status.Error(codes.Unavailable, "menu unavailable")
	}
	return &ListMenuResponse{Meal: meal, Days: DayResponses(days)}, nil
}

func (h *GRPCHandler) ActiveMeals(ctx context.Context, _ *ActiveMealsRequest) (*ActiveMealsResponse, error) {
	meals, err := h.storefront.ActiveMeals(ctx)
	if err != nil {
		h.logger.Error("active meals failed", "error", err)
		return nil, status.Error(codes.Unavailable, "menu unavailable")
	}
	return &ActiveMealsResponse{Meals: meals}, nil
}

// NewGRPCServer returns a server that speaks the JSON codec.
func NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	return grpc.NewServer(append([]grpc.ServerOption{grpc.ForceServerCodec(JSONCodec{})}, opts...)...)
}

func RegisterStorefrontServer(s grpc.ServiceRegistrar, srv StorefrontServer) {
	s.RegisterService(&storefrontServiceDesc, srv)
}

var storefrontServiceDesc = grpc.ServiceDesc{
	ServiceName: storefrontServiceName,
	HandlerType: (*StorefrontServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListMenu", Handler: listMenuHandler},
		{MethodName: "ActiveMeals", Handler: activeMealsHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func listMenuHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListMenuRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServer).ListMenu(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + storefrontServiceName + "/ListMenu"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServer).ListMenu(ctx, req.(*ListMenuRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func activeMealsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ActiveMealsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServer).ActiveMeals(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + storefrontServiceName + "/ActiveMeals"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServer).ActiveMeals(ctx, req.(*ActiveMealsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// StorefrontClient calls the menu API over a connection using the JSON codec.
type StorefrontClient struct {
	cc grpc.ClientConnInterface
}

func NewStorefrontClient(cc grpc.ClientConnInterface) *StorefrontClient {
	return &StorefrontClient{cc: cc}
}

func (c *StorefrontClient) ListMenu(ctx context.Context, req *ListMenuRequest, opts ...grpc.CallOption) (*ListMenuResponse, error) {
	out := new(ListMenuResponse)
	if err := c.cc.Invoke(ctx, "/"+storefrontServiceName+"/ListMenu", req, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StorefrontClient) ActiveMeals(ctx context.Context, req *ActiveMealsRequest, opts ...grpc.CallOption) (*ActiveMealsResponse, error) {
	out := new(ActiveMealsResponse)
	if err := c.cc.Invoke(ctx, "/"+storefrontServiceName+"/ActiveMeals", req, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withJSON(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(JSONCodec{})}, opts...)
}
