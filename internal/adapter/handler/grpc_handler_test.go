package handler

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/meal-order/internal/core/domain"
)

func setupGRPCClient(t *testing.T) *StorefrontClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer()
	RegisterStorefrontServer(srv, NewGRPCHandler(newTestStorefront(t), nil))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewStorefrontClient(conn)
}

func TestGRPC_ListMenu(t *testing.T) {
	client := setupGRPCClient(t)

	resp, err := client.ListMenu(context.Background(), &ListMenuRequest{Meal: "Lunch"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Meal != domain.CategoryLunch {
		t.Errorf("expected lunch, got %s", resp.Meal)
	}
	if len(resp.Days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(resp.Days))
	}
	if resp.Days[1].Date != "2026-10-16" || resp.Days[1].Items[0].Countdown != "12h 0m" {
		t.Errorf("unexpected Friday %+v", resp.Days[1])
	}
	if !resp.Days[1].Items[0].Orderable || resp.Days[1].Items[0].Item.Name != "Veg Thali" {
		t.Errorf("expected Veg Thali orderable on Friday")
	}
}

func TestGRPC_ListMenuUnknownMeal(t *testing.T) {
	client := setupGRPCClient(t)

	_, err := client.ListMenu(context.Background(), &ListMenuRequest{Meal: "brunch"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestGRPC_ActiveMeals(t *testing.T) {
	client := setupGRPCClient(t)

	resp, err := client.ActiveMeals(context.Background(), &ActiveMealsRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Meals) != 2 || resp.Meals[0] != domain.CategoryBreakfast || resp.Meals[1] != domain.CategoryLunch {
		t.Errorf("unexpected meals %v", resp.Meals)
	}
}
