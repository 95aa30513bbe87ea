package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/meal-order/internal/adapter/sink"
	"github.com/rl1809/meal-order/internal/adapter/storage"
	"github.com/rl1809/meal-order/internal/clock"
	"github.com/rl1809/meal-order/internal/core/service"
)

const handlerMenu = `id,name,price,category,isActive,availableDays,stockAvailability
l1,Veg Thali,120,lunch,true,mon|tue|wed|thu|fri,in
x1,Biryani,150,lunch,true,mon,out
b1,Idli,40,breakfast,yes,mon,in
`

type staticFeed string

func (f staticFeed) Fetch(ctx context.Context) (string, error) { return string(f), nil }

func newTestStorefront(t *testing.T) *service.Storefront {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "store.db"), storage.DefaultKeys())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	// Thursday 15 Oct 2026, 09:00 UTC.
	clk := clock.NewFixed(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	catalog := service.NewCatalogService(staticFeed(handlerMenu), store, clk, time.Hour, logger)
	resolver := service.NewResolver(clk, time.UTC)
	orderSink := sink.NewClient(sink.Config{Phone: "+919876543210", StoreName: "Sakthi Kitchen"}, nil, logger)
	return service.NewStorefront(catalog, resolver, store, orderSink, 0, logger)
}

func setupTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHTTPHandler(newTestStorefront(t), nil), nil)
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	return decode[map[string]string](t, w)["sessionId"]
}

func TestHealthCheck(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestActiveMeals(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/meals", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	meals := decode[map[string][]string](t, w)["meals"]
	if len(meals) != 2 || meals[0] != "breakfast" || meals[1] != "lunch" {
		t.Errorf("unexpected meals %v", meals)
	}
}

func TestMenu(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/menu?meal=lunch", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Meal string        `json:"meal"`
		Days []DayResponse `json:"days"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(resp.Days))
	}
	if resp.Days[0].Items[0].Badge != "ORDER CLOSED" {
		t.Errorf("expected today's lunch closed, got %q", resp.Days[0].Items[0].Badge)
	}
	if resp.Days[1].Items[0].Countdown != "12h 0m" {
		t.Errorf("expected 12h 0m for tomorrow, got %q", resp.Days[1].Items[0].Countdown)
	}
	monday := resp.Days[2]
	if monday.Date != "2026-10-19" || len(monday.Items) != 2 || monday.Items[1].Badge != "OUT OF STOCK" {
		t.Errorf("unexpected Monday %+v", monday)
	}

	if w := doJSON(r, http.MethodGet, "/api/menu?meal=brunch", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown meal, got %d", w.Code)
	}
}

func TestSupport(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/support", nil)
	if got := decode[map[string]string](t, w)["url"]; got != "https://wa.me/919876543210?text=Hello%2C%20I%20need%20help" {
		t.Errorf("unexpected support url %s", got)
	}
}

func TestCheckoutFlow(t *testing.T) {
	r := setupTestRouter(t)
	id := createSession(t, r)
	base := "/api/sessions/" + id

	// Confirm before anything is in the cart.
	w := doJSON(r, http.MethodPost, base+"/checkout/confirm", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", w.Code)
	}
	if msg := decode[map[string]string](t, w)["error"]; msg != "Cart empty" {
		t.Errorf("unexpected error %q", msg)
	}

	w = doJSON(r, http.MethodPost, base+"/cart", AddToCartRequest{ItemID: "l1", Date: "2026-10-19"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	doJSON(r, http.MethodPost, base+"/cart", AddToCartRequest{ItemID: "l1", Date: "2026-10-19"})

	qty := 3
	w = doJSON(r, http.MethodPatch, base+"/cart/l1@2026-10-19", UpdateLineRequest{Quantity: &qty})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if cart := decode[CartResponse](t, w); cart.Total != 360 || cart.Lines[0].Quantity != 3 {
		t.Errorf("unexpected cart %+v", cart)
	}

	// Signup is required before payment can be confirmed.
	w = doJSON(r, http.MethodPost, base+"/checkout/confirm", nil)
	if msg := decode[map[string]string](t, w)["error"]; msg != "Please sign up first." {
		t.Errorf("unexpected error %q", msg)
	}

	w = doJSON(r, http.MethodPut, base+"/profile", map[string]string{"name": "Asha", "phone": "9876543210", "address": "12 Lake Road"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPut, base+"/slot", SlotRequest{Slot: "04:00 PM – 06:00 PM"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for slot, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, base+"/checkout/confirm", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if cart := decode[CartResponse](t, w); cart.State != "payment_confirmed" {
		t.Errorf("unexpected state %s", cart.State)
	}

	w = doJSON(r, http.MethodPost, base+"/checkout/dispatch", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	d := decode[DispatchResponse](t, w)
	if d.Order.ID != "T001" || d.RedirectTo != "/success" || d.RedirectAfterMs != 1200 {
		t.Errorf("unexpected dispatch %+v", d)
	}
	if d.Order.Slot != "04:00 PM – 06:00 PM" {
		t.Errorf("unexpected slot %s", d.Order.Slot)
	}

	w = doJSON(r, http.MethodGet, base+"/cart", nil)
	if cart := decode[CartResponse](t, w); cart.State != "cleared" || len(cart.Lines) != 0 {
		t.Errorf("expected cleared cart, got %+v", cart)
	}
}

func TestCartErrors(t *testing.T) {
	r := setupTestRouter(t)
	id := createSession(t, r)
	base := "/api/sessions/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown session", http.MethodGet, "/api/sessions/nope/cart", nil, http.StatusNotFound},
		{"missing fields", http.MethodPost, base + "/cart", map[string]string{"itemId": "l1"}, http.StatusBadRequest},
		{"bad date", http.MethodPost, base + "/cart", AddToCartRequest{ItemID: "l1", Date: "19/10/2026"}, http.StatusUnprocessableEntity},
		{"unknown item", http.MethodPost, base + "/cart", AddToCartRequest{ItemID: "zz", Date: "2026-10-19"}, http.StatusNotFound},
		{"out of stock", http.MethodPost, base + "/cart", AddToCartRequest{ItemID: "x1", Date: "2026-10-19"}, http.StatusUnprocessableEntity},
		{"closed", http.MethodPost, base + "/cart", AddToCartRequest{ItemID: "l1", Date: "2026-10-15"}, http.StatusUnprocessableEntity},
		{"unknown line", http.MethodDelete, base + "/cart/l1@2026-10-19", nil, http.StatusNotFound},
		{"empty patch", http.MethodPatch, base + "/cart/l1@2026-10-19", map[string]string{}, http.StatusBadRequest},
		{"bad slot", http.MethodPut, base + "/slot", SlotRequest{Slot: "midnight"}, http.StatusUnprocessableEntity},
		{"dispatch unconfirmed", http.MethodPost, base + "/checkout/dispatch", nil, http.StatusUnprocessableEntity},
		{"invalid profile", http.MethodPut, base + "/profile", map[string]string{"name": "Asha"}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestDecreaseAndRemove(t *testing.T) {
	r := setupTestRouter(t)
	id := createSession(t, r)
	base := "/api/sessions/" + id

	doJSON(r, http.MethodPost, base+"/cart", AddToCartRequest{ItemID: "l1", Date: "2026-10-19"})
	doJSON(r, http.MethodPost, base+"/cart", AddToCartRequest{ItemID: "l1", Date: "2026-10-20"})

	w := doJSON(r, http.MethodPatch, base+"/cart/l1@2026-10-19", UpdateLineRequest{Action: "decrease"})
	if cart := decode[CartResponse](t, w); len(cart.Lines) != 1 || cart.Lines[0].LineID() != "l1@2026-10-20" {
		t.Errorf("expected only Tuesday's line left, got %+v", cart.Lines)
	}

	w = doJSON(r, http.MethodDelete, base+"/cart/l1@2026-10-20", nil)
	if cart := decode[CartResponse](t, w); cart.State != "empty" || cart.Total != 0 {
		t.Errorf("expected empty cart, got %+v", cart)
	}
}
