package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rl1809/meal-order/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/mealorder?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	return db
}

func testOrder(id string) domain.Order {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	return domain.Order{
		ID:  id,
		Ref: uuid.NewString(),
		Lines: []domain.CartLineItem{
			{ItemID: "l1", Name: "Veg Thali", Price: 120, Category: domain.CategoryLunch, DeliveryDate: day, Quantity: 2, DayLabel: "Monday"},
			{ItemID: "s1", Name: "Samosa", Price: 20, Category: domain.CategorySnacks, DeliveryDate: day.AddDate(0, 0, 1), Quantity: 3, DayLabel: "Tuesday"},
		},
		Total:     300,
		Slot:      domain.SlotLunch,
		Customer:  domain.UserProfile{Name: "Asha", Phone: "9876543210", Address: "12 Lake Road"},
		Status:    domain.OrderStatusArchived,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSaveOrder_Success(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	ledger := NewMySQLLedger(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	order := testOrder("TEST-" + time.Now().Format("150405.000"))
	defer func() {
		db.ExecContext(ctx, `DELETE FROM order_lines WHERE order_ref = ?`, order.Ref)
		db.ExecContext(ctx, `DELETE FROM orders WHERE ref = ?`, order.Ref)
	}()

	if err := ledger.SaveOrder(ctx, order); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}

	got, err := ledger.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected order, got nil")
	}
	if got.Ref != order.Ref {
		t.Errorf("expected ref %s, got %s", order.Ref, got.Ref)
	}
	if got.Total != 300 {
		t.Errorf("expected total 300, got %v", got.Total)
	}
	if got.Customer != order.Customer {
		t.Errorf("expected customer %+v, got %+v", order.Customer, got.Customer)
	}
	if len(got.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got.Lines))
	}
	if got.Lines[1].Name != "Samosa" || got.Lines[1].Quantity != 3 {
		t.Errorf("unexpected second line: %+v", got.Lines[1])
	}
	if domain.DateKey(got.Lines[0].DeliveryDate) != "2026-10-19" {
		t.Errorf("expected delivery date 2026-10-19, got %s", domain.DateKey(got.Lines[0].DeliveryDate))
	}
}

func TestSaveOrder_Duplicate(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	ledger := NewMySQLLedger(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	order := testOrder("DUP-" + time.Now().Format("150405.000"))
	defer func() {
		db.ExecContext(ctx, `DELETE FROM order_lines WHERE order_ref = ?`, order.Ref)
		db.ExecContext(ctx, `DELETE FROM orders WHERE ref = ?`, order.Ref)
	}()

	if err := ledger.SaveOrder(ctx, order); err != nil {
		t.Fatalf("first SaveOrder failed: %v", err)
	}
	err := ledger.SaveOrder(ctx, order)
	if !errors.Is(err, ErrDuplicateOrder) {
		t.Errorf("expected ErrDuplicateOrder, got: %v", err)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	ledger := NewMySQLLedger(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	order, err := ledger.GetOrder(ctx, "nonexistent-order")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != nil {
		t.Error("expected nil for nonexistent order")
	}
}
