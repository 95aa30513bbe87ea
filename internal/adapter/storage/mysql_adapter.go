package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/meal-order/internal/core/domain"
)

var ErrDuplicateOrder = errors.New("order already archived")

// MySQLLedger archives dispatched orders for the kitchen's records.
type MySQLLedger struct {
	db *sql.DB
}

func NewMySQLLedger(db *sql.DB) *MySQLLedger {
	return &MySQLLedger{db: db}
}

func (m *MySQLLedger) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id               VARCHAR(32)    NOT NULL,
			ref              CHAR(36)       NOT NULL PRIMARY KEY,
			customer_name    VARCHAR(255)   NOT NULL,
			customer_phone   VARCHAR(64)    NOT NULL,
			customer_address TEXT           NOT NULL,
			total            DECIMAL(10, 2) NOT NULL,
			slot             VARCHAR(64)    NOT NULL,
			status           VARCHAR(32)    NOT NULL,
			created_at       DATETIME       NOT NULL,
			INDEX idx_orders_id (id)
		)`,
		`CREATE TABLE IF NOT EXISTS order_lines (
			order_ref     CHAR(36)       NOT NULL,
			line_no       INT            NOT NULL,
			item_id       VARCHAR(128)   NOT NULL,
			name          VARCHAR(255)   NOT NULL,
			category      VARCHAR(32)    NOT NULL,
			price         DECIMAL(10, 2) NOT NULL,
			quantity      INT            NOT NULL,
			delivery_date DATE           NOT NULL,
			day_label     VARCHAR(32)    NOT NULL,
			PRIMARY KEY (order_ref, line_no)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLLedger) SaveOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT IGNORE INTO orders (id, ref, customer_name, customer_phone, customer_address, total, slot, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.Ref, order.Customer.Name, order.Customer.Phone, order.Customer.Address,
		order.Total, order.Slot, order.Status, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrDuplicateOrder
	}

	for i, line := range order.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_ref, line_no, item_id, name, category, price, quantity, delivery_date, day_label)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.Ref, i+1, line.ItemID, line.Name, line.Category, line.Price, line.Quantity,
			domain.DateKey(line.DeliveryDate), line.DayLabel,
		)
		if err != nil {
			return fmt.Errorf("insert line %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// GetOrder returns the most recent archived order with the display id.
// Display ids are only unique per device, so older duplicates are ignored.
func (m *MySQLLedger) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, ref, customer_name, customer_phone, customer_address, total, slot, status, created_at
		FROM orders WHERE id = ? ORDER BY created_at DESC LIMIT 1`, orderID,
	).Scan(&order.ID, &order.Ref, &order.Customer.Name, &order.Customer.Phone, &order.Customer.Address,
		&order.Total, &order.Slot, &order.Status, &order.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT item_id, name, category, price, quantity, delivery_date, day_label
		FROM order_lines WHERE order_ref = ? ORDER BY line_no`, order.Ref)
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLineItem
		if err := rows.Scan(&line.ItemID, &line.Name, &line.Category, &line.Price, &line.Quantity,
			&line.DeliveryDate, &line.DayLabel); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines: %w", err)
	}
	return &order, nil
}
