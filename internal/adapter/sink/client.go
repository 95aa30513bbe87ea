package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rl1809/meal-order/internal/core/domain"
)

const (
	DefaultChatDomain = "wa.me"
	supportText       = "Hello, I need help"
	defaultTimeout    = 10 * time.Second
)

type Config struct {
	WebhookURL string
	ChatDomain string
	Phone      string
	StoreName  string
}

// Client delivers dispatched orders to the webhook and builds chat links.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// webhookPayload matches the columns expected by the order sheet script.
type webhookPayload struct {
	OrderID         string  `json:"orderId"`
	CustomerName    string  `json:"customerName"`
	CustomerPhone   string  `json:"customerPhone"`
	CustomerAddress string  `json:"customerAddress"`
	Items           string  `json:"items"`
	Total           float64 `json:"total"`
	Slot            string  `json:"slot"`
	OrderDate       string  `json:"orderDate"`
}

func NewClient(cfg Config, client *http.Client, logger *slog.Logger) *Client {
	if cfg.ChatDomain == "" {
		cfg.ChatDomain = DefaultChatDomain
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, client: client, logger: logger}
}

// Submit posts the order to the webhook. It never fails the caller.
func (c *Client) Submit(ctx context.Context, order domain.Order) {
	if c.cfg.WebhookURL == "" {
		return
	}
	if err := c.post(ctx, order); err != nil {
		c.logger.Error("error sending order to sink", "order_id", order.ID, "error", err)
	}
}

func (c *Client) post(ctx context.Context, order domain.Order) error {
	body, err := json.Marshal(webhookPayload{
		OrderID:         order.ID,
		CustomerName:    order.Customer.Name,
		CustomerPhone:   order.Customer.Phone,
		CustomerAddress: order.Customer.Address,
		Items:           order.ItemsSummary(),
		Total:           order.Total,
		Slot:            order.Slot,
		OrderDate:       domain.ShortDate(order.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) ChatLink(order domain.Order) string {
	return c.link(order.ChatMessage(c.cfg.StoreName))
}

func (c *Client) SupportLink() string {
	return c.link(supportText)
}

func (c *Client) link(text string) string {
	phone := strings.ReplaceAll(strings.TrimSpace(c.cfg.Phone), "+", "")
	return fmt.Sprintf("https://%s/%s?text=%s", c.cfg.ChatDomain, phone, encodeText(text))
}

// encodeText percent-encodes like encodeURIComponent, spaces as %20.
func encodeText(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
