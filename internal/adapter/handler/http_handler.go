package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rl1809/meal-order/internal/core/domain"
	"github.com/rl1809/meal-order/internal/core/service"
)

type HTTPHandler struct {
	storefront *service.Storefront
	logger     *slog.Logger
}

type AddToCartRequest struct {
	ItemID string `json:"itemId" binding:"required"`
	Date   string `json:"date" binding:"required"`
}

// UpdateLineRequest either sets an absolute quantity or steps it by one.
type UpdateLineRequest struct {
	Quantity *int   `json:"qty"`
	Action   string `json:"action"`
}

type SlotRequest struct {
	Slot string `json:"slot" binding:"required"`
}

type WindowResponse struct {
	domain.AvailabilityWindow
	Badge     string `json:"badge,omitempty"`
	Countdown string `json:"countdown,omitempty"`
	Slot      string `json:"slot"`
}

type DayResponse struct {
	Date  string           `json:"date"`
	Label string           `json:"label"`
	Items []WindowResponse `json:"items"`
}

type CartResponse struct {
	State  domain.State          `json:"state"`
	Slot   string                `json:"slot"`
	Lines  []domain.CartLineItem `json:"lines"`
	Groups []domain.DayGroup     `json:"groups"`
	Total  float64               `json:"total"`
}

type DispatchResponse struct {
	Order           domain.Order `json:"order"`
	ChatURL         string       `json:"chatUrl"`
	RedirectTo      string       `json:"redirectTo"`
	RedirectAfterMs int64        `json:"redirectAfterMs"`
}

func NewHTTPHandler(storefront *service.Storefront, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{storefront: storefront, logger: logger}
}

// NewRouter registers every route on a fresh engine. An empty origin list
// disables CORS.
func NewRouter(h *HTTPHandler, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(allowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: allowOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/meals", h.ActiveMeals)
		api.GET("/menu", h.Menu)
		api.GET("/support", h.Support)
		api.POST("/sessions", h.CreateSession)
	}

	sessions := api.Group("/sessions/:id")
	{
		sessions.PUT("/profile", h.Signup)
		sessions.GET("/cart", h.GetCart)
		sessions.POST("/cart", h.AddToCart)
		sessions.PATCH("/cart/:line", h.UpdateLine)
		sessions.DELETE("/cart/:line", h.RemoveLine)
		sessions.PUT("/slot", h.SetSlot)
		sessions.POST("/checkout/confirm", h.ConfirmPayment)
		sessions.POST("/checkout/dispatch", h.Dispatch)
	}

	return r
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) ActiveMeals(c *gin.Context) {
	meals, err := h.storefront.ActiveMeals(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if meals == nil {
		meals = []domain.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

func (h *HTTPHandler) Menu(c *gin.Context) {
	meal, ok := domain.ParseCategory(c.Query("meal"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown meal"})
		return
	}

	days, err := h.storefront.Menu(c.Request.Context(), meal)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"meal": meal, "days": DayResponses(days)})
}

func (h *HTTPHandler) Support(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"url": h.storefront.SupportLink()})
}

func (h *HTTPHandler) CreateSession(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"sessionId": h.storefront.NewSession()})
}

func (h *HTTPHandler) Signup(c *gin.Context) {
	var req domain.UserProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sessionID := c.Param("id")
	if err := h.storefront.Signup(c.Request.Context(), sessionID, req); err != nil {
		h.writeError(c, err)
		return
	}

	profile, err := h.storefront.Profile(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *HTTPHandler) GetCart(c *gin.Context) {
	checkout, err := h.storefront.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(checkout))
}

func (h *HTTPHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	date, err := h.storefront.ParseDate(req.Date)
	if err != nil {
		h.writeError(c, err)
		return
	}

	sessionID := c.Param("id")
	line, err := h.storefront.AddToCart(c.Request.Context(), sessionID, req.ItemID, date)
	if err != nil {
		h.writeError(c, err)
		return
	}

	checkout, err := h.storefront.Session(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"line": line, "cart": cartResponse(checkout)})
}

func (h *HTTPHandler) UpdateLine(c *gin.Context) {
	var req UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	checkout, err := h.storefront.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	lineID := c.Param("line")
	switch {
	case req.Quantity != nil:
		err = checkout.SetQuantity(lineID, *req.Quantity)
	case req.Action == "increase":
		err = checkout.Increase(lineID)
	case req.Action == "decrease":
		err = checkout.Decrease(lineID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "qty or action is required"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(checkout))
}

func (h *HTTPHandler) RemoveLine(c *gin.Context) {
	checkout, err := h.storefront.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := checkout.Remove(c.Param("line")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(checkout))
}

func (h *HTTPHandler) SetSlot(c *gin.Context) {
	var req SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot is required"})
		return
	}

	checkout, err := h.storefront.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := checkout.SetSlot(req.Slot); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(checkout))
}

func (h *HTTPHandler) ConfirmPayment(c *gin.Context) {
	checkout, err := h.storefront.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := checkout.ConfirmPayment(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(checkout))
}

// Dispatch sends the order and clears the cart in one request; the client
// opens the chat link and redirects after the returned delay.
func (h *HTTPHandler) Dispatch(c *gin.Context) {
	checkout, err := h.storefront.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	d, err := checkout.Dispatch(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := checkout.Complete(); err != nil {
		h.logger.Warn("failed to clear cart after dispatch", "order_id", d.Order.ID, "error", err)
	}

	c.JSON(http.StatusOK, DispatchResponse{
		Order:           d.Order,
		ChatURL:         d.ChatURL,
		RedirectTo:      d.RedirectTo,
		RedirectAfterMs: d.RedirectAfter.Milliseconds(),
	})
}

// DayResponses renders resolved days for API clients.
func DayResponses(days []domain.DayMenu) []DayResponse {
	resp := make([]DayResponse, 0, len(days))
	for _, day := range days {
		items := make([]WindowResponse, 0, len(day.Windows))
		for _, w := range day.Windows {
			items = append(items, WindowResponse{
				AvailabilityWindow: w,
				Badge:              w.Label(),
				Countdown:          w.Countdown(),
				Slot:               w.Slot(),
			})
		}
		resp = append(resp, DayResponse{Date: domain.DateKey(day.Date), Label: day.Label, Items: items})
	}
	return resp
}

func cartResponse(checkout *service.Checkout) CartResponse {
	lines := checkout.Lines()
	groups := checkout.GroupByDay()
	if groups == nil {
		groups = []domain.DayGroup{}
	}
	return CartResponse{
		State:  checkout.State(),
		Slot:   checkout.Slot(),
		Lines:  lines,
		Groups: groups,
		Total:  checkout.Total(),
	}
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": domain.Reason(err)})
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrLineNotFound),
		errors.Is(err, domain.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
