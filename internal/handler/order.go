package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/model"
	"github.com/gymboo/gym-backend/internal/queue"
	"github.com/gymboo/gym-backend/internal/repository"
	queue_publisher "github.com/gymboo/gym-backend/internal/service"
)

// OrderHandler serves the rental order endpoints under /carts.
type OrderHandler struct {
	Orders   *repository.OrderRepo
	Products *repository.ProductRepo
}

func NewOrderHandler(orders *repository.OrderRepo, products *repository.ProductRepo) *OrderHandler {
	return &OrderHandler{Orders: orders, Products: products}
}

type orderItemRequest struct {
	ProductID        uint64  `json:"product_id"`
	ProductVariantID *uint64 `json:"product_variant_id"`
	RentalStartDate  string  `json:"rental_start_date"`
	RentalEndDate    string  `json:"rental_end_date"`
	Quantity         uint32  `json:"quantity"`
}

type placeOrderRequest struct {
	Items         []orderItemRequest `json:"items"`
	PaymentMethod string             `json:"payment_method"`
	PickupMethod  string             `json:"pickup_method"`
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone"`
	CustomerEmail string             `json:"customer_email"`
}

const dateLayout = "2006-01-02"

// Place creates an order header and all its lines in one transaction. The
// amount is computed server-side from catalogue prices and the rental day
// count; client-sent prices are never trusted. An empty cart is rejected
// before anything is written.
func (h *OrderHandler) Place(c echo.Context) error {
	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.Items) == 0 {
		return badRequest(c, "cart is empty")
	}
	if req.CustomerName == "" || req.CustomerPhone == "" {
		return badRequest(c, "customer name and phone are required")
	}
	ctx := c.Request().Context()
	mid := memberID(c)

	var total float64
	lines := make([]repository.OrderItemRecord, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == 0 || it.Quantity == 0 {
			return badRequest(c, "each item needs product_id and quantity")
		}
		start, err := time.Parse(dateLayout, it.RentalStartDate)
		if err != nil {
			return badRequest(c, "invalid rental_start_date")
		}
		end, err := time.Parse(dateLayout, it.RentalEndDate)
		if err != nil {
			return badRequest(c, "invalid rental_end_date")
		}
		if end.Before(start) {
			return badRequest(c, "rental_end_date before rental_start_date")
		}
		price, err := h.Products.GetPrice(ctx, it.ProductID)
		if errors.Is(err, sql.ErrNoRows) {
			return badRequest(c, "unknown product in cart")
		}
		if err != nil {
			return storageError(c)
		}
		days := repository.RentalDays(start, end)
		total += price * float64(it.Quantity) * float64(days)
		// The item row keeps the catalogue unit price; the computed total
		// lives on the header only.
		lines = append(lines, repository.OrderItemRecord{
			ProductID:        it.ProductID,
			ProductVariantID: it.ProductVariantID,
			RentalStartDate:  it.RentalStartDate,
			RentalEndDate:    it.RentalEndDate,
			Quantity:         it.Quantity,
			Price:            price,
		})
	}

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return storageError(c)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	header := repository.OrderRecord{
		MemberID:      mid,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Status:        model.OrderPlaced,
		PaymentStatus: model.PaymentUnpaid,
		PickupMethod:  req.PickupMethod,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   total,
	}
	if err := h.Orders.CreateTx(ctx, tx, &header); err != nil {
		return storageError(c)
	}
	for i := range lines {
		lines[i].OrderID = header.ID
	}
	if err := h.Orders.CreateItemsBulkTx(ctx, tx, lines); err != nil {
		return storageError(c)
	}
	if err := tx.Commit(); err != nil {
		return storageError(c)
	}
	committed = true

	_ = queue_publisher.PublishOrderPlaced(ctx, queue.OrderPlacedEvent{
		OrderID:     header.ID,
		MemberID:    mid,
		ItemCount:   len(lines),
		TotalAmount: total,
		PlacedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"orderId":     header.ID,
		"orderAmount": total,
		"message":     "order placed",
		"customerInfo": echo.Map{
			"name":  req.CustomerName,
			"phone": req.CustomerPhone,
			"email": req.CustomerEmail,
		},
	})
}

// Cancel cancels one of the caller's placed orders. 404 for an unknown
// order, 400 when the order is past cancellation.
func (h *OrderHandler) Cancel(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid order id")
	}
	err = h.Orders.Cancel(c.Request().Context(), memberID(c), id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "order not found")
	}
	if errors.Is(err, repository.ErrInvalidState) {
		return badRequest(c, "order can no longer be cancelled")
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// List returns the caller's orders with nested items, newest first.
func (h *OrderHandler) List(c echo.Context) error {
	rows, err := h.Orders.ListByMember(c.Request().Context(), memberID(c))
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}
