package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shoplane/inventory-service/internal/inventory"
	"github.com/shoplane/inventory-service/internal/inventory/dto"
	"github.com/shoplane/inventory-service/internal/model"
	"github.com/shoplane/inventory-service/pkg/logger"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, inventory.ErrProductNotFound), errors.Is(err, inventory.ErrVariantNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, inventory.ErrTxConflict), errors.Is(err, inventory.ErrScopeBusy):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, inventory.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")

	inv := v1.Group("/inventory")
	inv.POST("/adjust", h.adjustStock)
	inv.PUT("/stock", h.setStockLevel)
	inv.POST("/validate", h.validateItems)
	inv.POST("/reconcile", h.reconcile)
	inv.GET("/low-stock", h.listLowStock)
	inv.GET("/out-of-stock", h.listOutOfStock)
	inv.GET("/restock-needed", h.listRestockNeeded)
	inv.GET("/:productId/history", h.listHistory)

	products := v1.Group("/products")
	products.POST("", h.createProduct)
	products.GET("/:id", h.getProduct)
}

type adjustStockRequest struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id"`
	Change    int     `json:"change"`
	Reason    string  `json:"reason"`
	OrderID   string  `json:"order_id"`
	UserID    string  `json:"user_id"`
	Notes     string  `json:"notes"`
}

func (h *InventoryHandler) adjustStock(c echo.Context) error {
	var req adjustStockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.ProductID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "product_id is required"})
	}

	result, err := h.uc.MutateStock(c.Request().Context(), &dto.MutateStockInput{
		Scope:   dto.Scope{ProductID: req.ProductID, VariantID: req.VariantID},
		Delta:   req.Change,
		Reason:  model.ChangeReason(req.Reason),
		OrderID: req.OrderID,
		UserID:  req.UserID,
		Notes:   req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

type setStockRequest struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id"`
	Stock     int     `json:"stock"`
	Reason    string  `json:"reason"`
	UserID    string  `json:"user_id"`
	Notes     string  `json:"notes"`
}

func (h *InventoryHandler) setStockLevel(c echo.Context) error {
	var req setStockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.ProductID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "product_id is required"})
	}

	result, err := h.uc.SetStockLevel(c.Request().Context(), &dto.SetStockLevelInput{
		Scope:    dto.Scope{ProductID: req.ProductID, VariantID: req.VariantID},
		NewStock: req.Stock,
		Reason:   model.ChangeReason(req.Reason),
		UserID:   req.UserID,
		Notes:    req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

type orderItemRequest struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id"`
	Quantity  int     `json:"quantity"`
}

type validateItemsRequest struct {
	Items []orderItemRequest `json:"items"`
}

func (h *InventoryHandler) validateItems(c echo.Context) error {
	var req validateItemsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	items := make([]dto.OrderItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = dto.OrderItemInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
	}

	result, err := h.uc.ValidateOrderItems(c.Request().Context(), items)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

type reconcileRequest struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id"`
}

func (h *InventoryHandler) reconcile(c echo.Context) error {
	var req reconcileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.ProductID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "product_id is required"})
	}

	p, err := h.uc.Reconcile(c.Request().Context(), dto.Scope{ProductID: req.ProductID, VariantID: req.VariantID})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

type historyResponse struct {
	Items []model.InventoryHistoryEntry `json:"items"`
}

func (h *InventoryHandler) listHistory(c echo.Context) error {
	filters := &dto.HistoryFilters{
		ProductID: c.Param("productId"),
		Reason:    model.ChangeReason(c.QueryParam("reason")),
	}

	// Absent means all rows; an empty value means product-level rows only
	if qp := c.QueryParams(); qp.Has("variant_id") {
		v := qp.Get("variant_id")
		filters.VariantID = &v
	}

	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		filters.Limit = n
	}

	entries, err := h.uc.GetInventoryHistory(c.Request().Context(), filters)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, historyResponse{Items: entries})
}

type productListResponse struct {
	Items []model.Product `json:"items"`
	Total int             `json:"total"`
}

func (h *InventoryHandler) listLowStock(c echo.Context) error {
	return h.listByStatus(c, h.uc.GetLowStockProducts)
}

func (h *InventoryHandler) listOutOfStock(c echo.Context) error {
	return h.listByStatus(c, h.uc.GetOutOfStockProducts)
}

func (h *InventoryHandler) listRestockNeeded(c echo.Context) error {
	return h.listByStatus(c, h.uc.GetProductsNeedingRestock)
}

func (h *InventoryHandler) listByStatus(c echo.Context, find func(ctx context.Context, limit int) ([]model.Product, error)) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = n
	}

	items, err := find(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, productListResponse{Items: items, Total: len(items)})
}

type variantRequest struct {
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	Stock             int    `json:"stock"`
	TrackInventory    *bool  `json:"track_inventory"`
	LowStockThreshold *int   `json:"low_stock_threshold"`
	BackorderEnabled  *bool  `json:"backorder_enabled"`
	BackorderLimit    *int   `json:"backorder_limit"`
}

type createProductRequest struct {
	SKU               string           `json:"sku"`
	Name              string           `json:"name"`
	TrackInventory    *bool            `json:"track_inventory"`
	Stock             int              `json:"stock"`
	LowStockThreshold *int             `json:"low_stock_threshold"`
	BackorderEnabled  bool             `json:"backorder_enabled"`
	BackorderLimit    *int             `json:"backorder_limit"`
	Variants          []variantRequest `json:"variants"`
}

func (h *InventoryHandler) createProduct(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	input := &dto.CreateProductInput{
		SKU:               req.SKU,
		Name:              req.Name,
		TrackInventory:    req.TrackInventory,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
		BackorderEnabled:  req.BackorderEnabled,
		BackorderLimit:    req.BackorderLimit,
	}
	for _, v := range req.Variants {
		input.Variants = append(input.Variants, dto.VariantInput{
			SKU:               v.SKU,
			Name:              v.Name,
			Stock:             v.Stock,
			TrackInventory:    v.TrackInventory,
			LowStockThreshold: v.LowStockThreshold,
			BackorderEnabled:  v.BackorderEnabled,
			BackorderLimit:    v.BackorderLimit,
		})
	}

	p, err := h.uc.CreateProduct(c.Request().Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (h *InventoryHandler) getProduct(c echo.Context) error {
	p, err := h.uc.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}
