package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/types"
)

type orderResponse struct {
	ID              uuid.UUID              `json:"id"`
	Code            string                 `json:"code"`
	Status          string                 `json:"status"`
	Subtotal        string                 `json:"subtotal"`
	Discount        string                 `json:"discount"`
	ShippingFee     string                 `json:"shipping_fee"`
	Total           string                 `json:"total"`
	ShippingAddress types.ShippingAddress  `json:"shipping_address"`
	Note            *string                `json:"note,omitempty"`
	Items           []orderItemResponse    `json:"items"`
	Payment         *orderPaymentResponse  `json:"payment,omitempty"`
	Timeline        []orderTimelineEntryVM `json:"timeline,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

type orderItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal string    `json:"line_total"`
	Image     *string   `json:"image,omitempty"`
}

type orderPaymentResponse struct {
	Method string     `json:"method"`
	Status string     `json:"status"`
	Amount string     `json:"amount"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

type orderTimelineEntryVM struct {
	Sequence   int       `json:"sequence"`
	FromStatus *string   `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ActorRole  *string   `json:"actor_role,omitempty"`
	Note       *string   `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			Color:     item.Color,
			Size:      item.Size,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal.StringFixed(2),
			Image:     item.Image,
		})
	}

	var payment *orderPaymentResponse
	if order.Payment != nil {
		payment = &orderPaymentResponse{
			Method: string(order.Payment.Method),
			Status: string(order.Payment.Status),
			Amount: order.Payment.Amount.StringFixed(2),
			PaidAt: order.Payment.PaidAt,
		}
	}

	timeline := make([]orderTimelineEntryVM, 0, len(order.Timeline))
	for _, entry := range order.Timeline {
		vm := orderTimelineEntryVM{
			Sequence:  entry.Sequence,
			ToStatus:  string(entry.ToStatus),
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		}
		if entry.FromStatus != nil {
			from := string(*entry.FromStatus)
			vm.FromStatus = &from
		}
		if entry.ActorRole != nil {
			role := string(*entry.ActorRole)
			vm.ActorRole = &role
		}
		timeline = append(timeline, vm)
	}

	return orderResponse{
		ID:              order.ID,
		Code:            order.Code,
		Status:          string(order.Status),
		Subtotal:        order.Subtotal.StringFixed(2),
		Discount:        order.Discount.StringFixed(2),
		ShippingFee:     order.ShippingFee.StringFixed(2),
		Total:           order.Total.StringFixed(2),
		ShippingAddress: order.ShippingAddress,
		Note:            order.Note,
		Items:           items,
		Payment:         payment,
		Timeline:        timeline,
		CancelledAt:     order.CancelledAt,
		CompletedAt:     order.CompletedAt,
		CreatedAt:       order.CreatedAt,
	}
}

type orderListResponse struct {
	Items  []orderResponse `json:"items"`
	Cursor string          `json:"cursor,omitempty"`
}

func newOrderListResponse(orders []models.Order, cursor string) orderListResponse {
	items := make([]orderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, newOrderResponse(&orders[i]))
	}
	return orderListResponse{Items: items, Cursor: cursor}
}

type cartResponse struct {
	ID          uuid.UUID          `json:"id"`
	Subtotal    string             `json:"subtotal"`
	Discount    string             `json:"discount"`
	ShippingFee string             `json:"shipping_fee"`
	Total       string             `json:"total"`
	Items       []cartItemResponse `json:"items"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type cartItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Quantity  int       `json:"quantity"`
	Image     *string   `json:"image,omitempty"`
}

func newCartResponse(cart *models.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemResponse{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			Price:     item.Price.StringFixed(2),
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	return cartResponse{
		ID:          cart.ID,
		Subtotal:    cart.Subtotal.StringFixed(2),
		Discount:    cart.Discount.StringFixed(2),
		ShippingFee: cart.ShippingFee.StringFixed(2),
		Total:       cart.Total.StringFixed(2),
		Items:       items,
		UpdatedAt:   cart.UpdatedAt,
	}
}

type productResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description *string           `json:"description,omitempty"`
	Category    string            `json:"category"`
	Images      []string          `json:"images"`
	Status      string            `json:"status"`
	Variants    []variantResponse `json:"variants"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type variantResponse struct {
	ID    uuid.UUID `json:"id"`
	SKU   string    `json:"sku"`
	Color string    `json:"color"`
	Size  string    `json:"size"`
	Price string    `json:"price"`
	Stock int       `json:"stock"`
}

func newProductResponse(product *models.Product) productResponse {
	variants := make([]variantResponse, 0, len(product.Variants))
	for _, variant := range product.Variants {
		variants = append(variants, variantResponse{
			ID:    variant.ID,
			SKU:   variant.SKU,
			Color: variant.Color,
			Size:  variant.Size,
			Price: variant.Price.StringFixed(2),
			Stock: variant.Stock,
		})
	}
	return productResponse{
		ID:          product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		Category:    product.Category,
		Images:      product.Images,
		Status:      string(product.Status),
		Variants:    variants,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

type productListResponse struct {
	Items  []productResponse `json:"items"`
	Cursor string            `json:"cursor,omitempty"`
}

func newProductListResponse(products []models.Product, cursor string) productListResponse {
	items := make([]productResponse, 0, len(products))
	for i := range products {
		items = append(items, newProductResponse(&products[i]))
	}
	return productListResponse{Items: items, Cursor: cursor}
}
