package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanminhdo/fashionshop-backend/api/responses"
	"github.com/tuanminhdo/fashionshop-backend/api/validators"
	"github.com/tuanminhdo/fashionshop-backend/internal/catalog"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
	"github.com/tuanminhdo/fashionshop-backend/pkg/logger"
	"github.com/tuanminhdo/fashionshop-backend/pkg/pagination"
)

type createProductRequest struct {
	Name        string                  `json:"name" validate:"required"`
	Slug        string                  `json:"slug"`
	Description *string                 `json:"description"`
	Category    string                  `json:"category" validate:"required"`
	Images      []string                `json:"images"`
	Status      string                  `json:"status"`
	Variants    []variantRequestPayload `json:"variants" validate:"dive"`
}

type variantRequestPayload struct {
	SKU   string `json:"sku" validate:"required"`
	Color string `json:"color" validate:"required"`
	Size  string `json:"size" validate:"required"`
	Price string `json:"price" validate:"required"`
	Stock int    `json:"stock" validate:"min=0"`
}

func (p variantRequestPayload) toInput() (catalog.VariantInput, error) {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return catalog.VariantInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	return catalog.VariantInput{
		SKU:   strings.TrimSpace(p.SKU),
		Color: strings.TrimSpace(p.Color),
		Size:  strings.TrimSpace(p.Size),
		Price: price,
		Stock: p.Stock,
	}, nil
}

// AdminCreateProduct creates a product with its initial variants.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := enums.ProductStatusDraft
		if payload.Status != "" {
			parsed, err := enums.ParseProductStatus(payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product status"))
				return
			}
			status = parsed
		}

		variants := make([]catalog.VariantInput, 0, len(payload.Variants))
		for _, v := range payload.Variants {
			input, err := v.toInput()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			variants = append(variants, input)
		}

		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			Name:        validators.SanitizeString(payload.Name, 200),
			Slug:        validators.SanitizeString(payload.Slug, 200),
			Description: payload.Description,
			Category:    validators.SanitizeString(payload.Category, 100),
			Images:      payload.Images,
			Status:      status,
			Variants:    variants,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

type updateProductRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Images      *[]string `json:"images"`
	Status      *string   `json:"status"`
}

// AdminUpdateProduct patches product fields; absent fields stay untouched.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateProductInput{
			Name:        payload.Name,
			Description: payload.Description,
			Category:    payload.Category,
			Images:      payload.Images,
		}
		if payload.Status != nil {
			status, err := enums.ParseProductStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product status"))
				return
			}
			input.Status = &status
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// AdminListProducts lists all products including drafts and hidden ones.
func AdminListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := parseStatusFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, cursor, err := svc.ListProducts(r.Context(), catalog.ListProductsInput{
			Status:        status,
			Category:      validators.SanitizeString(r.URL.Query().Get("category"), 100),
			Search:        validators.SanitizeString(r.URL.Query().Get("q"), 200),
			IncludeHidden: true,
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductListResponse(products, cursor))
	}
}

// AdminAddVariant adds one sellable configuration to a product.
func AdminAddVariant(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload variantRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variant, err := svc.AddVariant(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, variantResponse{
			ID:    variant.ID,
			SKU:   variant.SKU,
			Color: variant.Color,
			Size:  variant.Size,
			Price: variant.Price.StringFixed(2),
			Stock: variant.Stock,
		})
	}
}

type updateVariantRequest struct {
	Color *string `json:"color"`
	Size  *string `json:"size"`
	Price *string `json:"price"`
}

// AdminUpdateVariant patches variant attributes. Stock is excluded; stock
// only moves through the adjustment endpoint or checkout.
func AdminUpdateVariant(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variantID, err := parseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateVariantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateVariantInput{
			Color: payload.Color,
			Size:  payload.Size,
		}
		if payload.Price != nil {
			price, err := decimal.NewFromString(*payload.Price)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
				return
			}
			input.Price = &price
		}

		if err := svc.UpdateVariant(r.Context(), variantID, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

type adjustStockRequest struct {
	SKU    string  `json:"sku" validate:"required"`
	Delta  int     `json:"delta" validate:"required"`
	Reason string  `json:"reason" validate:"required"`
	Note   *string `json:"note"`
}

// AdminAdjustStock applies a signed manual stock correction with its ledger
// entry.
func AdminAdjustStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason, err := enums.ParseInventoryReason(payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inventory reason"))
			return
		}

		if err := svc.AdjustStock(r.Context(), catalog.AdjustStockInput{
			SKU:    strings.TrimSpace(payload.SKU),
			Delta:  payload.Delta,
			Reason: reason,
			Note:   payload.Note,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "adjusted"})
	}
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
