package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tuanminhdo/fashionshop-backend/api/responses"
	"github.com/tuanminhdo/fashionshop-backend/api/validators"
	"github.com/tuanminhdo/fashionshop-backend/internal/catalog"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
	"github.com/tuanminhdo/fashionshop-backend/pkg/logger"
	"github.com/tuanminhdo/fashionshop-backend/pkg/pagination"
)

// ListProducts returns the public storefront listing. Hidden and draft
// products are excluded.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.ListProductsInput{
			Category: validators.SanitizeString(r.URL.Query().Get("category"), 100),
			Search:   validators.SanitizeString(r.URL.Query().Get("q"), 200),
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		}

		products, cursor, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductListResponse(products, cursor))
	}
}

// GetProduct resolves one product by slug for the storefront detail page.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required"))
			return
		}

		product, err := svc.GetProductBySlug(r.Context(), slug, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// parseStatusFilter reads an optional ?status= query value.
func parseStatusFilter(r *http.Request) (*enums.ProductStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := enums.ParseProductStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product status")
	}
	return &status, nil
}
