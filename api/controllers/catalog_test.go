package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanminhdo/fashionshop-backend/internal/catalog"
	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	pkgerrors "github.com/tuanminhdo/fashionshop-backend/pkg/errors"
)

type stubCatalogService struct {
	createProductFn    func(ctx context.Context, input catalog.CreateProductInput) (*models.Product, error)
	updateProductFn    func(ctx context.Context, productID uuid.UUID, input catalog.UpdateProductInput) (*models.Product, error)
	getProductFn       func(ctx context.Context, id uuid.UUID, includeHidden bool) (*models.Product, error)
	getProductBySlugFn func(ctx context.Context, slug string, includeHidden bool) (*models.Product, error)
	listProductsFn     func(ctx context.Context, input catalog.ListProductsInput) ([]models.Product, string, error)
	addVariantFn       func(ctx context.Context, productID uuid.UUID, input catalog.VariantInput) (*models.ProductVariant, error)
	updateVariantFn    func(ctx context.Context, variantID uuid.UUID, input catalog.UpdateVariantInput) error
	adjustStockFn      func(ctx context.Context, input catalog.AdjustStockInput) error
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*models.Product, error) {
	if s.createProductFn != nil {
		return s.createProductFn(ctx, input)
	}
	return &models.Product{}, nil
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, productID uuid.UUID, input catalog.UpdateProductInput) (*models.Product, error) {
	if s.updateProductFn != nil {
		return s.updateProductFn(ctx, productID, input)
	}
	return &models.Product{}, nil
}

func (s *stubCatalogService) GetProduct(ctx context.Context, id uuid.UUID, includeHidden bool) (*models.Product, error) {
	if s.getProductFn != nil {
		return s.getProductFn(ctx, id, includeHidden)
	}
	return &models.Product{}, nil
}

func (s *stubCatalogService) GetProductBySlug(ctx context.Context, slug string, includeHidden bool) (*models.Product, error) {
	if s.getProductBySlugFn != nil {
		return s.getProductBySlugFn(ctx, slug, includeHidden)
	}
	return &models.Product{}, nil
}

func (s *stubCatalogService) ListProducts(ctx context.Context, input catalog.ListProductsInput) ([]models.Product, string, error) {
	if s.listProductsFn != nil {
		return s.listProductsFn(ctx, input)
	}
	return nil, "", nil
}

func (s *stubCatalogService) AddVariant(ctx context.Context, productID uuid.UUID, input catalog.VariantInput) (*models.ProductVariant, error) {
	if s.addVariantFn != nil {
		return s.addVariantFn(ctx, productID, input)
	}
	return &models.ProductVariant{}, nil
}

func (s *stubCatalogService) UpdateVariant(ctx context.Context, variantID uuid.UUID, input catalog.UpdateVariantInput) error {
	if s.updateVariantFn != nil {
		return s.updateVariantFn(ctx, variantID, input)
	}
	return nil
}

func (s *stubCatalogService) AdjustStock(ctx context.Context, input catalog.AdjustStockInput) error {
	if s.adjustStockFn != nil {
		return s.adjustStockFn(ctx, input)
	}
	return nil
}

func TestListProductsExcludesHidden(t *testing.T) {
	var captured catalog.ListProductsInput
	svc := &stubCatalogService{
		listProductsFn: func(ctx context.Context, input catalog.ListProductsInput) ([]models.Product, string, error) {
			captured = input
			return []models.Product{
				{ID: uuid.New(), Name: "Basic Tee", Slug: "basic-tee", Status: enums.ProductStatusActive},
			}, "", nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=tops&q=tee&limit=12", nil)
	resp := httptest.NewRecorder()
	ListProducts(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)
	if captured.IncludeHidden {
		t.Fatal("public listing must not include hidden products")
	}
	if captured.Category != "tops" || captured.Search != "tee" {
		t.Fatalf("unexpected filters %+v", captured)
	}
	if captured.Pagination.Limit != 12 {
		t.Fatalf("unexpected limit %d", captured.Pagination.Limit)
	}
}

func TestGetProductBySlug(t *testing.T) {
	product := &models.Product{
		ID:     uuid.New(),
		Name:   "Basic Tee",
		Slug:   "basic-tee",
		Status: enums.ProductStatusActive,
		Variants: []models.ProductVariant{
			{ID: uuid.New(), SKU: "TSH-RED-M", Color: "red", Size: "M", Price: decimal.NewFromInt(150000), Stock: 8},
		},
	}
	svc := &stubCatalogService{
		getProductBySlugFn: func(ctx context.Context, slug string, includeHidden bool) (*models.Product, error) {
			if includeHidden {
				t.Fatal("storefront lookup must not include hidden products")
			}
			if slug != "basic-tee" {
				t.Fatalf("unexpected slug %s", slug)
			}
			return product, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/basic-tee", nil)
	req = addRouteParam(req, "slug", "basic-tee")
	resp := httptest.NewRecorder()
	GetProduct(svc, testLogger())(resp, req)

	requireStatus(t, resp.Code, http.StatusOK)

	var envelope struct {
		Data productResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Slug != "basic-tee" {
		t.Fatalf("unexpected slug %s", envelope.Data.Slug)
	}
	if len(envelope.Data.Variants) != 1 || envelope.Data.Variants[0].Price != "150000.00" {
		t.Fatalf("unexpected variants %+v", envelope.Data.Variants)
	}
}

func TestGetProductNotFound(t *testing.T) {
	svc := &stubCatalogService{
		getProductBySlugFn: func(ctx context.Context, slug string, includeHidden bool) (*models.Product, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil)
	req = addRouteParam(req, "slug", "missing")
	resp := httptest.NewRecorder()
	GetProduct(svc, testLogger())(resp, req)
	requireStatus(t, resp.Code, http.StatusNotFound)
}
