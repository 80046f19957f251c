package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	"github.com/tuanminhdo/fashionshop-backend/pkg/pagination"
)

// Service defines operations that record and reconcile stock movements.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.InventoryLogEntry, error)
	ListBySKU(ctx context.Context, sku string, params pagination.Params) ([]models.InventoryLogEntry, string, error)
	ListByRef(ctx context.Context, refID string) ([]models.InventoryLogEntry, error)
	SumByRef(ctx context.Context, refID string) (int, error)
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data a ledger entry requires. Delta is
// signed: negative removes stock, positive restores it.
type RecordInput struct {
	ProductID uuid.UUID
	SKU       string
	Delta     int
	Reason    enums.InventoryReason
	RefID     string
	Note      *string
}

// NewService wires an inventory ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.InventoryLogEntry, error) {
	if input.ProductID == uuid.Nil {
		return nil, fmt.Errorf("product id is required")
	}
	if input.SKU == "" {
		return nil, fmt.Errorf("sku is required")
	}
	if input.Delta == 0 {
		return nil, fmt.Errorf("delta must be non-zero")
	}
	if !input.Reason.IsValid() {
		return nil, fmt.Errorf("invalid inventory reason %q", input.Reason)
	}

	refID := input.RefID
	if refID == "" {
		refID = models.RefPending
	}

	entry := &models.InventoryLogEntry{
		ProductID: input.ProductID,
		SKU:       input.SKU,
		Delta:     input.Delta,
		Reason:    input.Reason,
		RefID:     refID,
		Note:      input.Note,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListBySKU(ctx context.Context, sku string, params pagination.Params) ([]models.InventoryLogEntry, string, error) {
	if sku == "" {
		return nil, "", fmt.Errorf("sku is required")
	}
	return s.repo.ListBySKU(ctx, sku, params)
}

func (s *service) ListByRef(ctx context.Context, refID string) ([]models.InventoryLogEntry, error) {
	if refID == "" {
		return nil, fmt.Errorf("ref id is required")
	}
	return s.repo.ListByRef(ctx, refID)
}

func (s *service) SumByRef(ctx context.Context, refID string) (int, error) {
	if refID == "" {
		return 0, fmt.Errorf("ref id is required")
	}
	return s.repo.SumByRef(ctx, refID)
}
