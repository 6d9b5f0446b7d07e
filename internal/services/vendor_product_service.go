// internal/services/vendor_product_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendorhub/marketplace-backend/internal/lifecycle"
	"github.com/vendorhub/marketplace-backend/internal/models"
	"github.com/vendorhub/marketplace-backend/internal/quota"
	"github.com/vendorhub/marketplace-backend/internal/utils"
)

// VendorProductService is the vendor-facing surface: create, update,
// submit, duplicate and delete products. Operations that can change a
// product's status and the vendor's approved counter together run in one
// transaction with the vendor row locked.
type VendorProductService struct {
	db *gorm.DB
}

func NewVendorProductService(db *gorm.DB) *VendorProductService {
	return &VendorProductService{db: db}
}

type VariantInput struct {
	SKU        string                 `json:"sku"`
	Price      float64                `json:"price" validate:"min=0"`
	Stock      int                    `json:"stock" validate:"min=0"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	ImageURL   string                 `json:"image_url,omitempty"`
}

type CreateProductRequest struct {
	Name              string                 `json:"name" validate:"required,min=3,max=255"`
	Description       string                 `json:"description,omitempty"`
	SKU               string                 `json:"sku,omitempty" validate:"omitempty,max=100"`
	Price             float64                `json:"price" validate:"required,min=0.01"`
	Stock             int                    `json:"stock" validate:"min=0"`
	Attributes        map[string]interface{} `json:"attributes,omitempty"`
	GalleryImages     []string               `json:"gallery_images,omitempty"`
	Variants          []VariantInput         `json:"variants,omitempty" validate:"dive"`
	SubmitForApproval bool                   `json:"submit_for_approval"`
}

// ProductPatch is a partial update: nil fields are left untouched. The
// patch translates to a parameterized gorm update map, never to
// concatenated SQL.
type ProductPatch struct {
	Name          *string                `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Description   *string                `json:"description,omitempty"`
	SKU           *string                `json:"sku,omitempty" validate:"omitempty,max=100"`
	Price         *float64               `json:"price,omitempty" validate:"omitempty,min=0.01"`
	Stock         *int                   `json:"stock,omitempty" validate:"omitempty,min=0"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"`
	GalleryImages []string               `json:"gallery_images,omitempty"`
	Variants      []VariantInput         `json:"variants,omitempty" validate:"omitempty,dive"`

	// UpdateStatus moves a draft or rejected product to pending (a
	// submit), or a rejected product back to draft for editing.
	UpdateStatus      models.ProductStatus `json:"update_status,omitempty" validate:"omitempty,oneof=draft pending"`
	RequireReapproval bool                 `json:"require_reapproval"`
}

func (p *ProductPatch) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.SKU != nil {
		updates["sku"] = *p.SKU
	}
	if p.Price != nil {
		updates["price"] = *p.Price
	}
	if p.Stock != nil {
		updates["stock"] = *p.Stock
	}
	if p.Attributes != nil {
		updates["attributes"] = models.JSONB(p.Attributes)
	}
	if p.GalleryImages != nil {
		updates["gallery_images"] = pq.StringArray(p.GalleryImages)
	}
	return updates
}

type ProductStatusStat struct {
	Status     models.ProductStatus `json:"status"`
	Count      int64                `json:"count"`
	TotalStock int64                `json:"total_stock"`
	AvgPrice   float64              `json:"avg_price"`
}

type VendorProductStats struct {
	Stats  []ProductStatusStat  `json:"stats"`
	Vendor models.VendorSummary `json:"vendor"`
	Limits struct {
		Used      int `json:"used"`
		Max       int `json:"max"`
		Remaining int `json:"remaining"`
	} `json:"limits"`
}

// Create inserts a new draft for the vendor. When submitForApproval is
// set the submit event runs inside the same transaction as the insert:
// trusted vendors come out approved, everyone else pending, quota
// permitting.
func (s *VendorProductService) Create(vendorID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var vendor models.Vendor
		query := tx
		if req.SubmitForApproval {
			// The submit path may bump the approved counter (trusted
			// auto-approval), so the vendor row is locked.
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&vendor, "id = ?", vendorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVendorNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if vendor.Status != models.VendorStatusApproved {
			return ErrVendorNotApproved
		}

		product = models.Product{
			VendorID:      vendorID,
			Name:          req.Name,
			Description:   req.Description,
			SKU:           req.SKU,
			Price:         req.Price,
			Stock:         req.Stock,
			Attributes:    models.JSONB(req.Attributes),
			GalleryImages: pq.StringArray(req.GalleryImages),
			Status:        models.ProductStatusDraft,
		}

		if err := tx.Create(&product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		if err := insertVariants(tx, product.ID, req.Variants); err != nil {
			return err
		}

		if req.SubmitForApproval {
			return submitProduct(tx, &product, &vendor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Variants").First(&product, "id = ?", product.ID)
	return &product, nil
}

// Update applies a partial edit. Editing an approved product demands the
// explicit require_reapproval flag; with it, the product drops back to
// pending and the vendor's approved counter is decremented in the same
// transaction as the field updates. A non-nil variants patch replaces all
// variant rows wholesale.
func (s *VendorProductService) Update(productID, vendorID uuid.UUID, patch *ProductPatch) (*models.Product, string, error) {
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, "", fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	statusChange := ""

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Product locked before vendor, the same order as the approval
		// coordinator.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, "id = ? AND vendor_id = ?", productID, vendorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		wasApproved := product.Status == models.ProductStatusApproved
		if wasApproved && !patch.RequireReapproval {
			return ErrReapprovalRequired
		}

		if updates := patch.updates(); len(updates) > 0 {
			if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}
		}

		if patch.Variants != nil {
			// Replace-by-delete-then-insert, inside this transaction so
			// the product never observably has zero variants.
			if err := tx.Unscoped().Where("product_id = ?", product.ID).
				Delete(&models.ProductVariant{}).Error; err != nil {
				return fmt.Errorf("failed to delete variants: %w", err)
			}
			if err := insertVariants(tx, product.ID, patch.Variants); err != nil {
				return err
			}
		}

		if wasApproved && patch.RequireReapproval {
			var vendor models.Vendor
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&vendor, "id = ?", vendorID).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}

			result, err := lifecycle.Transition(&product, lifecycle.EventRequestReapproval, nil, "")
			if err != nil {
				return err
			}

			if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
				"status":       product.Status,
				"submitted_at": product.SubmittedAt,
				"approved_at":  nil,
				"approved_by":  nil,
			}).Error; err != nil {
				return fmt.Errorf("failed to update product status: %w", err)
			}

			if err := applyCountDelta(tx, &vendor, result.CountDelta); err != nil {
				return err
			}
			statusChange = "approved -> pending"
		}

		if patch.UpdateStatus == models.ProductStatusDraft && product.Status == models.ProductStatusRejected {
			if _, err := lifecycle.Transition(&product, lifecycle.EventRevise, nil, ""); err != nil {
				return err
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
				Update("status", product.Status).Error; err != nil {
				return fmt.Errorf("failed to update product status: %w", err)
			}
			statusChange = "rejected -> draft"
		}

		if patch.UpdateStatus == models.ProductStatusPending &&
			(product.Status == models.ProductStatusDraft || product.Status == models.ProductStatusRejected) {
			from := product.Status
			var vendor models.Vendor
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&vendor, "id = ?", vendorID).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			if vendor.Status != models.VendorStatusApproved {
				return ErrVendorNotApproved
			}
			if err := submitProduct(tx, &product, &vendor); err != nil {
				return err
			}
			statusChange = fmt.Sprintf("%s -> %s", from, product.Status)
		}

		return nil
	})
	if err != nil {
		return nil, "", err
	}

	s.db.Preload("Variants").First(&product, "id = ?", product.ID)
	return &product, statusChange, nil
}

// SubmitForApproval is legal from draft and rejected; rejection is
// recoverable, not terminal.
func (s *VendorProductService) SubmitForApproval(productID, vendorID uuid.UUID) (*models.Product, error) {
	var product models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, "id = ? AND vendor_id = ?", productID, vendorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if product.Status != models.ProductStatusDraft && product.Status != models.ProductStatusRejected {
			return &lifecycle.InvalidTransitionError{Current: product.Status, Event: lifecycle.EventSubmit}
		}

		var vendor models.Vendor
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&vendor, "id = ?", vendorID).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}

		if vendor.Status != models.VendorStatusApproved {
			return ErrVendorNotApproved
		}

		return submitProduct(tx, &product, &vendor)
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Variants").First(&product, "id = ?", product.ID)
	return &product, nil
}

// Duplicate clones a product and its variants into a fresh draft. The
// clone never inherits review state, whatever the source's status; the
// source vendor's counter is untouched.
func (s *VendorProductService) Duplicate(productID, vendorID uuid.UUID) (*models.Product, error) {
	var clone models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var source models.Product
		if err := tx.Preload("Variants").
			First(&source, "id = ? AND vendor_id = ?", productID, vendorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		clone = models.Product{
			VendorID:      source.VendorID,
			Name:          source.Name + " (copy)",
			Description:   source.Description,
			SKU:           source.SKU,
			Price:         source.Price,
			Stock:         source.Stock,
			Attributes:    source.Attributes,
			GalleryImages: source.GalleryImages,
			Status:        models.ProductStatusDraft,
		}

		if err := tx.Create(&clone).Error; err != nil {
			return fmt.Errorf("failed to duplicate product: %w", err)
		}

		variants := make([]VariantInput, 0, len(source.Variants))
		for _, v := range source.Variants {
			variants = append(variants, VariantInput{
				SKU:        v.SKU,
				Price:      v.Price,
				Stock:      v.Stock,
				Attributes: v.Attributes,
				ImageURL:   v.ImageURL,
			})
		}
		return insertVariants(tx, clone.ID, variants)
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Variants").First(&clone, "id = ?", clone.ID)
	return &clone, nil
}

// Delete soft-deletes a product. Removing an approved product frees quota
// capacity, so the counter decrement commits with the delete.
func (s *VendorProductService) Delete(productID, vendorID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, "id = ? AND vendor_id = ?", productID, vendorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if product.Status == models.ProductStatusApproved {
			var vendor models.Vendor
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&vendor, "id = ?", vendorID).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			if err := applyCountDelta(tx, &vendor, -1); err != nil {
				return err
			}
		}

		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"product_id": product.ID,
			"vendor_id":  vendorID,
			"status":     product.Status,
		}).Info("Product deleted")
		return nil
	})
}

// List returns the vendor's own products.
func (s *VendorProductService) List(vendorID uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Where("vendor_id = ?", vendorID).Preload("Variants")

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "price", "status", "stock"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

// Get returns one of the vendor's products with variants.
func (s *VendorProductService) Get(productID, vendorID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Variants").
		First(&product, "id = ? AND vendor_id = ?", productID, vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// Stats aggregates the vendor's catalog per status and reports quota
// headroom. The gate runs here as a pre-flight convenience only; the
// authoritative check always happens inside an approval transaction.
func (s *VendorProductService) Stats(vendorID uuid.UUID) (*VendorProductStats, error) {
	var vendor models.Vendor
	if err := s.db.First(&vendor, "id = ?", vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var stats []ProductStatusStat
	if err := s.db.Model(&models.Product{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(stock), 0) AS total_stock, COALESCE(AVG(price), 0) AS avg_price").
		Where("vendor_id = ?", vendorID).
		Group("status").
		Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate product stats: %w", err)
	}

	result := &VendorProductStats{
		Stats:  stats,
		Vendor: vendor.Summary(),
	}
	result.Limits.Used = vendor.CurrentApprovedCount
	result.Limits.Max = vendor.MaxProducts
	result.Limits.Remaining = quota.Remaining(&vendor)
	return result, nil
}

// submitProduct applies the submit event inside tx. The vendor row must be
// locked by the caller. Untrusted vendors must have quota headroom to
// enter the review queue; trusted vendors short-circuit straight to
// approved with the counter bumped.
func submitProduct(tx *gorm.DB, product *models.Product, vendor *models.Vendor) error {
	if decision := quota.CanApprove(vendor, 1); !decision.Allowed {
		return &QuotaExceededError{
			VendorID:  vendor.ID,
			Current:   vendor.CurrentApprovedCount,
			Attempted: 1,
			Max:       vendor.MaxProducts,
		}
	}

	result, err := lifecycle.Transition(product, lifecycle.EventSubmit, nil, "")
	if err != nil {
		return err
	}

	if vendor.IsTrustedVendor {
		auto, err := lifecycle.Transition(product, lifecycle.EventApprove, nil, "")
		if err != nil {
			return err
		}
		result.CountDelta += auto.CountDelta
	}

	if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"status":           product.Status,
		"submitted_at":     product.SubmittedAt,
		"approved_at":      product.ApprovedAt,
		"approved_by":      product.ApprovedBy,
		"rejection_reason": "",
	}).Error; err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}

	return applyCountDelta(tx, vendor, result.CountDelta)
}

func insertVariants(tx *gorm.DB, productID uuid.UUID, inputs []VariantInput) error {
	if len(inputs) == 0 {
		return nil
	}

	variants := make([]models.ProductVariant, 0, len(inputs))
	for _, in := range inputs {
		variants = append(variants, models.ProductVariant{
			ProductID:  productID,
			SKU:        in.SKU,
			Price:      in.Price,
			Stock:      in.Stock,
			Attributes: models.JSONB(in.Attributes),
			ImageURL:   in.ImageURL,
		})
	}

	if err := tx.Create(&variants).Error; err != nil {
		return fmt.Errorf("failed to insert variants: %w", err)
	}
	return nil
}
