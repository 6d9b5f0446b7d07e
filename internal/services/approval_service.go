// internal/services/approval_service.go
package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendorhub/marketplace-backend/internal/lifecycle"
	"github.com/vendorhub/marketplace-backend/internal/models"
	"github.com/vendorhub/marketplace-backend/internal/quota"
	"github.com/vendorhub/marketplace-backend/internal/utils"
)

// ApprovalService coordinates admin approve/reject decisions. Every
// operation is a single database transaction: the quota check, the status
// change and the vendor counter update commit together or not at all.
type ApprovalService struct {
	db *gorm.DB
}

func NewApprovalService(db *gorm.DB) *ApprovalService {
	return &ApprovalService{db: db}
}

type BulkOutcome struct {
	ID      uuid.UUID `json:"id"`
	Outcome string    `json:"outcome"` // approved, skipped, not_found
}

type BulkApproveResult struct {
	ApprovedCount int              `json:"approved_count"`
	Products      []models.Product `json:"products"`
	Outcomes      []BulkOutcome    `json:"outcomes"`
}

// ListPending returns the admin review queue: pending products with their
// vendor's quota fields preloaded.
func (s *ApprovalService) ListPending(params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).
		Where("status = ?", models.ProductStatusPending).
		Preload("Vendor").Preload("Variants")

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count pending products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "submitted_at", "name", "price"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch pending products: %w", err)
	}

	return products, total, nil
}

// Approve moves a single pending product to approved. Both rows are held
// under FOR UPDATE, product first, then vendor: the product lock makes
// concurrent decisions on the same product serialize (the loser re-reads
// the committed status and fails the state check), the vendor lock
// serializes the quota check. Every locking path in this package takes
// product rows before vendor rows, in ascending id order.
func (s *ApprovalService) Approve(productID, adminID uuid.UUID) (*models.Product, error) {
	var product models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		// State before quota: an already-decided product is an invalid
		// transition, not a quota failure.
		if product.Status != models.ProductStatusPending {
			return &lifecycle.InvalidTransitionError{Current: product.Status, Event: lifecycle.EventApprove}
		}

		var vendor models.Vendor
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&vendor, "id = ?", product.VendorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVendorNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if decision := quota.CanApprove(&vendor, 1); !decision.Allowed {
			return &QuotaExceededError{
				VendorID:  vendor.ID,
				Current:   vendor.CurrentApprovedCount,
				Attempted: 1,
				Max:       vendor.MaxProducts,
			}
		}

		result, err := lifecycle.Transition(&product, lifecycle.EventApprove, &adminID, "")
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
			"status":           product.Status,
			"approved_at":      product.ApprovedAt,
			"approved_by":      product.ApprovedBy,
			"rejection_reason": "",
		}).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		return applyCountDelta(tx, &vendor, result.CountDelta)
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Vendor").Preload("Variants").First(&product, "id = ?", product.ID)

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"vendor_id":  product.VendorID,
		"admin_id":   adminID,
	}).Info("Product approved")

	return &product, nil
}

// Reject declines a pending product. The reason length is validated before
// any transaction opens; rejection never touches the quota counter.
func (s *ApprovalService) Reject(productID, adminID uuid.UUID, reason string) (*models.Product, error) {
	var product models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if _, err := lifecycle.Transition(&product, lifecycle.EventReject, &adminID, reason); err != nil {
			return err
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
			"status":           product.Status,
			"rejection_reason": product.RejectionReason,
			"approved_by":      product.ApprovedBy,
		}).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Vendor").First(&product, "id = ?", product.ID)

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"vendor_id":  product.VendorID,
		"admin_id":   adminID,
	}).Info("Product rejected")

	return &product, nil
}

// BulkApprove approves a batch of pending products in one transaction.
// Product rows are locked first, in ascending id order, then vendor rows,
// also ascending, so overlapping batches and single approvals cannot
// deadlock and every status is read under its lock. Quota capacity is
// reserved per vendor for the vendor's whole share of the batch before
// any row is mutated: a vendor at max_products-1 with two products in the
// batch fails the entire operation, nothing is approved. Ids that are
// absent, not pending, or repeated in the request are reported in the
// outcome list rather than silently dropped.
func (s *ApprovalService) BulkApprove(productIDs []uuid.UUID, adminID uuid.UUID) (*BulkApproveResult, error) {
	result := &BulkApproveResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		unique := make([]uuid.UUID, 0, len(productIDs))
		seen := make(map[uuid.UUID]bool, len(productIDs))
		for _, id := range productIDs {
			if !seen[id] {
				seen[id] = true
				unique = append(unique, id)
			}
		}

		lockOrder := append([]uuid.UUID(nil), unique...)
		sort.Slice(lockOrder, func(i, j int) bool {
			return lockOrder[i].String() < lockOrder[j].String()
		})

		byID := make(map[uuid.UUID]*models.Product, len(lockOrder))
		for _, id := range lockOrder {
			var p models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&p, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return fmt.Errorf("database error: %w", err)
			}
			byID[id] = &p
		}

		var pending []*models.Product
		classified := make(map[uuid.UUID]bool, len(unique))
		for _, id := range productIDs {
			if classified[id] {
				// Repeated id; only the first occurrence is acted on.
				result.Outcomes = append(result.Outcomes, BulkOutcome{ID: id, Outcome: "skipped"})
				continue
			}
			classified[id] = true

			p, ok := byID[id]
			switch {
			case !ok:
				result.Outcomes = append(result.Outcomes, BulkOutcome{ID: id, Outcome: "not_found"})
			case p.Status != models.ProductStatusPending:
				result.Outcomes = append(result.Outcomes, BulkOutcome{ID: id, Outcome: "skipped"})
			default:
				pending = append(pending, p)
			}
		}

		// Group the batch by vendor so capacity is checked per vendor
		// across the whole batch.
		attempted := make(map[uuid.UUID]int)
		for _, p := range pending {
			attempted[p.VendorID]++
		}

		// Lock vendor rows in ascending id order so two overlapping bulk
		// operations cannot deadlock on each other.
		vendorIDs := make([]uuid.UUID, 0, len(attempted))
		for id := range attempted {
			vendorIDs = append(vendorIDs, id)
		}
		sort.Slice(vendorIDs, func(i, j int) bool {
			return vendorIDs[i].String() < vendorIDs[j].String()
		})

		vendors := make(map[uuid.UUID]*models.Vendor, len(vendorIDs))
		for _, id := range vendorIDs {
			var vendor models.Vendor
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&vendor, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrVendorNotFound
				}
				return fmt.Errorf("database error: %w", err)
			}

			if decision := quota.CanApprove(&vendor, attempted[id]); !decision.Allowed {
				return &QuotaExceededError{
					VendorID:  vendor.ID,
					Current:   vendor.CurrentApprovedCount,
					Attempted: attempted[id],
					Max:       vendor.MaxProducts,
				}
			}
			vendors[id] = &vendor
		}

		// Every vendor has capacity for its whole group; mutate.
		for _, p := range pending {
			transition, err := lifecycle.Transition(p, lifecycle.EventApprove, &adminID, "")
			if err != nil {
				return err
			}

			if err := tx.Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
				"status":           p.Status,
				"approved_at":      p.ApprovedAt,
				"approved_by":      p.ApprovedBy,
				"rejection_reason": "",
			}).Error; err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}

			if err := applyCountDelta(tx, vendors[p.VendorID], transition.CountDelta); err != nil {
				return err
			}

			result.Products = append(result.Products, *p)
			result.Outcomes = append(result.Outcomes, BulkOutcome{ID: p.ID, Outcome: "approved"})
		}

		result.ApprovedCount = len(pending)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"requested": len(productIDs),
		"approved":  result.ApprovedCount,
		"admin_id":  adminID,
	}).Info("Bulk approval committed")

	return result, nil
}

// applyCountDelta moves the vendor's denormalized approved counter. The
// vendor row must already be locked by the caller's transaction. A
// decrement below zero means the invariant was already broken; the
// transaction is aborted, never clamped.
func applyCountDelta(tx *gorm.DB, vendor *models.Vendor, delta int) error {
	if delta == 0 {
		return nil
	}

	next := vendor.CurrentApprovedCount + delta
	if next < 0 {
		drift := &CounterDriftError{VendorID: vendor.ID, Count: vendor.CurrentApprovedCount}
		logrus.WithFields(logrus.Fields{
			"vendor_id": vendor.ID,
			"current":   vendor.CurrentApprovedCount,
			"delta":     delta,
		}).Error("Approved product counter drift detected")
		return drift
	}

	if err := tx.Model(&models.Vendor{}).Where("id = ?", vendor.ID).
		Update("current_approved_count", next).Error; err != nil {
		return fmt.Errorf("failed to update vendor counter: %w", err)
	}

	vendor.CurrentApprovedCount = next
	return nil
}
