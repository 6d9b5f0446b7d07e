// internal/services/approval_service_test.go
package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/vendorhub/marketplace-backend/internal/lifecycle"
	"github.com/vendorhub/marketplace-backend/internal/models"
	"github.com/vendorhub/marketplace-backend/internal/utils"
)

type ApprovalServiceTestSuite struct {
	dbSuite
	service *ApprovalService
}

func (s *ApprovalServiceTestSuite) SetupSuite() {
	s.dbSuite.SetupSuite()
	s.service = NewApprovalService(s.db)
}

func (s *ApprovalServiceTestSuite) TestApproveIncrementsCounter() {
	vendor := s.createVendor(10, 0, false)
	product := s.createProduct(vendor.ID, models.ProductStatusPending)
	admin := uuid.New()

	approved, err := s.service.Approve(product.ID, admin)
	s.Require().NoError(err)

	s.Equal(models.ProductStatusApproved, approved.Status)
	s.NotNil(approved.ApprovedAt)
	s.Require().NotNil(approved.ApprovedBy)
	s.Equal(admin, *approved.ApprovedBy)
	s.Equal(1, s.reloadVendor(vendor.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestApproveAtQuotaFails() {
	vendor := s.createVendor(2, 2, false)
	product := s.createProduct(vendor.ID, models.ProductStatusPending)

	_, err := s.service.Approve(product.ID, uuid.New())

	var quotaErr *QuotaExceededError
	s.Require().ErrorAs(err, &quotaErr)
	s.Equal(vendor.ID, quotaErr.VendorID)
	s.Equal(2, quotaErr.Current)
	s.Equal(1, quotaErr.Attempted)
	s.Equal(2, quotaErr.Max)

	// Nothing committed.
	s.Equal(models.ProductStatusPending, s.reloadProduct(product.ID).Status)
	s.Equal(2, s.reloadVendor(vendor.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestApproveTrustedVendorOverQuota() {
	vendor := s.createVendor(2, 2, true)
	product := s.createProduct(vendor.ID, models.ProductStatusPending)

	approved, err := s.service.Approve(product.ID, uuid.New())
	s.Require().NoError(err)

	s.Equal(models.ProductStatusApproved, approved.Status)
	// The counter still moves for trusted vendors.
	s.Equal(3, s.reloadVendor(vendor.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestApproveNonPendingFails() {
	vendor := s.createVendor(10, 0, false)
	product := s.createProduct(vendor.ID, models.ProductStatusDraft)

	_, err := s.service.Approve(product.ID, uuid.New())

	var transitionErr *lifecycle.InvalidTransitionError
	s.Require().ErrorAs(err, &transitionErr)
	s.Equal(0, s.reloadVendor(vendor.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestApproveDecidedProductReportsStateNotQuota() {
	// The state check runs before the quota gate: re-approving an
	// already-approved product of a full vendor is an invalid
	// transition, not a quota failure.
	vendor := s.createVendor(2, 2, false)
	product := s.createProduct(vendor.ID, models.ProductStatusApproved)

	_, err := s.service.Approve(product.ID, uuid.New())

	var transitionErr *lifecycle.InvalidTransitionError
	s.Require().ErrorAs(err, &transitionErr)
	s.Equal(models.ProductStatusApproved, transitionErr.Current)
	s.Equal(2, s.reloadVendor(vendor.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestApproveMissingProduct() {
	_, err := s.service.Approve(uuid.New(), uuid.New())
	s.ErrorIs(err, ErrProductNotFound)
}

func (s *ApprovalServiceTestSuite) TestRejectKeepsCounter() {
	vendor := s.createVendor(10, 3, false)
	product := s.createProduct(vendor.ID, models.ProductStatusPending)
	admin := uuid.New()

	rejected, err := s.service.Reject(product.ID, admin, "Product photos do not match the description")
	s.Require().NoError(err)

	s.Equal(models.ProductStatusRejected, rejected.Status)
	s.Equal("Product photos do not match the description", rejected.RejectionReason)
	s.Equal(3, s.reloadVendor(vendor.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestRejectShortReasonFails() {
	vendor := s.createVendor(10, 0, false)
	product := s.createProduct(vendor.ID, models.ProductStatusPending)

	_, err := s.service.Reject(product.ID, uuid.New(), "too bad")

	var reasonErr *lifecycle.ReasonTooShortError
	s.Require().ErrorAs(err, &reasonErr)
	s.Equal(models.ProductStatusPending, s.reloadProduct(product.ID).Status)
}

func (s *ApprovalServiceTestSuite) TestBulkApproveAllOrNothing() {
	// Vendor A has room for one more but two products in the batch;
	// vendor B has plenty of room. The whole batch must fail.
	vendorA := s.createVendor(2, 1, false)
	vendorB := s.createVendor(10, 0, false)
	a1 := s.createProduct(vendorA.ID, models.ProductStatusPending)
	a2 := s.createProduct(vendorA.ID, models.ProductStatusPending)
	b1 := s.createProduct(vendorB.ID, models.ProductStatusPending)

	_, err := s.service.BulkApprove([]uuid.UUID{a1.ID, a2.ID, b1.ID}, uuid.New())

	var quotaErr *QuotaExceededError
	s.Require().ErrorAs(err, &quotaErr)
	s.Equal(vendorA.ID, quotaErr.VendorID)
	s.Equal(2, quotaErr.Attempted)

	s.Equal(models.ProductStatusPending, s.reloadProduct(a1.ID).Status)
	s.Equal(models.ProductStatusPending, s.reloadProduct(a2.ID).Status)
	s.Equal(models.ProductStatusPending, s.reloadProduct(b1.ID).Status)
	s.Equal(1, s.reloadVendor(vendorA.ID).CurrentApprovedCount)
	s.Equal(0, s.reloadVendor(vendorB.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestBulkApproveMultipleVendors() {
	vendorA := s.createVendor(5, 3, false)
	vendorB := s.createVendor(5, 0, false)
	a1 := s.createProduct(vendorA.ID, models.ProductStatusPending)
	b1 := s.createProduct(vendorB.ID, models.ProductStatusPending)
	b2 := s.createProduct(vendorB.ID, models.ProductStatusPending)

	result, err := s.service.BulkApprove([]uuid.UUID{a1.ID, b1.ID, b2.ID}, uuid.New())
	s.Require().NoError(err)

	s.Equal(3, result.ApprovedCount)
	s.Len(result.Products, 3)
	s.Equal(4, s.reloadVendor(vendorA.ID).CurrentApprovedCount)
	s.Equal(2, s.reloadVendor(vendorB.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestBulkApproveReportsOutcomes() {
	vendor := s.createVendor(10, 0, false)
	pending := s.createProduct(vendor.ID, models.ProductStatusPending)
	draft := s.createProduct(vendor.ID, models.ProductStatusDraft)
	missing := uuid.New()

	result, err := s.service.BulkApprove([]uuid.UUID{pending.ID, draft.ID, missing}, uuid.New())
	s.Require().NoError(err)

	s.Equal(1, result.ApprovedCount)

	outcomes := make(map[uuid.UUID]string, len(result.Outcomes))
	for _, o := range result.Outcomes {
		outcomes[o.ID] = o.Outcome
	}
	s.Equal("approved", outcomes[pending.ID])
	s.Equal("skipped", outcomes[draft.ID])
	s.Equal("not_found", outcomes[missing])

	// A skipped draft is untouched.
	s.Equal(models.ProductStatusDraft, s.reloadProduct(draft.ID).Status)
	s.Equal(1, s.reloadVendor(vendor.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestBulkApproveDuplicateIDs() {
	vendor := s.createVendor(10, 0, false)
	product := s.createProduct(vendor.ID, models.ProductStatusPending)

	result, err := s.service.BulkApprove([]uuid.UUID{product.ID, product.ID}, uuid.New())
	s.Require().NoError(err)

	s.Equal(1, result.ApprovedCount)
	s.Require().Len(result.Outcomes, 2)

	counts := make(map[string]int, 2)
	for _, o := range result.Outcomes {
		s.Equal(product.ID, o.ID)
		counts[o.Outcome]++
	}
	s.Equal(1, counts["approved"])
	s.Equal(1, counts["skipped"])
	s.Equal(1, s.reloadVendor(vendor.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestConcurrentApprovalsAtQuotaBoundary() {
	// Vendor has room for exactly one more product; of two concurrent
	// approvals, exactly one may win.
	vendor := s.createVendor(2, 1, false)
	p1 := s.createProduct(vendor.ID, models.ProductStatusPending)
	p2 := s.createProduct(vendor.ID, models.ProductStatusPending)

	errs := make(chan error, 2)
	for _, id := range []uuid.UUID{p1.ID, p2.ID} {
		id := id
		go func() {
			_, err := s.service.Approve(id, uuid.New())
			errs <- err
		}()
	}

	var approved, blocked int
	for i := 0; i < 2; i++ {
		err := <-errs
		var quotaErr *QuotaExceededError
		switch {
		case err == nil:
			approved++
		case errors.As(err, &quotaErr):
			blocked++
		default:
			s.Require().NoError(err)
		}
	}

	s.Equal(1, approved)
	s.Equal(1, blocked)
	s.Equal(2, s.reloadVendor(vendor.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestConcurrentApprovalsOfSameProduct() {
	// The loser of the product-row lock must observe the committed
	// approval and fail the state check; the counter moves exactly once.
	vendor := s.createVendor(10, 0, false)
	product := s.createProduct(vendor.ID, models.ProductStatusPending)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := s.service.Approve(product.ID, uuid.New())
			errs <- err
		}()
	}

	var approved, invalid int
	for i := 0; i < 2; i++ {
		err := <-errs
		var transitionErr *lifecycle.InvalidTransitionError
		switch {
		case err == nil:
			approved++
		case errors.As(err, &transitionErr):
			invalid++
		default:
			s.Require().NoError(err)
		}
	}

	s.Equal(1, approved)
	s.Equal(1, invalid)
	s.Equal(models.ProductStatusApproved, s.reloadProduct(product.ID).Status)
	s.Equal(1, s.reloadVendor(vendor.ID).CurrentApprovedCount)
}

func (s *ApprovalServiceTestSuite) TestListPendingOrdersBySubmission() {
	vendor := s.createVendor(10, 0, false)
	s.createProduct(vendor.ID, models.ProductStatusPending)
	s.createProduct(vendor.ID, models.ProductStatusPending)
	s.createProduct(vendor.ID, models.ProductStatusDraft)

	params := utils.PaginationParams{Page: 1, Limit: 20, Sort: "submitted_at", Order: "asc"}
	products, total, err := s.service.ListPending(params)
	s.Require().NoError(err)

	s.Equal(int64(2), total)
	s.Len(products, 2)
	for _, p := range products {
		s.Equal(models.ProductStatusPending, p.Status)
		s.NotEmpty(p.Vendor.BusinessName)
	}
}

func TestApprovalServiceSuite(t *testing.T) {
	suite.Run(t, new(ApprovalServiceTestSuite))
}
