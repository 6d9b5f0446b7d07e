// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"

	// Authorization
	KeyAdminAccessDenied  = "admin.access_denied"
	KeyVendorAccessDenied = "vendor.access_denied"

	// Vendors
	KeyVendorNotFound    = "vendor.not_found"
	KeyVendorNotApproved = "vendor.not_approved"
	KeyVendorQuotaLimit  = "vendor.quota_limit"

	// Products
	KeyProductCreated      = "product.created"
	KeyProductUpdated      = "product.updated"
	KeyProductDeleted      = "product.deleted"
	KeyProductNotFound     = "product.not_found"
	KeyProductApproved     = "product.approved"
	KeyProductRejected     = "product.rejected"
	KeyProductSubmitted    = "product.submitted"
	KeyProductDuplicated   = "product.duplicated"
	KeyProductBulkApproved = "product.bulk_approved"
	KeyProductReapproval   = "product.reapproval_required"

	// Validation
	KeyValidationInvalid = "validation.invalid"
)
