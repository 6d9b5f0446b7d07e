// internal/quota/gate.go
package quota

import (
	"fmt"

	"github.com/vendorhub/marketplace-backend/internal/models"
)

// Decision is the outcome of a quota check. It carries no side effects;
// the authoritative check runs inside the approval coordinator's
// transaction, with the vendor row locked.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanApprove reports whether approving additionalCount more products for
// the vendor keeps it within its plan quota. Trusted vendors are never
// blocked; their approved counter still moves so the number stays
// observable.
func CanApprove(vendor *models.Vendor, additionalCount int) Decision {
	if vendor.IsTrustedVendor {
		return Decision{Allowed: true}
	}

	if vendor.CurrentApprovedCount+additionalCount > vendor.MaxProducts {
		return Decision{
			Allowed: false,
			Reason: fmt.Sprintf("vendor has %d of %d approved products, cannot approve %d more",
				vendor.CurrentApprovedCount, vendor.MaxProducts, additionalCount),
		}
	}

	return Decision{Allowed: true}
}

// Remaining reports how many more products the vendor may have approved.
// Trusted vendors have no ceiling; Remaining returns -1 for them.
func Remaining(vendor *models.Vendor) int {
	if vendor.IsTrustedVendor {
		return -1
	}

	remaining := vendor.MaxProducts - vendor.CurrentApprovedCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
