// internal/models/vendor.go
package models

type Vendor struct {
	BaseModel
	BusinessName         string       `json:"business_name" gorm:"size:255;not null"`
	ContactEmail         string       `json:"contact_email" gorm:"size:255;uniqueIndex;not null"`
	Status               VendorStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	MaxProducts          int          `json:"max_products" gorm:"not null;default:10"`
	CurrentApprovedCount int          `json:"current_approved_count" gorm:"not null;default:0"`
	IsTrustedVendor      bool         `json:"is_trusted_vendor" gorm:"not null;default:false"`

	// Relationships
	Products []Product `json:"products,omitempty" gorm:"foreignKey:VendorID"`
}

// Summary carries the vendor fields the admin review queue displays
// alongside each pending product.
type VendorSummary struct {
	BusinessName         string       `json:"business_name"`
	Status               VendorStatus `json:"status"`
	MaxProducts          int          `json:"max_products"`
	CurrentApprovedCount int          `json:"current_approved_count"`
	IsTrustedVendor      bool         `json:"is_trusted_vendor"`
}

func (v *Vendor) Summary() VendorSummary {
	return VendorSummary{
		BusinessName:         v.BusinessName,
		Status:               v.Status,
		MaxProducts:          v.MaxProducts,
		CurrentApprovedCount: v.CurrentApprovedCount,
		IsTrustedVendor:      v.IsTrustedVendor,
	}
}
