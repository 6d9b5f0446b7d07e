// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	VendorID        uuid.UUID      `json:"vendor_id" gorm:"type:uuid;not null;index"`
	Name            string         `json:"name" gorm:"size:255;not null"`
	Description     string         `json:"description" gorm:"type:text"`
	SKU             string         `json:"sku" gorm:"size:100;index"`
	Price           float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock           int            `json:"stock" gorm:"default:0"`
	Attributes      JSONB          `json:"attributes" gorm:"type:jsonb"`
	GalleryImages   pq.StringArray `json:"gallery_images" gorm:"type:text[]"`
	Status          ProductStatus  `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	SubmittedAt     *time.Time     `json:"submitted_at"`
	ApprovedAt      *time.Time     `json:"approved_at"`
	ApprovedBy      *uuid.UUID     `json:"approved_by" gorm:"type:uuid"`
	RejectionReason string         `json:"rejection_reason,omitempty" gorm:"type:text"`

	// Relationships
	Vendor   Vendor           `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Variants []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
}

// ProductVariant rows have no lifecycle of their own; they are replaced
// wholesale whenever the parent product is updated.
type ProductVariant struct {
	BaseModel
	ProductID  uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	SKU        string    `json:"sku" gorm:"size:100"`
	Price      float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock      int       `json:"stock" gorm:"default:0"`
	Attributes JSONB     `json:"attributes" gorm:"type:jsonb"`
	ImageURL   string    `json:"image_url" gorm:"type:text"`
}
