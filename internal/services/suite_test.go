// internal/services/suite_test.go
package services

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vendorhub/marketplace-backend/internal/models"
)

// dbSuite wires a real Postgres database for the approval and catalog
// suites. FOR UPDATE row locks do not exist on sqlite, so these tests
// only run when TEST_DATABASE_DSN points at a Postgres instance, e.g.
//
//	TEST_DATABASE_DSN="host=localhost user=postgres dbname=vendorhub_test sslmode=disable"
type dbSuite struct {
	suite.Suite
	db *gorm.DB
}

func (s *dbSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		s.T().Skip("TEST_DATABASE_DSN not set; skipping database suite")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	s.Require().NoError(db.Exec("CREATE EXTENSION IF NOT EXISTS \"pgcrypto\"").Error)
	s.Require().NoError(db.AutoMigrate(
		&models.Vendor{},
		&models.Product{},
		&models.ProductVariant{},
	))

	s.db = db
}

func (s *dbSuite) SetupTest() {
	s.db.Exec("TRUNCATE product_variants, products, vendors CASCADE")
}

func (s *dbSuite) createVendor(max, current int, trusted bool) *models.Vendor {
	vendor := &models.Vendor{
		BusinessName:         "Acme Trading Co",
		ContactEmail:         fmt.Sprintf("vendor-%s@example.com", uuid.NewString()),
		Status:               models.VendorStatusApproved,
		MaxProducts:          max,
		CurrentApprovedCount: current,
		IsTrustedVendor:      trusted,
	}
	s.Require().NoError(s.db.Create(vendor).Error)
	return vendor
}

func (s *dbSuite) createProduct(vendorID uuid.UUID, status models.ProductStatus) *models.Product {
	product := &models.Product{
		VendorID: vendorID,
		Name:     "Widget",
		SKU:      fmt.Sprintf("SKU-%s", uuid.NewString()[:8]),
		Price:    19.99,
		Stock:    5,
		Status:   status,
	}
	s.Require().NoError(s.db.Create(product).Error)
	return product
}

func (s *dbSuite) reloadVendor(id uuid.UUID) *models.Vendor {
	var vendor models.Vendor
	s.Require().NoError(s.db.First(&vendor, "id = ?", id).Error)
	return &vendor
}

func (s *dbSuite) reloadProduct(id uuid.UUID) *models.Product {
	var product models.Product
	s.Require().NoError(s.db.First(&product, "id = ?", id).Error)
	return &product
}
