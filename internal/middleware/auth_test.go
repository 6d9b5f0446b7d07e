// internal/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vendorhub/marketplace-backend/internal/utils"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	admin := r.Group("/admin", AuthRequired(), AdminRequired())
	admin.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	vendor := r.Group("/vendor", AuthRequired(), VendorRequired())
	vendor.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	return r
}

func doRequest(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	r := newAuthRouter()
	w := doRequest(r, "/admin/ping", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsMalformedToken(t *testing.T) {
	r := newAuthRouter()
	w := doRequest(r, "/admin/ping", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRequiredAllowsAdmin(t *testing.T) {
	r := newAuthRouter()
	token, err := utils.GenerateJWT(uuid.New(), "reviewer", "admin", "", 1)
	assert.NoError(t, err)

	w := doRequest(r, "/admin/ping", token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRequiredRejectsVendor(t *testing.T) {
	r := newAuthRouter()
	token, err := utils.GenerateJWT(uuid.New(), "shopkeeper", "vendor", uuid.NewString(), 1)
	assert.NoError(t, err)

	w := doRequest(r, "/admin/ping", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVendorRequiredAllowsVendor(t *testing.T) {
	r := newAuthRouter()
	token, err := utils.GenerateJWT(uuid.New(), "shopkeeper", "vendor", uuid.NewString(), 1)
	assert.NoError(t, err)

	w := doRequest(r, "/vendor/ping", token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVendorRequiredRejectsTokenWithoutVendorID(t *testing.T) {
	r := newAuthRouter()
	token, err := utils.GenerateJWT(uuid.New(), "shopkeeper", "vendor", "", 1)
	assert.NoError(t, err)

	w := doRequest(r, "/vendor/ping", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
