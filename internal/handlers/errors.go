// internal/handlers/errors.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vendorhub/marketplace-backend/internal/i18n"
	"github.com/vendorhub/marketplace-backend/internal/lifecycle"
	"github.com/vendorhub/marketplace-backend/internal/services"
	"github.com/vendorhub/marketplace-backend/internal/utils"
)

// respondServiceError translates typed service errors into the HTTP error
// taxonomy. Quota blocks are expected business outcomes and carry their
// machine-readable numbers; anything unrecognized is an internal failure,
// logged with context and surfaced as 500.
func respondServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var quotaErr *services.QuotaExceededError
	if errors.As(err, &quotaErr) {
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyVendorQuotaLimit), gin.H{
			"vendor_id": quotaErr.VendorID,
			"current":   quotaErr.Current,
			"attempted": quotaErr.Attempted,
			"max":       quotaErr.Max,
		})
		return
	}

	var transitionErr *lifecycle.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		utils.BadRequestResponse(c, transitionErr.Error(), gin.H{
			"current_status": transitionErr.Current,
			"event":          transitionErr.Event,
		})
		return
	}

	var reasonErr *lifecycle.ReasonTooShortError
	if errors.As(err, &reasonErr) {
		utils.BadRequestResponse(c, reasonErr.Error(), nil)
		return
	}

	switch {
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "product")
	case errors.Is(err, services.ErrVendorNotFound):
		utils.NotFoundResponse(c, "vendor")
	case errors.Is(err, services.ErrVendorNotApproved):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyVendorNotApproved), nil)
	case errors.Is(err, services.ErrReapprovalRequired):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyProductReapproval), gin.H{
			"hint": "set require_reapproval to edit an approved product",
		})
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}
