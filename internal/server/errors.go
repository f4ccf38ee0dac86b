package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	metricsdomain "github.com/smallbiznis/procura/internal/procurementmetrics/domain"
	orderdomain "github.com/smallbiznis/procura/internal/purchaseorder/domain"
	requestdomain "github.com/smallbiznis/procura/internal/purchaserequest/domain"
	supplierdomain "github.com/smallbiznis/procura/internal/supplier/domain"
)

// apiError carries enough structure for the calling layer to render a
// specific message: a stable kind, an HTTP status, and a human message.
type apiError struct {
	Status  int    `json:"-"`
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Code }

// Error kinds, mirroring the workflow error taxonomy.
const (
	KindNotFound          = "not_found"
	KindIllegalTransition = "illegal_transition"
	KindInvalidReference  = "invalid_reference"
	KindValidation        = "validation_error"
	KindUnauthorized      = "unauthorized"
	KindInternal          = "internal"
)

var ErrServiceUnavailable = &apiError{
	Status:  http.StatusServiceUnavailable,
	Kind:    KindInternal,
	Code:    "service_unavailable",
	Message: "service unavailable",
}

func invalidRequestError() *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Kind:    KindValidation,
		Code:    "invalid_request",
		Message: "request body could not be parsed",
	}
}

func newValidationError(code, message string) *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Kind:    KindValidation,
		Code:    code,
		Message: message,
	}
}

// sentinelMapping translates domain sentinel errors into API errors. Missing
// and cross-tenant entities deliberately map to the same not-found response.
var sentinelMapping = []struct {
	err    error
	status int
	kind   string
	msg    string
}{
	{supplierdomain.ErrNotFound, http.StatusNotFound, KindNotFound, "supplier not found"},
	{requestdomain.ErrNotFound, http.StatusNotFound, KindNotFound, "purchase request not found"},
	{orderdomain.ErrNotFound, http.StatusNotFound, KindNotFound, "purchase order not found"},

	{requestdomain.ErrIllegalTransition, http.StatusConflict, KindIllegalTransition, "status change not permitted from current state"},
	{orderdomain.ErrIllegalTransition, http.StatusConflict, KindIllegalTransition, "status change not permitted from current state"},
	{supplierdomain.ErrSupplierInUse, http.StatusConflict, KindIllegalTransition, "supplier has dependent purchase orders"},

	{requestdomain.ErrInvalidSupplier, http.StatusUnprocessableEntity, KindInvalidReference, "referenced supplier does not exist"},
	{orderdomain.ErrInvalidSupplier, http.StatusUnprocessableEntity, KindInvalidReference, "referenced supplier does not exist"},

	{requestdomain.ErrInvalidItems, http.StatusBadRequest, KindValidation, "line items are malformed"},
	{orderdomain.ErrInvalidItems, http.StatusBadRequest, KindValidation, "line items are malformed"},
	{requestdomain.ErrInvalidQuantity, http.StatusBadRequest, KindValidation, "line item quantity must be positive"},
	{orderdomain.ErrInvalidQuantity, http.StatusBadRequest, KindValidation, "line item quantity must be positive"},
	{requestdomain.ErrInvalidDecision, http.StatusBadRequest, KindValidation, "decision must be approved or rejected"},
	{orderdomain.ErrInvalidStatus, http.StatusBadRequest, KindValidation, "unknown order status"},
	{supplierdomain.ErrInvalidStatus, http.StatusBadRequest, KindValidation, "unknown supplier status"},
	{supplierdomain.ErrInvalidName, http.StatusBadRequest, KindValidation, "supplier name is required"},

	{supplierdomain.ErrInvalidID, http.StatusNotFound, KindNotFound, "supplier not found"},
	{requestdomain.ErrInvalidID, http.StatusNotFound, KindNotFound, "purchase request not found"},
	{orderdomain.ErrInvalidID, http.StatusNotFound, KindNotFound, "purchase order not found"},

	{supplierdomain.ErrInvalidActor, http.StatusUnauthorized, KindUnauthorized, "actor identity is missing"},
	{requestdomain.ErrInvalidActor, http.StatusUnauthorized, KindUnauthorized, "actor identity is missing"},
	{orderdomain.ErrInvalidActor, http.StatusUnauthorized, KindUnauthorized, "actor identity is missing"},
	{metricsdomain.ErrInvalidActor, http.StatusUnauthorized, KindUnauthorized, "actor identity is missing"},
}

// AbortWithError renders a domain or API error as a JSON response.
func AbortWithError(c *gin.Context, err error) {
	var api *apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.Status, gin.H{"error": api})
		return
	}

	for _, entry := range sentinelMapping {
		if errors.Is(err, entry.err) {
			c.AbortWithStatusJSON(entry.status, gin.H{"error": &apiError{
				Status:  entry.status,
				Kind:    entry.kind,
				Code:    entry.err.Error(),
				Message: entry.msg,
			}})
			return
		}
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": &apiError{
		Status:  http.StatusInternalServerError,
		Kind:    KindInternal,
		Code:    "internal_error",
		Message: "unexpected error",
	}})
}
