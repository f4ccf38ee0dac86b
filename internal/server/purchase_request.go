package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/procura/internal/purchaseorder/domain"
	requestdomain "github.com/smallbiznis/procura/internal/purchaserequest/domain"
)

type decideRequestBody struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

type convertRequestBody struct {
	SupplierID         string                  `json:"supplier_id"`
	Adjustments        orderdomain.Adjustments `json:"adjustments"`
	UnitPriceOverrides map[string]int64        `json:"unit_price_overrides"`
	Notes              string                  `json:"notes"`
}

func (s *Server) SubmitPurchaseRequest(c *gin.Context) {
	var req requestdomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.requestSvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "purchase_request.submit", "purchase_request", resp.ID, map[string]any{
		"total_amount": resp.TotalAmount,
		"items":        len(resp.Items),
	})
	s.metricsSvc.PublishSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPurchaseRequests(c *gin.Context) {
	var query requestdomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.requestSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPurchaseRequestByID(c *gin.Context) {
	resp, err := s.requestSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DecidePurchaseRequest(c *gin.Context) {
	var body decideRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.requestSvc.Decide(c.Request.Context(), requestdomain.DecideRequest{
		ID:       c.Param("id"),
		Decision: requestdomain.Decision(body.Decision),
		Notes:    body.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "purchase_request.decide", "purchase_request", resp.ID, map[string]any{
		"status": resp.Status,
	})
	s.metricsSvc.PublishSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ConvertPurchaseRequest(c *gin.Context) {
	var body convertRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.requestSvc.ConvertToOrder(c.Request.Context(), requestdomain.ConvertRequest{
		ID:                 c.Param("id"),
		SupplierID:         body.SupplierID,
		Adjustments:        body.Adjustments,
		UnitPriceOverrides: body.UnitPriceOverrides,
		Notes:              body.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "purchase_request.convert", "purchase_order", resp.ID, map[string]any{
		"request_id":   resp.RequestID,
		"supplier_id":  resp.SupplierID,
		"total_amount": resp.TotalAmount,
	})
	s.metricsSvc.PublishSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
