package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/procura/internal/purchaseorder/domain"
)

type setOrderStatusBody struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (s *Server) CreatePurchaseOrder(c *gin.Context) {
	var req orderdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "purchase_order.create", "purchase_order", resp.ID, map[string]any{
		"supplier_id":  resp.SupplierID,
		"total_amount": resp.TotalAmount,
	})
	s.metricsSvc.PublishSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPurchaseOrders(c *gin.Context) {
	var query orderdomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPurchaseOrderByID(c *gin.Context) {
	resp, err := s.orderSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePurchaseOrder(c *gin.Context) {
	var req orderdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	resp, err := s.orderSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "purchase_order.update", "purchase_order", resp.ID, map[string]any{
		"total_amount": resp.TotalAmount,
	})
	s.metricsSvc.PublishSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetPurchaseOrderStatus(c *gin.Context) {
	var body setOrderStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.SetStatus(c.Request.Context(), orderdomain.SetStatusRequest{
		ID:     c.Param("id"),
		Status: orderdomain.Status(strings.TrimSpace(body.Status)),
		Notes:  body.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "purchase_order.set_status", "purchase_order", resp.ID, map[string]any{
		"status": resp.Status,
	})
	s.metricsSvc.PublishSnapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
