package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-contracts/internal/model"
	"github.com/iliyamo/rental-contracts/internal/service"
)

// InvoiceIssuer creates invoices.
type InvoiceIssuer interface {
	Issue(ctx context.Context, p service.IssueParams) (model.Invoice, error)
}

// InvoiceHandler serves the invoice endpoints.  Responses use the
// APIResponse envelope.
type InvoiceHandler struct {
	Invoices InvoiceIssuer
	Log      *logrus.Logger
}

func NewInvoiceHandler(inv InvoiceIssuer, log *logrus.Logger) *InvoiceHandler {
	return &InvoiceHandler{Invoices: inv, Log: log}
}

// ApplyTemplate issues the invoice of one period from template :id.
func (h *InvoiceHandler) ApplyTemplate(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req model.ApplyTemplateRequest
	if bad := bindRequest(c, &req); bad != nil {
		return c.JSON(http.StatusBadRequest, bad)
	}
	return h.issue(c, "InvoiceHandler.ApplyTemplate", service.IssueParams{
		LandlordID:   uid,
		ContractID:   req.ContractID,
		TemplateID:   c.Param("id"),
		Month:        req.Month,
		Year:         req.Year,
		DueDate:      req.DueDate,
		KeepReadings: req.KeepReadings,
	})
}

// Create issues an invoice straight from the contract terms.
func (h *InvoiceHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req model.CreateInvoiceRequest
	if bad := bindRequest(c, &req); bad != nil {
		return c.JSON(http.StatusBadRequest, bad)
	}
	return h.issue(c, "InvoiceHandler.Create", service.IssueParams{
		LandlordID:      uid,
		ContractID:      req.ContractID,
		Month:           req.Month,
		Year:            req.Year,
		DueDate:         req.DueDate,
		IncludeServices: req.IncludeServices,
	})
}

func (h *InvoiceHandler) issue(c echo.Context, funcName string, p service.IssueParams) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	inv, err := h.Invoices.Issue(ctx, p)
	if err != nil {
		return respondError(c, h.Log, funcName, p, err)
	}
	h.Log.WithFields(logrus.Fields{
		"invoice_id": inv.ID, "contract_id": inv.ContractID, "month": inv.Month, "year": inv.Year,
	}).Info("invoice created")
	return c.JSON(http.StatusCreated, model.APIResponse{
		Success: true,
		Message: msgInvoiceCreated,
		Data:    &model.ResponseData{Invoice: &model.InvoiceRef{ID: inv.ID}},
	})
}
