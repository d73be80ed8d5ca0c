// Package handler implements the HTTP endpoints of the API.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-contracts/internal/billing"
	"github.com/iliyamo/rental-contracts/internal/config"
	"github.com/iliyamo/rental-contracts/internal/model"
	"github.com/iliyamo/rental-contracts/internal/repository"
	"github.com/iliyamo/rental-contracts/internal/service"
)

const (
	requestTimeout = 5 * time.Second

	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Error messages returned in the envelope.
const (
	msgInvalidBody    = "Dữ liệu gửi lên không hợp lệ"
	msgUnauthorized   = "Phiên đăng nhập không hợp lệ"
	msgForbidden      = "Bạn không có quyền thực hiện thao tác này"
	msgNotFound       = "Không tìm thấy dữ liệu"
	msgInvoiceExists  = "Hóa đơn của kỳ này đã tồn tại"
	msgBadTransition  = "Không thể chuyển sang trạng thái này"
	msgStatusLocked   = "Trạng thái hợp đồng không cho phép thao tác này"
	msgContractBusy   = "Hợp đồng đang được xử lý, vui lòng thử lại"
	msgInvalidPeriod  = "Kỳ hóa đơn hoặc hạn thanh toán không hợp lệ"
	msgInternalError  = "Lỗi máy chủ, vui lòng thử lại sau"
	msgInvoiceCreated = "Tạo hóa đơn thành công"
)

// getUserID extracts the authenticated user id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

func getRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

// pagination reads ?page and ?limit, falling back to defaults and capping
// the limit.
func pagination(c echo.Context) (page, limit int) {
	page, limit = defaultPage, defaultLimit
	if n, err := strconv.Atoi(c.QueryParam("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 {
		limit = n
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, model.APIResponse{Success: false, Message: msg, Code: code})
}

func unauthorized(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, model.CodeUnauthorized, msgUnauthorized)
}

// bindRequest decodes and validates the body into req.  A non-nil result is
// the 400 response to send.
func bindRequest(c echo.Context, req any) *model.APIResponse {
	if err := c.Bind(req); err != nil {
		return &model.APIResponse{Success: false, Message: msgInvalidBody, Code: model.CodeValidation}
	}
	if err := c.Validate(req); err != nil {
		return &model.APIResponse{
			Success: false,
			Message: msgInvalidBody,
			Code:    model.CodeValidation,
			Errors:  validationMessages(err),
		}
	}
	return nil
}

// statusOf maps a repository or service error to its HTTP status, code and
// message.  ok is false for unexpected errors.
func statusOf(err error) (status int, code, msg string, ok bool) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, model.CodeNotFound, msgNotFound, true
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, model.CodeForbidden, msgForbidden, true
	case errors.Is(err, repository.ErrInvoiceExists):
		return http.StatusConflict, model.CodeInvoiceExists, msgInvoiceExists, true
	case errors.Is(err, repository.ErrInvalidTransition):
		return http.StatusConflict, model.CodeInvalidTransition, msgBadTransition, true
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, model.CodeStatusLocked, msgStatusLocked, true
	case errors.Is(err, service.ErrContractBusy):
		return http.StatusLocked, model.CodeBusy, msgContractBusy, true
	case errors.Is(err, service.ErrContractNotActive):
		// not 409: invoice clients read every 409 as a duplicate period
		return http.StatusBadRequest, model.CodeStatusLocked, msgStatusLocked, true
	case errors.Is(err, billing.ErrInvalidPeriod):
		return http.StatusBadRequest, model.CodeValidation, msgInvalidPeriod, true
	}
	return http.StatusInternalServerError, model.CodeInternal, msgInternalError, false
}

// respondError writes the envelope for err, logging unexpected ones.
func respondError(c echo.Context, log *logrus.Logger, funcName string, data any, err error) error {
	status, code, msg, ok := statusOf(err)
	if !ok {
		config.LogError(log, "handler", funcName, c.Path(), data, err)
	}
	return fail(c, status, code, msg)
}
