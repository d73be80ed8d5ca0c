package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iliyamo/rental-contracts/internal/billing"
	"github.com/iliyamo/rental-contracts/internal/model"
)

// Category buckets an invoice submission outcome.
type Category int

const (
	CategorySuccess Category = iota
	CategoryRejected
	CategoryInvalid
	CategoryUnauthorized
	CategoryNotFound
	CategoryDuplicate
	CategoryServer
	CategoryUnknown
)

var categoryNames = map[Category]string{
	CategorySuccess:      "success",
	CategoryRejected:     "rejected",
	CategoryInvalid:      "invalid",
	CategoryUnauthorized: "unauthorized",
	CategoryNotFound:     "not_found",
	CategoryDuplicate:    "duplicate",
	CategoryServer:       "server",
	CategoryUnknown:      "unknown",
}

func (c Category) String() string { return categoryNames[c] }

// Messages shown for each category.
const (
	MsgApplied        = "Áp dụng mẫu hóa đơn thành công"
	MsgApplyFailed    = "Áp dụng mẫu hóa đơn thất bại"
	MsgInvalidData    = "Dữ liệu không hợp lệ hoặc hóa đơn tháng này đã tồn tại"
	MsgUnauthorized   = "Bạn không có quyền thực hiện hoặc phiên đăng nhập đã hết hạn"
	MsgNotFound       = "Không tìm thấy mẫu hóa đơn hoặc hợp đồng"
	MsgServerError    = "Lỗi máy chủ, vui lòng thử lại sau"
	MsgSomethingWrong = "Đã xảy ra lỗi, vui lòng thử lại"

	msgDuplicateFormat = "Hóa đơn cho hợp đồng này trong tháng %d/%d đã tồn tại"
)

// Outcome is the classified result of one submission.
type Outcome struct {
	Category  Category
	Message   string
	InvoiceID string
}

// OK reports a successful submission.
func (o Outcome) OK() bool { return o.Category == CategorySuccess }

// Classify maps a response or error from an invoice endpoint to exactly one
// user-facing outcome.  Backend text is only surfaced for explicit
// success=false responses and unclassified errors.
func Classify(resp *model.APIResponse, err error, p billing.Period) Outcome {
	if err != nil {
		return classifyError(err, p)
	}
	if resp == nil || !resp.Success {
		msg := MsgApplyFailed
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		return Outcome{Category: CategoryRejected, Message: msg}
	}
	return Outcome{Category: CategorySuccess, Message: MsgApplied, InvoiceID: resp.InvoiceID()}
}

func classifyError(err error, p billing.Period) Outcome {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		msg := err.Error()
		if msg == "" {
			msg = MsgSomethingWrong
		}
		return Outcome{Category: CategoryUnknown, Message: msg}
	}

	switch s := apiErr.Status; {
	case s == http.StatusBadRequest:
		return Outcome{Category: CategoryInvalid, Message: MsgInvalidData}
	case s == http.StatusUnauthorized || s == http.StatusForbidden:
		return Outcome{Category: CategoryUnauthorized, Message: MsgUnauthorized}
	case s == http.StatusNotFound:
		return Outcome{Category: CategoryNotFound, Message: MsgNotFound}
	case s == http.StatusConflict:
		return duplicate(p)
	case s >= http.StatusInternalServerError:
		return Outcome{Category: CategoryServer, Message: MsgServerError}
	}
	msg := apiErr.Message
	if msg == "" {
		msg = MsgSomethingWrong
	}
	return Outcome{Category: CategoryUnknown, Message: msg}
}

func duplicate(p billing.Period) Outcome {
	return Outcome{Category: CategoryDuplicate, Message: fmt.Sprintf(msgDuplicateFormat, p.Month, p.Year)}
}
