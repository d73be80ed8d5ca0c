package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/model"
	"github.com/iliyamo/rental-contracts/internal/store"
)

// Messages for contract actions.
const (
	MsgContractCreated    = "Tạo hợp đồng thành công"
	MsgContractUpdated    = "Cập nhật hợp đồng thành công"
	MsgImagesUploaded     = "Tải ảnh hợp đồng thành công"
	MsgNoPDF              = "Hợp đồng chưa có file PDF"
	MsgUploadNotAllowed   = "Chỉ có thể tải ảnh khi hợp đồng đang chờ ký hoặc chờ duyệt"
	MsgContractNotFound   = "Không tìm thấy hợp đồng"
	MsgSubmissionInFlight = "Yêu cầu đang được xử lý"
)

// ContractAPI is the part of Client used by ContractFlow.
type ContractAPI interface {
	CreateContract(ctx context.Context, req model.CreateContractRequest) (*model.Contract, error)
	GetContract(ctx context.Context, id string) (*model.Contract, error)
	UpdateContract(ctx context.Context, id string, req model.UpdateContractRequest) (*model.Contract, error)
	GenerateContractPDF(ctx context.Context, id string) (string, error)
	AddSignedImages(ctx context.Context, id string, urls []string) (*model.Contract, error)
}

// ContractFlow drives contract screens: local validation before any
// request, and a re-fetch after every action the server confirms.
type ContractFlow struct {
	API   ContractAPI
	UI    Presenter
	Store Dispatcher
	Guard *InFlight
	Log   *logrus.Logger
}

// NewContractFlow returns a ContractFlow with its own in-flight guard.
func NewContractFlow(api ContractAPI, ui Presenter, st Dispatcher) *ContractFlow {
	return &ContractFlow{API: api, UI: ui, Store: st, Guard: NewInFlight(), Log: logrus.StandardLogger()}
}

// Create validates the form locally and only then posts it.  Validation
// failures are shown in a single alert and never reach the network.
func (f *ContractFlow) Create(ctx context.Context, req model.CreateContractRequest, flow contract.Flow, maxOccupancy int) (*model.Contract, contract.ValidationResult) {
	res := contract.Validate(req.Form(maxOccupancy), flow)
	if !res.IsValid {
		f.UI.Alert(res.Message())
		return nil, res
	}
	var created *model.Contract
	f.guarded("create:"+req.RoomID, func() {
		c, err := f.API.CreateContract(ctx, req)
		if err != nil {
			f.fail("create", req.RoomID, err)
			return
		}
		f.dispatch(*c)
		f.UI.Notify(MsgContractCreated)
		created = c
	})
	return created, res
}

// Refresh re-fetches a contract and stores it.
func (f *ContractFlow) Refresh(ctx context.Context, id string) (*model.Contract, error) {
	c, err := f.API.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	f.dispatch(*c)
	return c, nil
}

// OpenPDF generates the PDF of a draft or opens the stored one.
func (f *ContractFlow) OpenPDF(ctx context.Context, c model.Contract) {
	switch contract.ResolvePDFAction(c.Status, c.ContractPDFURL) {
	case contract.PDFGenerate:
		f.guarded("pdf:"+c.ID, func() {
			url, err := f.API.GenerateContractPDF(ctx, c.ID)
			if err != nil {
				f.fail("pdf", c.ID, err)
				return
			}
			f.UI.OpenDocument(url)
			f.refreshQuietly(ctx, c.ID)
		})
	case contract.PDFView:
		f.UI.OpenDocument(c.ContractPDFURL)
	default:
		f.UI.Alert(MsgNoPDF)
	}
}

// UploadImages attaches signed scans while the contract awaits signature
// or approval.
func (f *ContractFlow) UploadImages(ctx context.Context, c model.Contract, urls []string) bool {
	if !contract.CanUploadImages(c.Status) {
		f.UI.Alert(MsgUploadNotAllowed)
		return false
	}
	ok := false
	f.guarded("images:"+c.ID, func() {
		if _, err := f.API.AddSignedImages(ctx, c.ID, urls); err != nil {
			f.fail("images", c.ID, err)
			return
		}
		f.UI.Notify(MsgImagesUploaded)
		f.refreshQuietly(ctx, c.ID)
		ok = true
	})
	return ok
}

// Update sends edited rules, terms and the service selection as an
// explicit upsert/remove diff against the contract's current services.
func (f *ContractFlow) Update(ctx context.Context, c model.Contract, rules, additionalTerms string, selected []contract.CustomService) bool {
	diff := contract.DiffServices(c.CustomServices, selected)
	req := model.UpdateContractRequest{
		Rules:           &rules,
		AdditionalTerms: &additionalTerms,
		UpsertServices:  diff.Upsert,
		RemoveServices:  diff.Remove,
	}
	ok := false
	f.guarded("update:"+c.ID, func() {
		if _, err := f.API.UpdateContract(ctx, c.ID, req); err != nil {
			f.fail("update", c.ID, err)
			return
		}
		f.UI.Notify(MsgContractUpdated)
		f.refreshQuietly(ctx, c.ID)
		ok = true
	})
	return ok
}

func (f *ContractFlow) guarded(key string, fn func()) {
	release, err := f.Guard.Acquire(key)
	if err != nil {
		f.UI.Alert(MsgSubmissionInFlight)
		return
	}
	defer release()
	if f.Store != nil {
		f.Store.Dispatch(store.LoadingChanged{Key: key, Loading: true})
		defer f.Store.Dispatch(store.LoadingChanged{Key: key})
	}
	fn()
}

func (f *ContractFlow) dispatch(c model.Contract) {
	if f.Store != nil {
		f.Store.Dispatch(store.ContractLoaded{Contract: c})
	}
}

func (f *ContractFlow) refreshQuietly(ctx context.Context, id string) {
	if _, err := f.Refresh(ctx, id); err != nil {
		f.Log.WithFields(logrus.Fields{"contract_id": id}).WithError(err).Warn("contract refresh failed")
	}
}

func (f *ContractFlow) fail(op, id string, err error) {
	f.Log.WithFields(logrus.Fields{"op": op, "id": id}).WithError(err).Warn("contract action failed")
	f.UI.Alert(DescribeError(err))
}

// DescribeError turns a contract endpoint error into a short message.
func DescribeError(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		if msg := err.Error(); msg != "" {
			return msg
		}
		return MsgSomethingWrong
	}
	switch s := apiErr.Status; {
	case s == http.StatusUnauthorized || s == http.StatusForbidden:
		return MsgUnauthorized
	case s == http.StatusNotFound:
		return MsgContractNotFound
	case s >= http.StatusInternalServerError:
		return MsgServerError
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgSomethingWrong
}
