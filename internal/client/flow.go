package client

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-contracts/internal/billing"
	"github.com/iliyamo/rental-contracts/internal/model"
	"github.com/iliyamo/rental-contracts/internal/store"
)

// NavigationDelay lets the closing modal finish animating before the
// invoice edit screen opens.
const NavigationDelay = 300 * time.Millisecond

// InvoiceAPI is the part of Client used by ApplyFlow.
type InvoiceAPI interface {
	ApplyTemplate(ctx context.Context, templateID string, req model.ApplyTemplateRequest) (*model.APIResponse, error)
	CreateInvoice(ctx context.Context, req model.CreateInvoiceRequest) (*model.APIResponse, error)
}

// Presenter is the screen the flows report to.
type Presenter interface {
	CloseModal()
	Alert(msg string)
	Notify(msg string)
	NavigateToInvoiceEdit(invoiceID string)
	OpenDocument(url string)
}

// Dispatcher receives state updates; *store.Store implements it.
type Dispatcher interface {
	Dispatch(store.Action)
}

// ApplyInput is one invoice submission.  TemplateID empty means direct
// creation through POST /invoices.
type ApplyInput struct {
	TemplateID      string
	ContractID      string
	Selected        time.Time
	KeepReadings    bool
	IncludeServices bool
}

// Period returns the billing month selected by the user.
func (in ApplyInput) Period() billing.Period {
	return billing.PeriodOf(in.Selected)
}

// ApplyFlow submits invoices and reports exactly one outcome per attempt.
type ApplyFlow struct {
	API   InvoiceAPI
	UI    Presenter
	Store Dispatcher
	Guard *InFlight
	Log   *logrus.Logger

	// OnSuccess runs after the modal closes; screens use it to re-fetch the
	// contract.
	OnSuccess func(contractID string)

	Now             func() time.Time
	NavigationDelay time.Duration
	// Schedule runs fn after d without blocking the caller.
	Schedule func(d time.Duration, fn func())
}

// NewApplyFlow wires an ApplyFlow with real-time defaults.
func NewApplyFlow(api InvoiceAPI, ui Presenter, st Dispatcher) *ApplyFlow {
	return &ApplyFlow{
		API:             api,
		UI:              ui,
		Store:           st,
		Guard:           NewInFlight(),
		Log:             logrus.StandardLogger(),
		Now:             time.Now,
		NavigationDelay: NavigationDelay,
		Schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// Submit sends the invoice request.  A second call for the same contract
// while the first is pending returns ErrSubmissionInFlight without touching
// the network or the UI.  Every other path shows exactly one alert, notice
// or navigation.
func (f *ApplyFlow) Submit(ctx context.Context, in ApplyInput) (Outcome, error) {
	release, err := f.Guard.Acquire(in.ContractID)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	period := in.Period()
	out := f.send(ctx, in, period)

	if !out.OK() {
		f.Log.WithFields(logrus.Fields{
			"contract_id": in.ContractID,
			"template_id": in.TemplateID,
			"category":    out.Category.String(),
		}).Warn("invoice submission failed")
		f.UI.Alert(out.Message)
		return out, nil
	}

	if f.Store != nil {
		f.Store.Dispatch(store.InvoiceCreated{ContractID: in.ContractID, InvoiceID: out.InvoiceID, Period: period})
	}
	f.UI.CloseModal()
	if f.OnSuccess != nil {
		f.OnSuccess(in.ContractID)
	}
	if out.InvoiceID != "" {
		id := out.InvoiceID
		f.Schedule(f.NavigationDelay, func() { f.UI.NavigateToInvoiceEdit(id) })
	} else {
		f.UI.Notify(out.Message)
	}
	return out, nil
}

// send performs the single network call with the loading flag raised.
func (f *ApplyFlow) send(ctx context.Context, in ApplyInput, period billing.Period) Outcome {
	key := "invoice:" + in.ContractID
	f.setLoading(key, true)
	defer f.setLoading(key, false)

	due := billing.FormatDate(billing.DueDate(in.Selected, f.Now()))
	var (
		resp *model.APIResponse
		err  error
	)
	if in.TemplateID != "" {
		resp, err = f.API.ApplyTemplate(ctx, in.TemplateID, model.ApplyTemplateRequest{
			ContractID:   in.ContractID,
			Month:        period.Month,
			Year:         period.Year,
			DueDate:      due,
			KeepReadings: in.KeepReadings,
		})
	} else {
		resp, err = f.API.CreateInvoice(ctx, model.CreateInvoiceRequest{
			ContractID:      in.ContractID,
			Month:           period.Month,
			Year:            period.Year,
			DueDate:         due,
			IncludeServices: in.IncludeServices,
		})
	}
	return Classify(resp, err, period)
}

func (f *ApplyFlow) setLoading(key string, on bool) {
	if f.Store != nil {
		f.Store.Dispatch(store.LoadingChanged{Key: key, Loading: on})
	}
}
