package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-contracts/internal/billing"
	"github.com/iliyamo/rental-contracts/internal/config"
	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/model"
	"github.com/iliyamo/rental-contracts/internal/queue"
	"github.com/iliyamo/rental-contracts/internal/repository"
)

var (
	// ErrContractBusy means another invoice request for the same contract
	// holds the lock.
	ErrContractBusy = errors.New("contract is busy")

	// ErrContractNotActive means invoices cannot be issued in the
	// contract's current status.
	ErrContractNotActive = errors.New("contract is not active")
)

// Line kinds.
const (
	LineRent     = "rent"
	LineService  = "service"
	LineTemplate = "template"
)

// Names of the generated lines.
const (
	LineNameRent        = "Tiền phòng"
	LineNameElectricity = "Tiền điện"
	LineNameWater       = "Tiền nước"
)

// DefaultLockTTL bounds how long one invoice request may hold a contract.
const DefaultLockTTL = 30 * time.Second

type contractReader interface {
	GetByID(ctx context.Context, id string) (model.Contract, error)
}

type templateReader interface {
	GetByID(ctx context.Context, id string) (model.InvoiceTemplate, error)
}

type invoiceWriter interface {
	Create(ctx context.Context, inv *model.Invoice) error
}

// InvoiceService issues invoices from templates or directly from the
// contract terms.  Requests for one contract are serialized with a Redis
// lock when a locker is configured; the invoices unique key guards the
// one-invoice-per-period rule either way.
type InvoiceService struct {
	Contracts contractReader
	Templates templateReader
	Invoices  invoiceWriter
	Locker    *redislock.Client
	Events    Publisher
	Log       *logrus.Logger
	LockTTL   time.Duration
}

// IssueParams describes one invoice request.  An empty TemplateID issues
// the invoice from the contract alone.
type IssueParams struct {
	LandlordID      uint64
	ContractID      string
	TemplateID      string
	Month           int
	Year            int
	DueDate         string
	KeepReadings    bool
	IncludeServices bool
}

// Issue creates the invoice described by p.
func (s *InvoiceService) Issue(ctx context.Context, p IssueParams) (model.Invoice, error) {
	if err := (billing.Period{Month: p.Month, Year: p.Year}).Validate(); err != nil {
		return model.Invoice{}, err
	}
	if _, err := billing.ParseDate(p.DueDate); err != nil {
		return model.Invoice{}, fmt.Errorf("%w: due date %q", billing.ErrInvalidPeriod, p.DueDate)
	}

	c, err := s.Contracts.GetByID(ctx, p.ContractID)
	if err != nil {
		return model.Invoice{}, err
	}
	if c.LandlordID != p.LandlordID {
		return model.Invoice{}, repository.ErrForbidden
	}
	if c.Status != contract.StatusActive {
		return model.Invoice{}, ErrContractNotActive
	}

	release, err := s.lock(ctx, p.ContractID)
	if err != nil {
		return model.Invoice{}, err
	}
	defer release()

	var tpl *model.InvoiceTemplate
	if p.TemplateID != "" {
		t, err := s.Templates.GetByID(ctx, p.TemplateID)
		if err != nil {
			return model.Invoice{}, err
		}
		if t.LandlordID != p.LandlordID {
			return model.Invoice{}, repository.ErrForbidden
		}
		tpl = &t
	}

	lines := BuildLines(c, tpl, p.IncludeServices)
	inv := model.Invoice{
		ContractID:   c.ID,
		Month:        p.Month,
		Year:         p.Year,
		DueDate:      p.DueDate,
		Lines:        lines,
		Total:        model.SumLines(lines),
		KeepReadings: p.KeepReadings,
	}
	if tpl != nil {
		inv.TemplateID = &tpl.ID
	}
	if err := s.Invoices.Create(ctx, &inv); err != nil {
		return model.Invoice{}, err
	}

	ev := queue.InvoiceCreatedEvent{
		InvoiceID:  inv.ID,
		ContractID: inv.ContractID,
		TemplateID: p.TemplateID,
		LandlordID: c.LandlordID,
		Month:      inv.Month,
		Year:       inv.Year,
		DueDate:    inv.DueDate,
		Total:      inv.Total.String(),
		CreatedAt:  inv.CreatedAt.Format(time.RFC3339),
	}
	if err := s.Events.PublishInvoiceCreated(ctx, ev); err != nil {
		config.LogError(s.Log, "service", "InvoiceService.Issue", "publish invoice.created", ev, err)
	}
	return inv, nil
}

func (s *InvoiceService) lock(ctx context.Context, contractID string) (func(), error) {
	if s.Locker == nil {
		return func() {}, nil
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	lock, err := s.Locker.Obtain(ctx, "lock:invoice:"+contractID, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrContractBusy
	}
	if err != nil {
		return nil, fmt.Errorf("obtain invoice lock: %w", err)
	}
	return func() {
		// release with a fresh context so a cancelled request still unlocks
		_ = lock.Release(context.Background())
	}, nil
}

// BuildLines computes the charges of an invoice.  Rent and the contract's
// services are included as the template (or, without one, includeServices)
// asks; template lines are appended last.  Usage-priced charges get a zero
// quantity until readings are entered.
func BuildLines(c model.Contract, tpl *model.InvoiceTemplate, includeServices bool) []model.InvoiceLine {
	includeRent := true
	if tpl != nil {
		includeRent = tpl.IncludeRent
		includeServices = tpl.IncludeServices
	}
	occupants := decimal.NewFromInt(int64(c.Occupants()))
	one := decimal.NewFromInt(1)

	lines := []model.InvoiceLine{}
	if includeRent {
		lines = append(lines, line(LineNameRent, c.ContractInfo.RentPrice, one, LineRent))
	}
	if includeServices {
		fee := c.ContractInfo.ServiceFee
		if fee.Electricity.IsPositive() {
			lines = append(lines, line(LineNameElectricity, fee.Electricity, decimal.Zero, LineService))
		}
		if fee.Water.IsPositive() {
			qty := decimal.Zero
			if contract.PriceType(fee.WaterType) == contract.PricePerPerson {
				qty = occupants
			}
			lines = append(lines, line(LineNameWater, fee.Water, qty, LineService))
		}
		for _, svc := range c.CustomServices {
			var qty decimal.Decimal
			switch svc.PriceType {
			case contract.PricePerRoom:
				qty = one
			case contract.PricePerPerson:
				qty = occupants
			default:
				qty = decimal.Zero
			}
			lines = append(lines, line(svc.Name, svc.Price, qty, LineService))
		}
	}
	if tpl != nil {
		for _, l := range tpl.Lines {
			lines = append(lines, line(l.Name, l.Price, l.Quantity, LineTemplate))
		}
	}
	return lines
}

func line(name string, price, qty decimal.Decimal, kind string) model.InvoiceLine {
	return model.InvoiceLine{Name: name, Price: price, Quantity: qty, Amount: price.Mul(qty), Kind: kind}
}
