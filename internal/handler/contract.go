package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-contracts/internal/billing"
	"github.com/iliyamo/rental-contracts/internal/config"
	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/model"
	"github.com/iliyamo/rental-contracts/internal/queue"
	"github.com/iliyamo/rental-contracts/internal/repository"
	"github.com/iliyamo/rental-contracts/internal/service"
)

const (
	msgNegativePrice = "Giá dịch vụ không được âm"
	msgPDFDraftOnly  = "Chỉ có thể tạo PDF khi hợp đồng ở trạng thái nháp"
	msgUnknownStatus = "Trạng thái không hợp lệ"
)

// ContractStore is the persistence the contract endpoints need.
type ContractStore interface {
	Create(ctx context.Context, c *model.Contract) error
	GetByID(ctx context.Context, id string) (model.Contract, error)
	GetForUser(ctx context.Context, id string, userID uint64) (model.Contract, error)
	List(ctx context.Context, f repository.ListFilter) (model.ContractPage, error)
	UpdateTerms(ctx context.Context, id string, landlordID uint64, rules, additionalTerms *string, diff contract.ServiceDiff) error
	Transition(ctx context.Context, id string, actorID uint64, to contract.Status, note string) (contract.Status, error)
	AddImages(ctx context.Context, id string, userID uint64, urls []string) error
	SetPDFURL(ctx context.Context, id, url string) error
}

// RoomReader loads the room a contract is created for.
type RoomReader interface {
	GetByID(ctx context.Context, id string) (model.Room, error)
}

// ContractHandler serves /v1/contracts.
type ContractHandler struct {
	Contracts ContractStore
	Rooms     RoomReader
	Events    service.Publisher
	Renderer  service.PDFRenderer
	Log       *logrus.Logger
	Now       func() time.Time
}

func NewContractHandler(contracts ContractStore, rooms RoomReader, events service.Publisher, pdf service.PDFRenderer, log *logrus.Logger) *ContractHandler {
	return &ContractHandler{Contracts: contracts, Rooms: rooms, Events: events, Renderer: pdf, Log: log, Now: time.Now}
}

// Create validates the form against the chosen room and stores a draft
// contract.  Room prices, fees and services are copied into the contract so
// later room edits do not change it.
func (h *ContractHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req model.CreateContractRequest
	if bad := bindRequest(c, &req); bad != nil {
		return c.JSON(http.StatusBadRequest, bad)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return respondError(c, h.Log, "ContractHandler.Create", req.RoomID, err)
	}
	if room.LandlordID != uid {
		return fail(c, http.StatusForbidden, model.CodeForbidden, msgForbidden)
	}

	flow := contract.FlowDirect
	if req.NotificationID != "" {
		flow = contract.FlowNotification
	}
	res := contract.Validate(req.Form(room.MaxOccupancy), flow)
	if !res.IsValid {
		return c.JSON(http.StatusBadRequest, model.APIResponse{
			Success: false,
			Message: res.Message(),
			Code:    model.CodeValidation,
			Errors:  res.Errors,
		})
	}
	start, err := billing.ParseDate(req.StartDate)
	if err != nil {
		return fail(c, http.StatusBadRequest, model.CodeValidation, contract.MsgStartDateRequired)
	}

	services := req.CustomServices
	if services == nil {
		services = room.CustomServices
	}
	snapshot := make([]contract.CustomService, 0, len(services))
	for _, s := range services {
		if s.Price.IsNegative() {
			return fail(c, http.StatusBadRequest, model.CodeValidation, msgNegativePrice)
		}
		s.ID = ""
		s.Name = strings.TrimSpace(s.Name)
		snapshot = append(snapshot, s)
	}

	term := int(req.ContractTerm)
	k := model.Contract{
		LandlordID: uid,
		TenantID:   req.TenantID,
		RoomID:     room.ID,
		ContractInfo: model.ContractInfo{
			RentPrice:       room.RentPrice,
			Deposit:         room.Deposit,
			ContractTerm:    term,
			StartDate:       billing.FormatDate(start),
			EndDate:         billing.FormatDate(billing.AddMonths(start, term)),
			Rules:           req.Rules,
			AdditionalTerms: req.AdditionalTerms,
			Tenant:          req.Tenant,
			ServiceFee:      room.ServiceFee,
			Furniture:       room.Furniture,
			Amenities:       room.Amenities,
			CoTenants:       contract.ParseCoTenants(req.CoTenants),
			MaxOccupancy:    room.MaxOccupancy,
		},
		CustomServices: snapshot,
	}
	if err := h.Contracts.Create(ctx, &k); err != nil {
		return respondError(c, h.Log, "ContractHandler.Create", req, err)
	}
	h.Log.WithFields(logrus.Fields{"contract_id": k.ID, "landlord_id": uid, "room_id": room.ID}).Info("contract created")
	return c.JSON(http.StatusCreated, k)
}

// List returns one page of the caller's contracts, optionally filtered by
// ?status.
func (h *ContractHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	status := contract.Status(c.QueryParam("status"))
	if status != "" && !status.Known() {
		return fail(c, http.StatusBadRequest, model.CodeValidation, msgUnknownStatus)
	}
	page, limit := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	out, err := h.Contracts.List(ctx, repository.ListFilter{
		UserID: uid, Role: getRole(c), Status: status, Page: page, Limit: limit,
	})
	if err != nil {
		return respondError(c, h.Log, "ContractHandler.List", uid, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns a contract to its landlord or tenant.
func (h *ContractHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	k, err := h.Contracts.GetForUser(ctx, c.Param("id"), uid)
	if err != nil {
		return respondError(c, h.Log, "ContractHandler.Get", c.Param("id"), err)
	}
	return c.JSON(http.StatusOK, k)
}

// Update edits rules, additional terms and services.  Services arrive as an
// upsert/remove diff or in the legacy tombstoned list.
func (h *ContractHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	if !contract.CanEdit(getRole(c)) {
		return fail(c, http.StatusForbidden, model.CodeForbidden, msgForbidden)
	}
	var req model.UpdateContractRequest
	if bad := bindRequest(c, &req); bad != nil {
		return c.JSON(http.StatusBadRequest, bad)
	}
	if res := contract.ValidateTermsEdit(req.Rules, req.AdditionalTerms); !res.IsValid {
		return c.JSON(http.StatusBadRequest, model.APIResponse{
			Success: false,
			Message: res.Message(),
			Code:    model.CodeValidation,
			Errors:  res.Errors,
		})
	}
	diff := req.ServiceDiff()
	for _, s := range diff.Upsert {
		if s.Price.IsNegative() {
			return fail(c, http.StatusBadRequest, model.CodeValidation, msgNegativePrice)
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	id := c.Param("id")
	if err := h.Contracts.UpdateTerms(ctx, id, uid, req.Rules, req.AdditionalTerms, diff); err != nil {
		return respondError(c, h.Log, "ContractHandler.Update", id, err)
	}
	k, err := h.Contracts.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, "ContractHandler.Update", id, err)
	}
	return c.JSON(http.StatusOK, k)
}

// Transition moves a contract to the requested status and publishes the
// change.
func (h *ContractHandler) Transition(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req model.TransitionRequest
	if bad := bindRequest(c, &req); bad != nil {
		return c.JSON(http.StatusBadRequest, bad)
	}
	if !req.Status.Known() {
		return fail(c, http.StatusBadRequest, model.CodeValidation, msgUnknownStatus)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	id := c.Param("id")
	from, err := h.Contracts.Transition(ctx, id, uid, req.Status, req.Note)
	if err != nil {
		return respondError(c, h.Log, "ContractHandler.Transition", req, err)
	}
	ev := queue.ContractStatusChangedEvent{
		ContractID: id,
		From:       string(from),
		To:         string(req.Status),
		ActorID:    uid,
		Note:       req.Note,
		ChangedAt:  h.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Events.PublishContractStatusChanged(ctx, ev); err != nil {
		config.LogError(h.Log, "handler", "ContractHandler.Transition", "publish contract.status_changed", ev, err)
	}

	k, err := h.Contracts.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, "ContractHandler.Transition", id, err)
	}
	return c.JSON(http.StatusOK, k)
}

// Images attaches signed contract scans while the contract awaits
// signature or approval.
func (h *ContractHandler) Images(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req model.ImagesRequest
	if bad := bindRequest(c, &req); bad != nil {
		return c.JSON(http.StatusBadRequest, bad)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	id := c.Param("id")
	if err := h.Contracts.AddImages(ctx, id, uid, req.URLs); err != nil {
		return respondError(c, h.Log, "ContractHandler.Images", id, err)
	}
	k, err := h.Contracts.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Log, "ContractHandler.Images", id, err)
	}
	return c.JSON(http.StatusOK, k)
}

// PDF renders a draft contract and stores the document URL.
func (h *ContractHandler) PDF(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	id := c.Param("id")
	k, err := h.Contracts.GetForUser(ctx, id, uid)
	if err != nil {
		return respondError(c, h.Log, "ContractHandler.PDF", id, err)
	}
	if k.LandlordID != uid {
		return fail(c, http.StatusForbidden, model.CodeForbidden, msgForbidden)
	}
	if contract.ResolvePDFAction(k.Status, k.ContractPDFURL) != contract.PDFGenerate {
		return fail(c, http.StatusBadRequest, model.CodeStatusLocked, msgPDFDraftOnly)
	}
	url, err := h.Renderer.Render(ctx, k)
	if err != nil {
		return respondError(c, h.Log, "ContractHandler.PDF", id, err)
	}
	if err := h.Contracts.SetPDFURL(ctx, id, url); err != nil {
		return respondError(c, h.Log, "ContractHandler.PDF", id, err)
	}
	return c.JSON(http.StatusOK, model.PDFResponse{URL: url})
}
