// Package service implements the coven.v1 Connect services over the ledger.
package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/coven/internal/ledger"
	"github.com/mmynk/coven/internal/middleware"
	"github.com/mmynk/coven/internal/storage"
)

const GuestServiceName = "coven.v1.GuestService"

// Fully-qualified GuestService procedure paths.
const (
	GuestServiceRecordExpenseProcedure     = "/" + GuestServiceName + "/RecordExpense"
	GuestServiceSetArrivingStatusProcedure = "/" + GuestServiceName + "/SetArrivingStatus"
	GuestServiceSetRemarksProcedure        = "/" + GuestServiceName + "/SetRemarks"
	GuestServiceListGuestsProcedure        = "/" + GuestServiceName + "/ListGuests"
	GuestServiceJoinGatheringProcedure     = "/" + GuestServiceName + "/JoinGathering"
	GuestServiceLeaveGatheringProcedure    = "/" + GuestServiceName + "/LeaveGathering"
	GuestServiceGetSettlementPlanProcedure = "/" + GuestServiceName + "/GetSettlementPlan"
	GuestServiceListExpensesProcedure      = "/" + GuestServiceName + "/ListExpenses"
	GuestServiceRecordSettlementProcedure  = "/" + GuestServiceName + "/RecordSettlement"
	GuestServiceListSettlementsProcedure   = "/" + GuestServiceName + "/ListSettlements"
)

// GuestService implements coven.v1.GuestService. The caller is always the
// authenticated user put in the context by middleware.RequireAuth.
type GuestService struct {
	ledger  *ledger.ExpenseLedger
	tracker *ledger.StatusTracker
	roster  *ledger.Roster
	store   storage.Store
}

// NewGuestService wires the ledger components over store.
func NewGuestService(store storage.Store, opts ...ledger.Option) *GuestService {
	return &GuestService{
		ledger:  ledger.NewExpenseLedger(store, opts...),
		tracker: ledger.NewStatusTracker(store, opts...),
		roster:  ledger.NewRoster(store, opts...),
		store:   store,
	}
}

// NewGuestServiceHandler builds an HTTP handler serving every GuestService
// procedure. It returns the path to mount it on.
func NewGuestServiceHandler(svc *GuestService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GuestServiceRecordExpenseProcedure, connect.NewUnaryHandler(GuestServiceRecordExpenseProcedure, svc.RecordExpense, opts...))
	mux.Handle(GuestServiceSetArrivingStatusProcedure, connect.NewUnaryHandler(GuestServiceSetArrivingStatusProcedure, svc.SetArrivingStatus, opts...))
	mux.Handle(GuestServiceSetRemarksProcedure, connect.NewUnaryHandler(GuestServiceSetRemarksProcedure, svc.SetRemarks, opts...))
	mux.Handle(GuestServiceListGuestsProcedure, connect.NewUnaryHandler(GuestServiceListGuestsProcedure, svc.ListGuests, opts...))
	mux.Handle(GuestServiceJoinGatheringProcedure, connect.NewUnaryHandler(GuestServiceJoinGatheringProcedure, svc.JoinGathering, opts...))
	mux.Handle(GuestServiceLeaveGatheringProcedure, connect.NewUnaryHandler(GuestServiceLeaveGatheringProcedure, svc.LeaveGathering, opts...))
	mux.Handle(GuestServiceGetSettlementPlanProcedure, connect.NewUnaryHandler(GuestServiceGetSettlementPlanProcedure, svc.GetSettlementPlan, opts...))
	mux.Handle(GuestServiceListExpensesProcedure, connect.NewUnaryHandler(GuestServiceListExpensesProcedure, svc.ListExpenses, opts...))
	mux.Handle(GuestServiceRecordSettlementProcedure, connect.NewUnaryHandler(GuestServiceRecordSettlementProcedure, svc.RecordSettlement, opts...))
	mux.Handle(GuestServiceListSettlementsProcedure, connect.NewUnaryHandler(GuestServiceListSettlementsProcedure, svc.ListSettlements, opts...))
	return "/" + GuestServiceName + "/", mux
}

// RecordExpense records an expense paid by the caller and split across the
// selected guests.
func (s *GuestService) RecordExpense(ctx context.Context, req *connect.Request[RecordExpenseRequest]) (*connect.Response[RecordExpenseResponse], error) {
	payerID := middleware.GetUserID(ctx)
	slog.Info("RecordExpense request received",
		"gathering_id", req.Msg.GatheringID,
		"payer_id", payerID,
		"consumers_count", len(req.Msg.ConsumerIDs),
	)

	if err := requireField("gathering_id", req.Msg.GatheringID); err != nil {
		return nil, err
	}

	receipt, err := s.ledger.RecordExpense(ctx, ledger.ExpenseInput{
		GatheringID: req.Msg.GatheringID,
		PayerID:     payerID,
		Amount:      req.Msg.Amount,
		ConsumerIDs: req.Msg.ConsumerIDs,
		Note:        req.Msg.Note,
	})
	if err != nil {
		slog.Error("RecordExpense failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&RecordExpenseResponse{
		Expense:     toExpense(receipt.Expense),
		Adjustments: toAdjustments(receipt.Adjustments),
	}), nil
}

// SetArrivingStatus updates the caller's own arriving status.
func (s *GuestService) SetArrivingStatus(ctx context.Context, req *connect.Request[SetArrivingStatusRequest]) (*connect.Response[SetArrivingStatusResponse], error) {
	userID := req.Msg.UserID
	if userID == "" {
		userID = middleware.GetUserID(ctx)
	}

	status, err := s.tracker.SetArrivingStatus(ctx, middleware.GetUserID(ctx), req.Msg.GatheringID, userID, req.Msg.Status)
	if err != nil {
		slog.Error("SetArrivingStatus failed", "gathering_id", req.Msg.GatheringID, "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&SetArrivingStatusResponse{Status: string(status)}), nil
}

// SetRemarks updates or clears the caller's own remarks.
func (s *GuestService) SetRemarks(ctx context.Context, req *connect.Request[SetRemarksRequest]) (*connect.Response[SetRemarksResponse], error) {
	userID := req.Msg.UserID
	if userID == "" {
		userID = middleware.GetUserID(ctx)
	}

	remarks, err := s.tracker.SetRemarks(ctx, middleware.GetUserID(ctx), req.Msg.GatheringID, userID, req.Msg.Remarks)
	if err != nil {
		slog.Error("SetRemarks failed", "gathering_id", req.Msg.GatheringID, "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&SetRemarksResponse{Remarks: remarks}), nil
}

// ListGuests returns the guests of a gathering with their balances.
func (s *GuestService) ListGuests(ctx context.Context, req *connect.Request[ListGuestsRequest]) (*connect.Response[ListGuestsResponse], error) {
	guests, err := s.roster.ListGuests(ctx, req.Msg.GatheringID)
	if err != nil {
		slog.Error("ListGuests failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*Guest, len(guests))
	for i, g := range guests {
		out[i] = toGuest(g)
	}

	slog.Info("ListGuests successful", "gathering_id", req.Msg.GatheringID, "count", len(out))
	return connect.NewResponse(&ListGuestsResponse{Guests: out}), nil
}

// JoinGathering adds the caller as a guest.
func (s *GuestService) JoinGathering(ctx context.Context, req *connect.Request[JoinGatheringRequest]) (*connect.Response[JoinGatheringResponse], error) {
	guest, err := s.roster.Join(ctx, ledger.JoinInput{
		CallerID:    middleware.GetUserID(ctx),
		DisplayName: middleware.GetDisplayName(ctx),
		GatheringID: req.Msg.GatheringID,
		Status:      req.Msg.Status,
		Remarks:     req.Msg.Remarks,
	})
	if err != nil {
		slog.Error("JoinGathering failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&JoinGatheringResponse{Guest: toGuest(guest)}), nil
}

// LeaveGathering removes the caller from a gathering.
func (s *GuestService) LeaveGathering(ctx context.Context, req *connect.Request[LeaveGatheringRequest]) (*connect.Response[LeaveGatheringResponse], error) {
	if err := s.roster.Leave(ctx, middleware.GetUserID(ctx), req.Msg.GatheringID); err != nil {
		slog.Error("LeaveGathering failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&LeaveGatheringResponse{}), nil
}

// GetSettlementPlan suggests transfers that would zero every balance.
func (s *GuestService) GetSettlementPlan(ctx context.Context, req *connect.Request[GetSettlementPlanRequest]) (*connect.Response[GetSettlementPlanResponse], error) {
	plan, err := s.roster.SettlementPlan(ctx, req.Msg.GatheringID)
	if err != nil {
		slog.Error("GetSettlementPlan failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetSettlementPlanResponse{Transfers: toTransfers(plan)}), nil
}

// ListExpenses returns a gathering's expense history, newest first.
func (s *GuestService) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	if _, err := s.store.GetGathering(ctx, req.Msg.GatheringID); err != nil {
		slog.Error("ListExpenses failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}

	expenses, err := s.store.ListExpenses(ctx, req.Msg.GatheringID)
	if err != nil {
		slog.Error("ListExpenses failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toExpense(e)
	}
	return connect.NewResponse(&ListExpensesResponse{Expenses: out}), nil
}

// RecordSettlement records that the caller paid another guest.
func (s *GuestService) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	fromUserID := middleware.GetUserID(ctx)
	slog.Info("RecordSettlement request received",
		"gathering_id", req.Msg.GatheringID,
		"from_user_id", fromUserID,
		"to_user_id", req.Msg.ToUserID,
	)

	if err := requireField("gathering_id", req.Msg.GatheringID); err != nil {
		return nil, err
	}

	receipt, err := s.ledger.RecordSettlement(ctx, ledger.SettlementInput{
		GatheringID: req.Msg.GatheringID,
		FromUserID:  fromUserID,
		ToUserID:    req.Msg.ToUserID,
		Amount:      req.Msg.Amount,
		Note:        req.Msg.Note,
	})
	if err != nil {
		slog.Error("RecordSettlement failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&RecordSettlementResponse{
		Settlement:  toSettlement(receipt.Settlement),
		Adjustments: toAdjustments(receipt.Adjustments),
	}), nil
}

// ListSettlements returns a gathering's recorded payments, newest first.
func (s *GuestService) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	if _, err := s.store.GetGathering(ctx, req.Msg.GatheringID); err != nil {
		slog.Error("ListSettlements failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}

	settlements, err := s.store.ListSettlements(ctx, req.Msg.GatheringID)
	if err != nil {
		slog.Error("ListSettlements failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toSettlement(st)
	}
	return connect.NewResponse(&ListSettlementsResponse{Settlements: out}), nil
}
