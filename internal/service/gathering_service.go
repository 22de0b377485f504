package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/coven/internal/ledger"
	"github.com/mmynk/coven/internal/middleware"
	"github.com/mmynk/coven/internal/models"
	"github.com/mmynk/coven/internal/storage"
)

const GatheringServiceName = "coven.v1.GatheringService"

// Fully-qualified GatheringService procedure paths.
const (
	GatheringServiceCreateGatheringProcedure = "/" + GatheringServiceName + "/CreateGathering"
	GatheringServiceGetGatheringProcedure    = "/" + GatheringServiceName + "/GetGathering"
	GatheringServiceListGatheringsProcedure  = "/" + GatheringServiceName + "/ListGatherings"
	GatheringServiceUpdateGatheringProcedure = "/" + GatheringServiceName + "/UpdateGathering"
	GatheringServiceDeleteGatheringProcedure = "/" + GatheringServiceName + "/DeleteGathering"
)

var errNotCreator = errors.New("only the creator may change a gathering")

// GatheringService implements coven.v1.GatheringService.
type GatheringService struct {
	store storage.Store
}

// NewGatheringService creates a new GatheringService with the given storage backend.
func NewGatheringService(store storage.Store) *GatheringService {
	return &GatheringService{store: store}
}

// NewGatheringServiceHandler builds an HTTP handler serving every
// GatheringService procedure. It returns the path to mount it on.
func NewGatheringServiceHandler(svc *GatheringService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GatheringServiceCreateGatheringProcedure, connect.NewUnaryHandler(GatheringServiceCreateGatheringProcedure, svc.CreateGathering, opts...))
	mux.Handle(GatheringServiceGetGatheringProcedure, connect.NewUnaryHandler(GatheringServiceGetGatheringProcedure, svc.GetGathering, opts...))
	mux.Handle(GatheringServiceListGatheringsProcedure, connect.NewUnaryHandler(GatheringServiceListGatheringsProcedure, svc.ListGatherings, opts...))
	mux.Handle(GatheringServiceUpdateGatheringProcedure, connect.NewUnaryHandler(GatheringServiceUpdateGatheringProcedure, svc.UpdateGathering, opts...))
	mux.Handle(GatheringServiceDeleteGatheringProcedure, connect.NewUnaryHandler(GatheringServiceDeleteGatheringProcedure, svc.DeleteGathering, opts...))
	return "/" + GatheringServiceName + "/", mux
}

// CreateGathering creates a gathering owned by the caller.
func (s *GatheringService) CreateGathering(ctx context.Context, req *connect.Request[CreateGatheringRequest]) (*connect.Response[CreateGatheringResponse], error) {
	slog.Info("CreateGathering request received",
		"coven_id", req.Msg.CovenID,
		"name", req.Msg.Name,
	)

	if err := requireField("coven_id", req.Msg.CovenID); err != nil {
		return nil, err
	}
	if err := requireField("name", req.Msg.Name); err != nil {
		return nil, err
	}

	cost, err := parseCost(req.Msg.Cost)
	if err != nil {
		return nil, err
	}

	gathering := &models.Gathering{
		CovenID:   strings.TrimSpace(req.Msg.CovenID),
		Name:      strings.TrimSpace(req.Msg.Name),
		Date:      req.Msg.Date,
		Time:      req.Msg.Time,
		Location:  req.Msg.Location,
		Cost:      cost,
		CreatedBy: middleware.GetUserID(ctx),
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGathering(ctx, gathering); err != nil {
		slog.Error("CreateGathering failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Gathering created", "gathering_id", gathering.ID)
	return connect.NewResponse(&CreateGatheringResponse{Gathering: toGathering(gathering)}), nil
}

// GetGathering retrieves a gathering by ID.
func (s *GatheringService) GetGathering(ctx context.Context, req *connect.Request[GetGatheringRequest]) (*connect.Response[GetGatheringResponse], error) {
	gathering, err := s.store.GetGathering(ctx, req.Msg.GatheringID)
	if err != nil {
		slog.Error("GetGathering failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetGatheringResponse{Gathering: toGathering(gathering)}), nil
}

// ListGatherings returns a coven's gatherings, newest first.
func (s *GatheringService) ListGatherings(ctx context.Context, req *connect.Request[ListGatheringsRequest]) (*connect.Response[ListGatheringsResponse], error) {
	if err := requireField("coven_id", req.Msg.CovenID); err != nil {
		return nil, err
	}

	gatherings, err := s.store.ListGatheringsByCoven(ctx, req.Msg.CovenID)
	if err != nil {
		slog.Error("ListGatherings failed", "coven_id", req.Msg.CovenID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*Gathering, len(gatherings))
	for i, g := range gatherings {
		out[i] = toGathering(g)
	}

	slog.Info("ListGatherings successful", "coven_id", req.Msg.CovenID, "count", len(out))
	return connect.NewResponse(&ListGatheringsResponse{Gatherings: out}), nil
}

// UpdateGathering replaces the name, date, time, location and cost of a
// gathering. Only the creator may edit it.
func (s *GatheringService) UpdateGathering(ctx context.Context, req *connect.Request[UpdateGatheringRequest]) (*connect.Response[UpdateGatheringResponse], error) {
	slog.Info("UpdateGathering request received", "gathering_id", req.Msg.GatheringID)

	if err := requireField("name", req.Msg.Name); err != nil {
		return nil, err
	}
	cost, err := parseCost(req.Msg.Cost)
	if err != nil {
		return nil, err
	}

	gathering, err := s.store.GetGathering(ctx, req.Msg.GatheringID)
	if err != nil {
		slog.Error("UpdateGathering failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}
	if gathering.CreatedBy != middleware.GetUserID(ctx) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotCreator)
	}

	gathering.Name = strings.TrimSpace(req.Msg.Name)
	gathering.Date = req.Msg.Date
	gathering.Time = req.Msg.Time
	gathering.Location = req.Msg.Location
	gathering.Cost = cost

	if err := s.store.UpdateGathering(ctx, gathering); err != nil {
		slog.Error("UpdateGathering failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Gathering updated", "gathering_id", gathering.ID)
	return connect.NewResponse(&UpdateGatheringResponse{Gathering: toGathering(gathering)}), nil
}

// DeleteGathering removes a gathering with its guests and expenses. Only the
// creator may delete it.
func (s *GatheringService) DeleteGathering(ctx context.Context, req *connect.Request[DeleteGatheringRequest]) (*connect.Response[DeleteGatheringResponse], error) {
	gathering, err := s.store.GetGathering(ctx, req.Msg.GatheringID)
	if err != nil {
		slog.Error("DeleteGathering failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}
	if gathering.CreatedBy != middleware.GetUserID(ctx) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotCreator)
	}

	if err := s.store.DeleteGathering(ctx, req.Msg.GatheringID); err != nil {
		slog.Error("DeleteGathering failed", "gathering_id", req.Msg.GatheringID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Gathering deleted", "gathering_id", req.Msg.GatheringID)
	return connect.NewResponse(&DeleteGatheringResponse{}), nil
}

// parseCost reads an optional non-negative cost; blank means free.
func parseCost(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	cost, err := ledger.ParseMoney(raw)
	if err != nil {
		return decimal.Zero, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("cost: %w", err))
	}
	return cost, nil
}
