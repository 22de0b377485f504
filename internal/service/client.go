package service

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// GuestServiceClient calls coven.v1.GuestService.
type GuestServiceClient struct {
	recordExpense     *connect.Client[RecordExpenseRequest, RecordExpenseResponse]
	setArrivingStatus *connect.Client[SetArrivingStatusRequest, SetArrivingStatusResponse]
	setRemarks        *connect.Client[SetRemarksRequest, SetRemarksResponse]
	listGuests        *connect.Client[ListGuestsRequest, ListGuestsResponse]
	joinGathering     *connect.Client[JoinGatheringRequest, JoinGatheringResponse]
	leaveGathering    *connect.Client[LeaveGatheringRequest, LeaveGatheringResponse]
	getSettlementPlan *connect.Client[GetSettlementPlanRequest, GetSettlementPlanResponse]
	listExpenses      *connect.Client[ListExpensesRequest, ListExpensesResponse]
	recordSettlement  *connect.Client[RecordSettlementRequest, RecordSettlementResponse]
	listSettlements   *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
}

// NewGuestServiceClient constructs a client for the server at baseURL,
// e.g. http://localhost:8080.
func NewGuestServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GuestServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &GuestServiceClient{
		recordExpense:     connect.NewClient[RecordExpenseRequest, RecordExpenseResponse](httpClient, baseURL+GuestServiceRecordExpenseProcedure, opts...),
		setArrivingStatus: connect.NewClient[SetArrivingStatusRequest, SetArrivingStatusResponse](httpClient, baseURL+GuestServiceSetArrivingStatusProcedure, opts...),
		setRemarks:        connect.NewClient[SetRemarksRequest, SetRemarksResponse](httpClient, baseURL+GuestServiceSetRemarksProcedure, opts...),
		listGuests:        connect.NewClient[ListGuestsRequest, ListGuestsResponse](httpClient, baseURL+GuestServiceListGuestsProcedure, opts...),
		joinGathering:     connect.NewClient[JoinGatheringRequest, JoinGatheringResponse](httpClient, baseURL+GuestServiceJoinGatheringProcedure, opts...),
		leaveGathering:    connect.NewClient[LeaveGatheringRequest, LeaveGatheringResponse](httpClient, baseURL+GuestServiceLeaveGatheringProcedure, opts...),
		getSettlementPlan: connect.NewClient[GetSettlementPlanRequest, GetSettlementPlanResponse](httpClient, baseURL+GuestServiceGetSettlementPlanProcedure, opts...),
		listExpenses:      connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+GuestServiceListExpensesProcedure, opts...),
		recordSettlement:  connect.NewClient[RecordSettlementRequest, RecordSettlementResponse](httpClient, baseURL+GuestServiceRecordSettlementProcedure, opts...),
		listSettlements:   connect.NewClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL+GuestServiceListSettlementsProcedure, opts...),
	}
}

func (c *GuestServiceClient) RecordExpense(ctx context.Context, req *connect.Request[RecordExpenseRequest]) (*connect.Response[RecordExpenseResponse], error) {
	return c.recordExpense.CallUnary(ctx, req)
}

func (c *GuestServiceClient) SetArrivingStatus(ctx context.Context, req *connect.Request[SetArrivingStatusRequest]) (*connect.Response[SetArrivingStatusResponse], error) {
	return c.setArrivingStatus.CallUnary(ctx, req)
}

func (c *GuestServiceClient) SetRemarks(ctx context.Context, req *connect.Request[SetRemarksRequest]) (*connect.Response[SetRemarksResponse], error) {
	return c.setRemarks.CallUnary(ctx, req)
}

func (c *GuestServiceClient) ListGuests(ctx context.Context, req *connect.Request[ListGuestsRequest]) (*connect.Response[ListGuestsResponse], error) {
	return c.listGuests.CallUnary(ctx, req)
}

func (c *GuestServiceClient) JoinGathering(ctx context.Context, req *connect.Request[JoinGatheringRequest]) (*connect.Response[JoinGatheringResponse], error) {
	return c.joinGathering.CallUnary(ctx, req)
}

func (c *GuestServiceClient) LeaveGathering(ctx context.Context, req *connect.Request[LeaveGatheringRequest]) (*connect.Response[LeaveGatheringResponse], error) {
	return c.leaveGathering.CallUnary(ctx, req)
}

func (c *GuestServiceClient) GetSettlementPlan(ctx context.Context, req *connect.Request[GetSettlementPlanRequest]) (*connect.Response[GetSettlementPlanResponse], error) {
	return c.getSettlementPlan.CallUnary(ctx, req)
}

func (c *GuestServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *GuestServiceClient) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}

func (c *GuestServiceClient) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

// GatheringServiceClient calls coven.v1.GatheringService.
type GatheringServiceClient struct {
	createGathering *connect.Client[CreateGatheringRequest, CreateGatheringResponse]
	getGathering    *connect.Client[GetGatheringRequest, GetGatheringResponse]
	listGatherings  *connect.Client[ListGatheringsRequest, ListGatheringsResponse]
	updateGathering *connect.Client[UpdateGatheringRequest, UpdateGatheringResponse]
	deleteGathering *connect.Client[DeleteGatheringRequest, DeleteGatheringResponse]
}

// NewGatheringServiceClient constructs a client for the server at baseURL.
func NewGatheringServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GatheringServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &GatheringServiceClient{
		createGathering: connect.NewClient[CreateGatheringRequest, CreateGatheringResponse](httpClient, baseURL+GatheringServiceCreateGatheringProcedure, opts...),
		getGathering:    connect.NewClient[GetGatheringRequest, GetGatheringResponse](httpClient, baseURL+GatheringServiceGetGatheringProcedure, opts...),
		listGatherings:  connect.NewClient[ListGatheringsRequest, ListGatheringsResponse](httpClient, baseURL+GatheringServiceListGatheringsProcedure, opts...),
		updateGathering: connect.NewClient[UpdateGatheringRequest, UpdateGatheringResponse](httpClient, baseURL+GatheringServiceUpdateGatheringProcedure, opts...),
		deleteGathering: connect.NewClient[DeleteGatheringRequest, DeleteGatheringResponse](httpClient, baseURL+GatheringServiceDeleteGatheringProcedure, opts...),
	}
}

func (c *GatheringServiceClient) CreateGathering(ctx context.Context, req *connect.Request[CreateGatheringRequest]) (*connect.Response[CreateGatheringResponse], error) {
	return c.createGathering.CallUnary(ctx, req)
}

func (c *GatheringServiceClient) GetGathering(ctx context.Context, req *connect.Request[GetGatheringRequest]) (*connect.Response[GetGatheringResponse], error) {
	return c.getGathering.CallUnary(ctx, req)
}

func (c *GatheringServiceClient) ListGatherings(ctx context.Context, req *connect.Request[ListGatheringsRequest]) (*connect.Response[ListGatheringsResponse], error) {
	return c.listGatherings.CallUnary(ctx, req)
}

func (c *GatheringServiceClient) UpdateGathering(ctx context.Context, req *connect.Request[UpdateGatheringRequest]) (*connect.Response[UpdateGatheringResponse], error) {
	return c.updateGathering.CallUnary(ctx, req)
}

func (c *GatheringServiceClient) DeleteGathering(ctx context.Context, req *connect.Request[DeleteGatheringRequest]) (*connect.Response[DeleteGatheringResponse], error) {
	return c.deleteGathering.CallUnary(ctx, req)
}

// BearerToken returns a client interceptor that sends token on every call.
func BearerToken(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient && token != "" {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}
