package service

import (
	"github.com/mmynk/coven/internal/models"
)

// Wire messages for coven.v1. Money travels as decimal strings.

type Guest struct {
	GatheringID    string  `json:"gathering_id"`
	UserID         string  `json:"user_id"`
	DisplayName    string  `json:"display_name"`
	Expenses       string  `json:"expenses"`
	Remarks        *string `json:"remarks"`
	ArrivingStatus string  `json:"arriving_status"`
	JoinedAt       int64   `json:"joined_at"`
}

type Gathering struct {
	ID        string `json:"id"`
	CovenID   string `json:"coven_id"`
	Name      string `json:"name"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	Location  string `json:"location,omitempty"`
	Cost      string `json:"cost"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
}

type Expense struct {
	ID          string   `json:"id"`
	GatheringID string   `json:"gathering_id"`
	PayerID     string   `json:"payer_id"`
	Amount      string   `json:"amount"`
	Share       string   `json:"share"`
	ConsumerIDs []string `json:"consumer_ids"`
	Note        string   `json:"note,omitempty"`
	CreatedAt   int64    `json:"created_at"`
}

type Adjustment struct {
	UserID string `json:"user_id"`
	Delta  string `json:"delta"`
}

type Settlement struct {
	ID          string `json:"id"`
	GatheringID string `json:"gathering_id"`
	FromUserID  string `json:"from_user_id"`
	ToUserID    string `json:"to_user_id"`
	Amount      string `json:"amount"`
	Note        string `json:"note,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// RecordExpenseRequest records an expense paid by the caller.
type RecordExpenseRequest struct {
	GatheringID string   `json:"gathering_id"`
	Amount      string   `json:"amount"`
	ConsumerIDs []string `json:"consumer_ids"`
	Note        string   `json:"note,omitempty"`
}

type RecordExpenseResponse struct {
	Expense     *Expense     `json:"expense"`
	Adjustments []Adjustment `json:"adjustments"`
}

type SetArrivingStatusRequest struct {
	GatheringID string `json:"gathering_id"`
	UserID      string `json:"user_id"`
	Status      string `json:"status"`
}

type SetArrivingStatusResponse struct {
	Status string `json:"status"`
}

// SetRemarksRequest sets or, when Remarks is null or blank, clears remarks.
type SetRemarksRequest struct {
	GatheringID string  `json:"gathering_id"`
	UserID      string  `json:"user_id"`
	Remarks     *string `json:"remarks"`
}

type SetRemarksResponse struct {
	Remarks *string `json:"remarks"`
}

type ListGuestsRequest struct {
	GatheringID string `json:"gathering_id"`
}

type ListGuestsResponse struct {
	Guests []*Guest `json:"guests"`
}

type JoinGatheringRequest struct {
	GatheringID string  `json:"gathering_id"`
	Status      string  `json:"status,omitempty"`
	Remarks     *string `json:"remarks,omitempty"`
}

type JoinGatheringResponse struct {
	Guest *Guest `json:"guest"`
}

type LeaveGatheringRequest struct {
	GatheringID string `json:"gathering_id"`
}

type LeaveGatheringResponse struct{}

type GetSettlementPlanRequest struct {
	GatheringID string `json:"gathering_id"`
}

type GetSettlementPlanResponse struct {
	Transfers []Transfer `json:"transfers"`
}

type ListExpensesRequest struct {
	GatheringID string `json:"gathering_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// RecordSettlementRequest records that the caller paid ToUserID.
type RecordSettlementRequest struct {
	GatheringID string `json:"gathering_id"`
	ToUserID    string `json:"to_user_id"`
	Amount      string `json:"amount"`
	Note        string `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement  *Settlement  `json:"settlement"`
	Adjustments []Adjustment `json:"adjustments"`
}

type ListSettlementsRequest struct {
	GatheringID string `json:"gathering_id"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type CreateGatheringRequest struct {
	CovenID  string `json:"coven_id"`
	Name     string `json:"name"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
	Cost     string `json:"cost,omitempty"`
}

type CreateGatheringResponse struct {
	Gathering *Gathering `json:"gathering"`
}

type GetGatheringRequest struct {
	GatheringID string `json:"gathering_id"`
}

type GetGatheringResponse struct {
	Gathering *Gathering `json:"gathering"`
}

type ListGatheringsRequest struct {
	CovenID string `json:"coven_id"`
}

type ListGatheringsResponse struct {
	Gatherings []*Gathering `json:"gatherings"`
}

// UpdateGatheringRequest replaces the editable fields of a gathering.
type UpdateGatheringRequest struct {
	GatheringID string `json:"gathering_id"`
	Name        string `json:"name"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Location    string `json:"location,omitempty"`
	Cost        string `json:"cost,omitempty"`
}

type UpdateGatheringResponse struct {
	Gathering *Gathering `json:"gathering"`
}

type DeleteGatheringRequest struct {
	GatheringID string `json:"gathering_id"`
}

type DeleteGatheringResponse struct{}

func toGuest(g *models.Guest) *Guest {
	return &Guest{
		GatheringID:    g.GatheringID,
		UserID:         g.UserID,
		DisplayName:    g.DisplayName,
		Expenses:       g.Expenses.String(),
		Remarks:        g.Remarks,
		ArrivingStatus: string(g.ArrivingStatus),
		JoinedAt:       g.JoinedAt,
	}
}

func toGathering(g *models.Gathering) *Gathering {
	return &Gathering{
		ID:        g.ID,
		CovenID:   g.CovenID,
		Name:      g.Name,
		Date:      g.Date,
		Time:      g.Time,
		Location:  g.Location,
		Cost:      g.Cost.String(),
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

func toSettlement(st *models.Settlement) *Settlement {
	return &Settlement{
		ID:          st.ID,
		GatheringID: st.GatheringID,
		FromUserID:  st.FromUserID,
		ToUserID:    st.ToUserID,
		Amount:      st.Amount.String(),
		Note:        st.Note,
		CreatedAt:   st.CreatedAt,
	}
}

func toExpense(e *models.Expense) *Expense {
	return &Expense{
		ID:          e.ID,
		GatheringID: e.GatheringID,
		PayerID:     e.PayerID,
		Amount:      e.Amount.String(),
		Share:       e.Share.String(),
		ConsumerIDs: e.ConsumerIDs,
		Note:        e.Note,
		CreatedAt:   e.CreatedAt,
	}
}

func toAdjustments(adjs []models.Adjustment) []Adjustment {
	out := make([]Adjustment, len(adjs))
	for i, a := range adjs {
		out[i] = Adjustment{UserID: a.UserID, Delta: a.Delta.String()}
	}
	return out
}

func toTransfers(ts []models.Transfer) []Transfer {
	out := make([]Transfer, len(ts))
	for i, t := range ts {
		out[i] = Transfer{From: t.From, To: t.To, Amount: t.Amount.String()}
	}
	return out
}
