package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/coven/internal/models"
	"github.com/mmynk/coven/internal/storage"
)

var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory GuestStore that counts calls and can inject failures.
type memStore struct {
	mu         sync.Mutex
	gatherings map[string]*models.Gathering
	guests     map[string]*models.Guest
	users      map[string]*models.User

	reads      int
	writes     int
	increments int

	// failIncrement, when set, is consulted before each IncrementGuestBalance
	// with the 1-based increment call number.
	failIncrement func(call int, userID string, delta decimal.Decimal) error
	failWrites    error
}

func newMemStore() *memStore {
	return &memStore{
		gatherings: make(map[string]*models.Gathering),
		guests:     make(map[string]*models.Guest),
		users:      make(map[string]*models.User),
	}
}

func guestKey(gatheringID, userID string) string { return gatheringID + "/" + userID }

// seed creates a gathering with zero-balance guests.
func (s *memStore) seed(gatheringID string, userIDs ...string) {
	s.gatherings[gatheringID] = &models.Gathering{ID: gatheringID, Name: gatheringID}
	for i, id := range userIDs {
		s.guests[guestKey(gatheringID, id)] = &models.Guest{
			GatheringID:    gatheringID,
			UserID:         id,
			DisplayName:    id,
			Expenses:       decimal.Zero,
			ArrivingStatus: models.DefaultArrivingStatus,
			JoinedAt:       int64(i + 1),
		}
	}
}

func (s *memStore) balance(gatheringID, userID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guests[guestKey(gatheringID, userID)].Expenses
}

func (s *memStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads + s.writes
}

func (s *memStore) GetGuest(ctx context.Context, gatheringID, userID string) (*models.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	g, ok := s.guests[guestKey(gatheringID, userID)]
	if !ok {
		return nil, fmt.Errorf("guest %s: %w", userID, storage.ErrNotFound)
	}
	cp := *g
	return &cp, nil
}

func (s *memStore) ListGuests(ctx context.Context, gatheringID string) ([]*models.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	var out []*models.Guest
	for _, g := range s.guests {
		if g.GatheringID == gatheringID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) IncrementGuestBalance(ctx context.Context, gatheringID, userID string, delta decimal.Decimal) error {
	s.mu.Lock()
	s.increments++
	call := s.increments
	hook := s.failIncrement
	s.mu.Unlock()

	if hook != nil {
		if err := hook(call, userID, delta); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	g, ok := s.guests[guestKey(gatheringID, userID)]
	if !ok {
		return fmt.Errorf("guest %s: %w", userID, storage.ErrNotFound)
	}
	g.Expenses = g.Expenses.Add(delta)
	return nil
}

func (s *memStore) UpdateGuestStatus(ctx context.Context, gatheringID, userID string, status models.ArrivingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.failWrites != nil {
		return s.failWrites
	}
	g, ok := s.guests[guestKey(gatheringID, userID)]
	if !ok {
		return fmt.Errorf("guest %s: %w", userID, storage.ErrNotFound)
	}
	g.ArrivingStatus = status
	return nil
}

func (s *memStore) UpdateGuestRemarks(ctx context.Context, gatheringID, userID string, remarks *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.failWrites != nil {
		return s.failWrites
	}
	g, ok := s.guests[guestKey(gatheringID, userID)]
	if !ok {
		return fmt.Errorf("guest %s: %w", userID, storage.ErrNotFound)
	}
	g.Remarks = remarks
	return nil
}

func (s *memStore) GetGathering(ctx context.Context, gatheringID string) (*models.Gathering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	g, ok := s.gatherings[gatheringID]
	if !ok {
		return nil, fmt.Errorf("gathering %s: %w", gatheringID, storage.ErrNotFound)
	}
	return g, nil
}

func (s *memStore) AddGuest(ctx context.Context, guest *models.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	key := guestKey(guest.GatheringID, guest.UserID)
	if _, ok := s.guests[key]; ok {
		return fmt.Errorf("guest %s: %w", guest.UserID, storage.ErrConflict)
	}
	cp := *guest
	cp.Expenses = decimal.Zero
	cp.DisplayName = guest.UserID
	if u, ok := s.users[guest.UserID]; ok {
		cp.DisplayName = u.DisplayName
	}
	s.guests[key] = &cp
	return nil
}

func (s *memStore) RemoveGuest(ctx context.Context, gatheringID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	key := guestKey(gatheringID, userID)
	if _, ok := s.guests[key]; !ok {
		return fmt.Errorf("guest %s: %w", userID, storage.ErrNotFound)
	}
	delete(s.guests, key)
	return nil
}

func (s *memStore) UpsertUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.users[user.ID] = user
	return nil
}

// txStore adds all-or-nothing WriteExpense and WriteSettlement to memStore.
type txStore struct {
	*memStore
	failUser    string
	written     []*models.Expense
	settlements []*models.Settlement
}

func (s *txStore) WriteExpense(ctx context.Context, expense *models.Expense, adjustments []models.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAdjustments(expense.GatheringID, adjustments); err != nil {
		return err
	}
	s.applyAdjustments(expense.GatheringID, adjustments)
	s.written = append(s.written, expense)
	return nil
}

func (s *txStore) WriteSettlement(ctx context.Context, settlement *models.Settlement, adjustments []models.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAdjustments(settlement.GatheringID, adjustments); err != nil {
		return err
	}
	s.applyAdjustments(settlement.GatheringID, adjustments)
	s.settlements = append(s.settlements, settlement)
	return nil
}

func (s *txStore) checkAdjustments(gatheringID string, adjustments []models.Adjustment) error {
	for _, adj := range adjustments {
		if adj.UserID == s.failUser {
			return &storage.BalanceUpdateError{GatheringID: gatheringID, UserID: adj.UserID, Err: errStoreDown}
		}
		if _, ok := s.guests[guestKey(gatheringID, adj.UserID)]; !ok {
			return &storage.BalanceUpdateError{GatheringID: gatheringID, UserID: adj.UserID, Err: storage.ErrNotFound}
		}
	}
	return nil
}

func (s *txStore) applyAdjustments(gatheringID string, adjustments []models.Adjustment) {
	for _, adj := range adjustments {
		g := s.guests[guestKey(gatheringID, adj.UserID)]
		g.Expenses = g.Expenses.Add(adj.Delta)
		s.writes++
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}
