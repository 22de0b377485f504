package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/mmynk/coven/internal/models"
)

func TestSetArrivingStatus(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		userID  string
		status  string
		want    models.ArrivingStatus
		wantErr error
	}{
		{name: "soon", caller: "A", userID: "A", status: "Soon", want: models.StatusSoon},
		{name: "late", caller: "A", userID: "A", status: "Late", want: models.StatusLate},
		{name: "on time", caller: "A", userID: "A", status: "On time", want: models.StatusOnTime},
		{name: "unknown status", caller: "A", userID: "A", status: "Eventually", wantErr: ErrInvalidStatus},
		{name: "empty status", caller: "A", userID: "A", status: "", wantErr: ErrInvalidStatus},
		{name: "someone else", caller: "B", userID: "A", status: "Late", wantErr: ErrForbidden},
		{name: "anonymous", caller: "", userID: "A", status: "Late", wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.seed("G", "A", "B")
			tracker := NewStatusTracker(store)

			got, err := tracker.SetArrivingStatus(context.Background(), tt.caller, "G", tt.userID, tt.status)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if store.writes != 0 {
					t.Errorf("expected no writes, got %d", store.writes)
				}
				if s := store.guests[guestKey("G", tt.userID)].ArrivingStatus; s != models.DefaultArrivingStatus {
					t.Errorf("status changed to %q", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetArrivingStatus failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if s := store.guests[guestKey("G", tt.userID)].ArrivingStatus; s != tt.want {
				t.Errorf("stored %q, want %q", s, tt.want)
			}
		})
	}
}

func TestSetArrivingStatus_Idempotent(t *testing.T) {
	store := newMemStore()
	store.seed("G", "A")
	tracker := NewStatusTracker(store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := tracker.SetArrivingStatus(ctx, "A", "G", "A", "Late"); err != nil {
			t.Fatalf("call %d failed: %v", i+1, err)
		}
	}
	if s := store.guests[guestKey("G", "A")].ArrivingStatus; s != models.StatusLate {
		t.Errorf("stored %q, want Late", s)
	}
}

func TestSetArrivingStatus_StoreErrors(t *testing.T) {
	t.Run("guest missing", func(t *testing.T) {
		store := newMemStore()
		store.seed("G")
		_, err := NewStatusTracker(store).SetArrivingStatus(context.Background(), "A", "G", "A", "Soon")
		if !errors.Is(err, ErrGuestNotFound) {
			t.Fatalf("error = %v, want ErrGuestNotFound", err)
		}
	})

	t.Run("store down", func(t *testing.T) {
		store := newMemStore()
		store.seed("G", "A")
		store.failWrites = errStoreDown
		_, err := NewStatusTracker(store).SetArrivingStatus(context.Background(), "A", "G", "A", "Soon")
		var pe *PersistenceError
		if !errors.As(err, &pe) || !errors.Is(err, errStoreDown) {
			t.Fatalf("error = %v, want *PersistenceError wrapping the store error", err)
		}
	})
}

func TestSetRemarks(t *testing.T) {
	text := func(s string) *string { return &s }

	tests := []struct {
		name    string
		caller  string
		remarks *string
		want    *string
		wantErr error
	}{
		{name: "set", caller: "A", remarks: text("bringing snacks"), want: text("bringing snacks")},
		{name: "trimmed", caller: "A", remarks: text("  late train  "), want: text("late train")},
		{name: "blank clears", caller: "A", remarks: text("   "), want: nil},
		{name: "nil clears", caller: "A", remarks: nil, want: nil},
		{name: "someone else", caller: "B", remarks: text("hi"), wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.seed("G", "A", "B")
			store.guests[guestKey("G", "A")].Remarks = text("old")
			tracker := NewStatusTracker(store)

			got, err := tracker.SetRemarks(context.Background(), tt.caller, "G", "A", tt.remarks)
			stored := store.guests[guestKey("G", "A")].Remarks
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if stored == nil || *stored != "old" {
					t.Errorf("remarks changed on rejected call: %v", stored)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetRemarks failed: %v", err)
			}
			if !equalRemarks(got, tt.want) {
				t.Errorf("returned %v, want %v", deref(got), deref(tt.want))
			}
			if !equalRemarks(stored, tt.want) {
				t.Errorf("stored %v, want %v", deref(stored), deref(tt.want))
			}
		})
	}
}

func equalRemarks(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
