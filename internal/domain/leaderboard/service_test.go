package leaderboard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fitclash/fitclash-api/internal/domain/leaderboard"
	"github.com/fitclash/fitclash-api/internal/domain/ledger"
)

// fakeSource records the window and limit it was queried with.
type fakeSource struct {
	totals []ledger.EarnTotal
	since  *time.Time
	limit  int
	calls  int
}

func (f *fakeSource) TopEarners(_ context.Context, since *time.Time, limit int) ([]ledger.EarnTotal, error) {
	f.since = since
	f.limit = limit
	f.calls++
	if limit > len(f.totals) {
		limit = len(f.totals)
	}
	return f.totals[:limit], nil
}

func TestTopAssignsRanks(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	src := &fakeSource{totals: []ledger.EarnTotal{
		{UserID: first, Points: 300},
		{UserID: second, Points: 150},
	}}
	svc := leaderboard.NewService(src, nil, time.Minute)

	standings, err := svc.Top(context.Background(), leaderboard.PeriodAll, 10)
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if len(standings) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(standings))
	}
	if standings[0].Rank != 1 || standings[0].UserID != first.String() || standings[0].Points != 300 {
		t.Fatalf("unexpected first standing: %+v", standings[0])
	}
	if standings[1].Rank != 2 || standings[1].UserID != second.String() {
		t.Fatalf("unexpected second standing: %+v", standings[1])
	}
	if src.since != nil {
		t.Fatalf("period all must not set a window, got %v", src.since)
	}
}

func TestTopPeriodWindows(t *testing.T) {
	src := &fakeSource{}
	svc := leaderboard.NewService(src, nil, time.Minute)
	ctx := context.Background()

	if _, err := svc.Top(ctx, leaderboard.PeriodWeek, 10); err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if src.since == nil {
		t.Fatal("week period must set a window")
	}
	age := time.Since(*src.since)
	if age < 6*24*time.Hour || age > 8*24*time.Hour {
		t.Fatalf("week window should be about 7 days back, got %v", age)
	}

	if _, err := svc.Top(ctx, leaderboard.PeriodMonth, 10); err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if src.since == nil || time.Since(*src.since) < 27*24*time.Hour {
		t.Fatalf("month window should be about a month back, got %v", src.since)
	}

	// Empty period defaults to all-time
	if _, err := svc.Top(ctx, "", 10); err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if src.since != nil {
		t.Fatalf("empty period must not set a window, got %v", src.since)
	}

	_, err := svc.Top(ctx, "decade", 10)
	if !errors.Is(err, leaderboard.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestTopLimitBounds(t *testing.T) {
	src := &fakeSource{}
	svc := leaderboard.NewService(src, nil, time.Minute)
	ctx := context.Background()

	if _, err := svc.Top(ctx, leaderboard.PeriodAll, 0); err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if src.limit != 10 {
		t.Fatalf("expected default limit 10, got %d", src.limit)
	}

	if _, err := svc.Top(ctx, leaderboard.PeriodAll, 5000); err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if src.limit != 100 {
		t.Fatalf("expected limit capped at 100, got %d", src.limit)
	}
}

func TestTopAgainstLedger(t *testing.T) {
	ledgerSvc := ledger.NewService(ledger.NewMemoryRepository(), ledger.Rates{
		VoteReceived:  10,
		ContentPosted: 50,
		DailyLogin:    25,
	})
	svc := leaderboard.NewService(ledgerSvc, nil, time.Minute)
	ctx := context.Background()

	athlete := uuid.New()
	rookie := uuid.New()
	for i := 0; i < 3; i++ {
		if _, err := ledgerSvc.Append(ctx, ledger.TransactionInput{UserID: athlete, Points: 100, Kind: ledger.KindEarn}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	if _, err := ledgerSvc.Append(ctx, ledger.TransactionInput{UserID: rookie, Points: 50, Kind: ledger.KindEarn}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	// Spending points must not move the earn standings
	if _, err := ledgerSvc.Append(ctx, ledger.TransactionInput{UserID: athlete, Points: -250, Kind: ledger.KindRedeem}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	standings, err := svc.Top(ctx, leaderboard.PeriodAll, 10)
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if len(standings) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(standings))
	}
	if standings[0].UserID != athlete.String() || standings[0].Points != 300 {
		t.Fatalf("unexpected leader: %+v", standings[0])
	}
	if standings[1].UserID != rookie.String() || standings[1].Points != 50 {
		t.Fatalf("unexpected runner-up: %+v", standings[1])
	}
}
