package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fitclash/fitclash-api/internal/domain/ledger"
)

var testRates = ledger.Rates{
	VoteReceived:  10,
	ContentPosted: 50,
	DailyLogin:    25,
}

func newTestService() *ledger.Service {
	return ledger.NewService(ledger.NewMemoryRepository(), testRates)
}

func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Append(ctx, ledger.TransactionInput{Points: 10, Kind: ledger.KindEarn})
	if !errors.Is(err, ledger.ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}

	_, err = svc.Append(ctx, ledger.TransactionInput{UserID: uuid.New(), Points: 0, Kind: ledger.KindEarn})
	if !errors.Is(err, ledger.ErrZeroPoints) {
		t.Fatalf("expected ErrZeroPoints, got %v", err)
	}

	_, err = svc.Append(ctx, ledger.TransactionInput{UserID: uuid.New(), Points: 10, Kind: "bonus"})
	if !errors.Is(err, ledger.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}

	// Sign must agree with kind
	_, err = svc.Append(ctx, ledger.TransactionInput{UserID: uuid.New(), Points: -10, Kind: ledger.KindEarn})
	if !errors.Is(err, ledger.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind for negative earn, got %v", err)
	}
	_, err = svc.Append(ctx, ledger.TransactionInput{UserID: uuid.New(), Points: 10, Kind: ledger.KindRedeem})
	if !errors.Is(err, ledger.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind for positive redeem, got %v", err)
	}
}

func TestEarnOnlyBalanceMonotonic(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	amounts := []int{10, 50, 25, 100}
	sum := 0
	prev := 0

	for i, amount := range amounts {
		ref := fmt.Sprintf("vote-%d", i)
		_, err := svc.Append(ctx, ledger.TransactionInput{
			UserID:      userID,
			Points:      amount,
			Kind:        ledger.KindEarn,
			Description: "test earn",
			ReferenceID: &ref,
		})
		requireNoError(t, err)
		sum += amount

		balance, err := svc.Balance(ctx, userID)
		requireNoError(t, err)
		if balance < prev {
			t.Fatalf("balance decreased under earn-only sequence: %d -> %d", prev, balance)
		}
		if balance != sum {
			t.Fatalf("expected balance %d, got %d", sum, balance)
		}
		prev = balance
	}

	earned, err := svc.TotalEarned(ctx, userID)
	requireNoError(t, err)
	if earned != sum {
		t.Fatalf("expected total earned %d, got %d", sum, earned)
	}
}

func TestRecordEventRates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	tx, err := svc.RecordEvent(ctx, userID, ledger.SourceVoteReceived, "vote-1")
	requireNoError(t, err)
	if tx.Points != testRates.VoteReceived || tx.Kind != ledger.KindEarn {
		t.Fatalf("unexpected vote transaction: %+v", tx)
	}

	tx, err = svc.RecordEvent(ctx, userID, ledger.SourceContentPosted, "post-1")
	requireNoError(t, err)
	if tx.Points != testRates.ContentPosted {
		t.Fatalf("expected %d points for content, got %d", testRates.ContentPosted, tx.Points)
	}

	_, err = svc.RecordEvent(ctx, userID, "marathon_finished", "")
	if !errors.Is(err, ledger.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind for unknown source, got %v", err)
	}
}

func TestDailyLoginIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	tx, err := svc.RecordEvent(ctx, userID, ledger.SourceDailyLogin, "")
	requireNoError(t, err)
	if tx.Points != testRates.DailyLogin {
		t.Fatalf("expected %d points, got %d", testRates.DailyLogin, tx.Points)
	}

	_, err = svc.RecordEvent(ctx, userID, ledger.SourceDailyLogin, "")
	if !errors.Is(err, ledger.ErrDuplicateEvent) {
		t.Fatalf("expected ErrDuplicateEvent on second login of the day, got %v", err)
	}

	balance, err := svc.Balance(ctx, userID)
	requireNoError(t, err)
	if balance != testRates.DailyLogin {
		t.Fatalf("expected balance %d after duplicate login, got %d", testRates.DailyLogin, balance)
	}

	// A different user is unaffected
	_, err = svc.RecordEvent(ctx, uuid.New(), ledger.SourceDailyLogin, "")
	requireNoError(t, err)
}

func TestBalanceClampAndAudit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Append(ctx, ledger.TransactionInput{UserID: userID, Points: 100, Kind: ledger.KindEarn})
	requireNoError(t, err)
	_, err = svc.Append(ctx, ledger.TransactionInput{UserID: userID, Points: -300, Kind: ledger.KindAdjust, Description: "clawback"})
	requireNoError(t, err)

	balance, err := svc.Balance(ctx, userID)
	requireNoError(t, err)
	if balance != 0 {
		t.Fatalf("display balance must clamp at zero, got %d", balance)
	}

	audit, err := svc.AuditBalance(ctx, userID)
	requireNoError(t, err)
	if audit != -200 {
		t.Fatalf("expected audit balance -200, got %d", audit)
	}
}

func TestGrantRejectsZeroPoints(t *testing.T) {
	svc := newTestService()

	_, err := svc.Grant(context.Background(), uuid.New(), 0, "nothing")
	if !errors.Is(err, ledger.ErrZeroPoints) {
		t.Fatalf("expected ErrZeroPoints, got %v", err)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	for i := 1; i <= 5; i++ {
		_, err := svc.Append(ctx, ledger.TransactionInput{
			UserID:      userID,
			Points:      i,
			Kind:        ledger.KindEarn,
			Description: fmt.Sprintf("earn %d", i),
		})
		requireNoError(t, err)
	}

	txs, err := svc.ListTransactions(ctx, userID, ledger.ListFilters{})
	requireNoError(t, err)
	if len(txs) != 5 {
		t.Fatalf("expected 5 transactions, got %d", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].CreatedAt.After(txs[i-1].CreatedAt) {
			t.Fatalf("transactions not sorted newest-first at index %d", i)
		}
	}
	if txs[0].Points != 5 {
		t.Fatalf("expected newest transaction first, got points %d", txs[0].Points)
	}

	// Paging
	page, err := svc.ListTransactions(ctx, userID, ledger.ListFilters{Limit: 2, Offset: 1})
	requireNoError(t, err)
	if len(page) != 2 || page[0].Points != 4 || page[1].Points != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}

	// Reads are idempotent: same query, same result
	again, err := svc.ListTransactions(ctx, userID, ledger.ListFilters{Limit: 2, Offset: 1})
	requireNoError(t, err)
	if len(again) != len(page) {
		t.Fatalf("repeated read returned different size: %d vs %d", len(again), len(page))
	}
	for i := range page {
		if page[i].ID != again[i].ID {
			t.Fatalf("repeated read differs at index %d", i)
		}
	}
}

func TestListTransactionsTimeFilters(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Append(ctx, ledger.TransactionInput{UserID: userID, Points: 10, Kind: ledger.KindEarn})
	requireNoError(t, err)

	cut := time.Now().UTC().Add(time.Hour)
	since := cut
	txs, err := svc.ListTransactions(ctx, userID, ledger.ListFilters{Since: &since})
	requireNoError(t, err)
	if len(txs) != 0 {
		t.Fatalf("expected no transactions after future cutoff, got %d", len(txs))
	}

	until := cut
	txs, err = svc.ListTransactions(ctx, userID, ledger.ListFilters{Until: &until})
	requireNoError(t, err)
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction before cutoff, got %d", len(txs))
	}
}

func TestSummarizeMatchesBalance(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Append(ctx, ledger.TransactionInput{UserID: userID, Points: 1000, Kind: ledger.KindEarn})
	requireNoError(t, err)
	_, err = svc.Append(ctx, ledger.TransactionInput{UserID: userID, Points: -400, Kind: ledger.KindRedeem})
	requireNoError(t, err)
	_, err = svc.Append(ctx, ledger.TransactionInput{UserID: userID, Points: -50, Kind: ledger.KindExpire})
	requireNoError(t, err)
	_, err = svc.Append(ctx, ledger.TransactionInput{UserID: userID, Points: 30, Kind: ledger.KindAdjust})
	requireNoError(t, err)

	summary, err := svc.Summarize(ctx, userID)
	requireNoError(t, err)

	if summary.TotalEarned != 1000 {
		t.Fatalf("expected total earned 1000, got %d", summary.TotalEarned)
	}
	if summary.TotalRedeemed != 400 {
		t.Fatalf("expected total redeemed 400, got %d", summary.TotalRedeemed)
	}

	balance, err := svc.Balance(ctx, userID)
	requireNoError(t, err)
	if summary.Available != balance {
		t.Fatalf("summary available %d must equal balance %d", summary.Available, balance)
	}
	if summary.Available != 580 {
		t.Fatalf("expected available 580, got %d", summary.Available)
	}

	// Idempotent read
	again, err := svc.Summarize(ctx, userID)
	requireNoError(t, err)
	if *again != *summary {
		t.Fatalf("repeated summarize differs: %+v vs %+v", again, summary)
	}
}

func TestTopEarners(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()
	third := uuid.New()

	for userID, points := range map[uuid.UUID]int{first: 300, second: 200, third: 100} {
		_, err := svc.Append(ctx, ledger.TransactionInput{UserID: userID, Points: points, Kind: ledger.KindEarn})
		requireNoError(t, err)
	}
	// Redeems must not affect earn standings
	_, err := svc.Append(ctx, ledger.TransactionInput{UserID: first, Points: -250, Kind: ledger.KindRedeem})
	requireNoError(t, err)

	totals, err := svc.TopEarners(ctx, nil, 2)
	requireNoError(t, err)
	if len(totals) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(totals))
	}
	if totals[0].UserID != first || totals[0].Points != 300 {
		t.Fatalf("unexpected first place: %+v", totals[0])
	}
	if totals[1].UserID != second || totals[1].Points != 200 {
		t.Fatalf("unexpected second place: %+v", totals[1])
	}
}
