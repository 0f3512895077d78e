package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/blues/smartfarmer/internal/config"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/testutil"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	return NewGormStore(testutil.NewTestDB(t), config.InvestmentConfig{MaxRetries: 3, RetryBaseMs: 1, RetryMaxMs: 2})
}

func TestIsConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"conflict", ErrConflict, true},
		{"wrapped conflict", fmt.Errorf("update: %w", ErrConflict), true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"not found", ErrNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConflict(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestReadModifyWrite_Retries(t *testing.T) {
	ctx := context.Background()

	t.Run("Given transient conflicts When running Then the cycle is retried until it succeeds", func(t *testing.T) {
		s := newTestStore(t)
		calls := 0
		err := s.ReadModifyWrite(ctx, func(tx Tx) error {
			calls++
			if calls < 3 {
				return ErrConflict
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("Given persistent conflicts When running Then ErrConflict is returned after max retries", func(t *testing.T) {
		s := newTestStore(t)
		calls := 0
		err := s.ReadModifyWrite(ctx, func(tx Tx) error {
			calls++
			return ErrConflict
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		if calls != 4 {
			t.Errorf("expected 4 calls, got %d", calls)
		}
	})

	t.Run("Given a business error When running Then it is returned without retry", func(t *testing.T) {
		s := newTestStore(t)
		boom := errors.New("boom")
		calls := 0
		err := s.ReadModifyWrite(ctx, func(tx Tx) error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) || calls != 1 {
			t.Errorf("expected boom after 1 call, got %v after %d", err, calls)
		}
	})

	t.Run("Given a cancelled context When a conflict occurs Then the context error is returned", func(t *testing.T) {
		s := newTestStore(t)
		cctx, cancel := context.WithCancel(ctx)
		err := s.ReadModifyWrite(cctx, func(tx Tx) error {
			cancel()
			return ErrConflict
		})
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestUpdateUser_StaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := model.NewUser("user-abc123", "a@example.com")
	if err := s.DB().Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	stale, _ := s.GetUser(ctx, "user-abc123")
	fresh, _ := s.GetUser(ctx, "user-abc123")

	err := s.ReadModifyWrite(ctx, func(tx Tx) error {
		fresh.WalletBalance = decimal.NewFromInt(100)
		return tx.UpdateUser(fresh)
	})
	if err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if fresh.Version != 1 {
		t.Errorf("expected version 1, got %d", fresh.Version)
	}

	var staleErr error
	_ = s.ReadModifyWrite(ctx, func(tx Tx) error {
		stale.WalletBalance = decimal.NewFromInt(999)
		staleErr = tx.UpdateUser(stale)
		return nil
	})
	if !errors.Is(staleErr, ErrConflict) {
		t.Fatalf("expected ErrConflict for stale version, got %v", staleErr)
	}
	if stale.Version != 0 {
		t.Errorf("expected stale version to be restored to 0, got %d", stale.Version)
	}

	stored, _ := s.GetUser(ctx, "user-abc123")
	if !stored.WalletBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected balance 100, got %s", stored.WalletBalance)
	}
}

func TestCompleteInvestment_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	inv := &model.InvestmentModel{UserId: "u1", ProjectId: 1, Amount: decimal.NewFromInt(1000), Units: 1, Status: model.InvestmentStatusActive}
	if err := s.DB().Create(inv).Error; err != nil {
		t.Fatalf("failed to seed investment: %v", err)
	}

	now := time.Now()
	err := s.ReadModifyWrite(ctx, func(tx Tx) error {
		return tx.CompleteInvestment(&model.InvestmentModel{Id: inv.Id}, decimal.NewFromInt(1150), now)
	})
	if err != nil {
		t.Fatalf("first completion failed: %v", err)
	}

	err = s.ReadModifyWrite(ctx, func(tx Tx) error {
		return tx.CompleteInvestment(&model.InvestmentModel{Id: inv.Id}, decimal.NewFromInt(1150), now)
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for second completion, got %v", err)
	}

	active, err := s.ListInvestmentsByStatus(ctx, model.InvestmentStatusActive)
	if err != nil || len(active) != 0 {
		t.Errorf("expected no active investments, got %d (%v)", len(active), err)
	}
	completed, _ := s.ListInvestmentsByStatus(ctx, model.InvestmentStatusCompleted)
	if len(completed) != 1 || !completed[0].PayoutAmount.Equal(decimal.NewFromInt(1150)) {
		t.Errorf("unexpected completed investments %+v", completed)
	}
}

func TestTransactionReferenceIsUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	entry := func() *model.TransactionModel {
		return &model.TransactionModel{
			UserId:    "u1",
			Type:      model.TransactionTypeDeposit,
			Amount:    decimal.NewFromInt(10),
			Status:    model.TransactionStatusCompleted,
			Reference: "gw-ref-1",
		}
	}

	if err := s.ReadModifyWrite(ctx, func(tx Tx) error { return tx.CreateTransaction(entry()) }); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	var exists bool
	_ = s.ReadModifyWrite(ctx, func(tx Tx) error {
		var err error
		exists, err = tx.TransactionExists("gw-ref-1")
		return err
	})
	if !exists {
		t.Error("expected reference to exist")
	}

	err := s.ReadModifyWrite(ctx, func(tx Tx) error { return tx.CreateTransaction(entry()) })
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetters_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetProject(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for project, got %v", err)
	}
	if _, err := s.GetUser(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for user, got %v", err)
	}
	err := s.ReadModifyWrite(ctx, func(tx Tx) error {
		_, err := tx.GetWithdrawal(1)
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for withdrawal, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := model.NewUser("user-abc123", "a@example.com")
	if err := s.DB().Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	t.Run("Given a stale version, When deleting, Then ErrConflict and the row survives", func(t *testing.T) {
		stale, _ := s.GetUser(ctx, "user-abc123")
		err := s.ReadModifyWrite(ctx, func(tx Tx) error {
			fresh, err := tx.GetUser("user-abc123")
			if err != nil {
				return err
			}
			return tx.UpdateUser(fresh)
		})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}

		var deleteErr error
		_ = s.ReadModifyWrite(ctx, func(tx Tx) error {
			deleteErr = tx.DeleteUser(stale)
			return nil
		})
		if !errors.Is(deleteErr, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", deleteErr)
		}
		if _, err := s.GetUser(ctx, "user-abc123"); err != nil {
			t.Fatalf("expected user to survive, got %v", err)
		}
	})

	t.Run("Given active investments and pending requests, When counting, Then both are reported", func(t *testing.T) {
		rows := []interface{}{
			&model.InvestmentModel{UserId: "user-abc123", ProjectId: 1, Amount: decimal.NewFromInt(100), Units: 1, Status: model.InvestmentStatusActive},
			&model.InvestmentModel{UserId: "user-abc123", ProjectId: 1, Amount: decimal.NewFromInt(100), Units: 1, Status: model.InvestmentStatusCompleted},
			&model.WithdrawalModel{UserId: "user-abc123", Amount: decimal.NewFromInt(50), Status: model.RequestStatusPending, Reference: "wd-1"},
			&model.ManualDepositModel{UserId: "user-abc123", Amount: decimal.NewFromInt(50), SenderName: "A", Status: model.RequestStatusRejected, Reference: "md-1"},
		}
		for _, row := range rows {
			if err := s.DB().Create(row).Error; err != nil {
				t.Fatalf("failed to seed %T: %v", row, err)
			}
		}

		var active, pending int64
		err := s.ReadModifyWrite(ctx, func(tx Tx) error {
			var err error
			if active, err = tx.CountActiveInvestments("user-abc123"); err != nil {
				return err
			}
			pending, err = tx.CountPendingRequests("user-abc123")
			return err
		})
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if active != 1 || pending != 1 {
			t.Errorf("expected 1 active and 1 pending, got %d and %d", active, pending)
		}
	})

	t.Run("Given the current version, When deleting, Then the user is gone", func(t *testing.T) {
		err := s.ReadModifyWrite(ctx, func(tx Tx) error {
			user, err := tx.GetUser("user-abc123")
			if err != nil {
				return err
			}
			return tx.DeleteUser(user)
		})
		if err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := s.GetUser(ctx, "user-abc123"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
