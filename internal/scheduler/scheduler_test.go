package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/blues/smartfarmer/internal/config"
	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/blues/smartfarmer/internal/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func seedProject(t *testing.T, db *gorm.DB, name string, units int64, status model.ProjectStatus) *model.ProjectModel {
	t.Helper()
	project := &model.ProjectModel{
		Name:             name,
		PricePerUnit:     decimal.NewFromInt(1000),
		AvailableUnits:   units,
		CurrentAmount:    decimal.NewFromInt(1000 * (10 - units)),
		TargetAmount:     decimal.NewFromInt(10000),
		ReturnPercentage: decimal.NewFromInt(15),
		DurationDays:     7,
		Status:           status,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return project
}

func projectStatus(t *testing.T, db *gorm.DB, id int64) model.ProjectStatus {
	t.Helper()
	var project model.ProjectModel
	if err := db.First(&project, id).Error; err != nil {
		t.Fatalf("failed to load project %d: %v", id, err)
	}
	return project.Status
}

func TestProjectStatusJob_Run(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := repository.NewGormStore(db, testutil.InvestmentConfig())
	job := NewProjectStatusJob(db, store, config.TaskConfig{Interval: 60})

	soldOut := seedProject(t, db, "Sold Out", 0, model.ProjectStatusOpen)
	selling := seedProject(t, db, "Selling", 4, model.ProjectStatusOpen)
	closed := seedProject(t, db, "Closed", 0, model.ProjectStatusClosed)

	t.Run("Given open, selling and closed projects, When the job runs, Then only the sold out open project is funded", func(t *testing.T) {
		updated, err := job.Run(context.Background())
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if updated != 1 {
			t.Errorf("expected 1 update, got %d", updated)
		}
		if got := projectStatus(t, db, soldOut.Id); got != model.ProjectStatusFunded {
			t.Errorf("sold out project: expected Funded, got %s", got)
		}
		if got := projectStatus(t, db, selling.Id); got != model.ProjectStatusOpen {
			t.Errorf("selling project: expected Open, got %s", got)
		}
		if got := projectStatus(t, db, closed.Id); got != model.ProjectStatusClosed {
			t.Errorf("closed project: expected Closed, got %s", got)
		}
	})

	t.Run("Given the job already ran, When it runs again, Then nothing changes", func(t *testing.T) {
		updated, err := job.Run(context.Background())
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if updated != 0 {
			t.Errorf("expected 0 updates, got %d", updated)
		}
	})
}

func TestPayoutJob_Execute(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := repository.NewGormStore(db, testutil.InvestmentConfig())

	project := seedProject(t, db, "Maize", 5, model.ProjectStatusOpen)
	user := model.NewUser("user-1", "user-1@example.com")
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	inv := &model.InvestmentModel{
		CreatedAt: time.Now().Add(-10 * 24 * time.Hour),
		UserId:    user.Uid,
		ProjectId: project.Id,
		Amount:    decimal.NewFromInt(1000),
		Units:     1,
		Status:    model.InvestmentStatusActive,
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("failed to seed investment: %v", err)
	}

	job := NewPayoutJob(logic.NewPayoutLogic(store), config.PayoutConfig{Interval: 3600})
	job.Execute()

	var reloaded model.UserModel
	if err := db.First(&reloaded, "uid = ?", user.Uid).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !reloaded.WalletBalance.Equal(decimal.NewFromInt(1150)) {
		t.Errorf("expected wallet 1150 after scheduled payout, got %s", reloaded.WalletBalance)
	}
}

func TestManager_RegisterJobs(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := repository.NewGormStore(db, testutil.InvestmentConfig())
	payout := logic.NewPayoutLogic(store)

	cases := []struct {
		name        string
		autoEnabled bool
		wantJobs    int
	}{
		{name: "payouts admin-triggered only", autoEnabled: false, wantJobs: 1},
		{name: "payouts scheduled", autoEnabled: true, wantJobs: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{
				Task:   config.TaskConfig{Interval: 60},
				Payout: config.PayoutConfig{AutoEnabled: tc.autoEnabled, Interval: 3600},
			}
			m, err := NewManager(db, store, payout, cfg)
			if err != nil {
				t.Fatalf("NewManager returned error: %v", err)
			}
			defer m.Stop()

			m.RegisterJobs()
			if got := len(m.scheduler.Jobs()); got != tc.wantJobs {
				t.Errorf("expected %d jobs, got %d", tc.wantJobs, got)
			}
		})
	}
}
