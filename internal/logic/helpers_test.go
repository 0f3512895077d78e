package logic

import (
	"context"
	"testing"
	"time"

	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/blues/smartfarmer/internal/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*gorm.DB, *repository.GormStore) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return db, repository.NewGormStore(db, testutil.InvestmentConfig())
}

func seedProject(t *testing.T, db *gorm.DB, price int64, units int64, returnPct int64, durationDays int) *model.ProjectModel {
	t.Helper()
	project := &model.ProjectModel{
		Name:             "Cassava Farm",
		PricePerUnit:     decimal.NewFromInt(price),
		AvailableUnits:   units,
		CurrentAmount:    decimal.Zero,
		TargetAmount:     decimal.NewFromInt(price * units),
		ReturnPercentage: decimal.NewFromInt(returnPct),
		DurationDays:     durationDays,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return project
}

func seedUser(t *testing.T, db *gorm.DB, uid string, balance int64) *model.UserModel {
	t.Helper()
	user := model.NewUser(uid, uid+"@example.com")
	user.WalletBalance = decimal.NewFromInt(balance)
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedInvestment(t *testing.T, db *gorm.DB, uid string, projectId int64, amount int64, units int64, createdAt time.Time) *model.InvestmentModel {
	t.Helper()
	inv := &model.InvestmentModel{
		CreatedAt: createdAt,
		UserId:    uid,
		ProjectId: projectId,
		Amount:    decimal.NewFromInt(amount),
		Units:     units,
		Status:    model.InvestmentStatusActive,
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("failed to seed investment: %v", err)
	}
	return inv
}

func reloadUser(t *testing.T, db *gorm.DB, uid string) *model.UserModel {
	t.Helper()
	var user model.UserModel
	if err := db.Where("uid = ?", uid).First(&user).Error; err != nil {
		t.Fatalf("failed to reload user %s: %v", uid, err)
	}
	return &user
}

func reloadProject(t *testing.T, db *gorm.DB, id int64) *model.ProjectModel {
	t.Helper()
	var project model.ProjectModel
	if err := db.First(&project, id).Error; err != nil {
		t.Fatalf("failed to reload project %d: %v", id, err)
	}
	return &project
}

func countRows(t *testing.T, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("%s: expected %d, got %s", name, want, got)
	}
}

// conflictingStore 在前 n 次尝试中让项目写入失败，模拟并发修改
type conflictingStore struct {
	*repository.GormStore
	remaining int
	attempts  int
}

func (s *conflictingStore) ReadModifyWrite(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.GormStore.ReadModifyWrite(ctx, func(tx repository.Tx) error {
		s.attempts++
		if s.remaining > 0 {
			s.remaining--
			return fn(&conflictingTx{Tx: tx})
		}
		return fn(tx)
	})
}

type conflictingTx struct {
	repository.Tx
}

func (t *conflictingTx) UpdateProject(p *model.ProjectModel) error {
	return repository.ErrConflict
}

// staleReadStore 首次尝试返回过期的项目快照，模拟读到写入之间被其他买家抢先提交
type staleReadStore struct {
	*repository.GormStore
	snapshot *model.ProjectModel
	attempts int
}

func (s *staleReadStore) ReadModifyWrite(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.GormStore.ReadModifyWrite(ctx, func(tx repository.Tx) error {
		s.attempts++
		if s.attempts == 1 {
			return fn(&staleTx{Tx: tx, snapshot: s.snapshot})
		}
		return fn(tx)
	})
}

type staleTx struct {
	repository.Tx
	snapshot *model.ProjectModel
}

func (t *staleTx) GetProject(id int64) (*model.ProjectModel, error) {
	p := *t.snapshot
	return &p, nil
}
