package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blues/smartfarmer/internal/config"
	"github.com/blues/smartfarmer/internal/event"
	"github.com/blues/smartfarmer/internal/middleware"
	"github.com/blues/smartfarmer/internal/model"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/blues/smartfarmer/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const webhookSecret = "sk_test_secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t        *testing.T
	db       *gorm.DB
	engine   *gin.Engine
	verifier *middleware.JWTVerifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	cfg := &config.Config{
		Payout:  config.PayoutConfig{Workers: 2},
		Payment: config.PaymentConfig{SecretKey: webhookSecret, MinorUnit: 100},
	}
	verifier := middleware.NewJWTVerifier("auth-secret")

	engine := Setup(Deps{
		DB:       db,
		Store:    repository.NewGormStore(db, testutil.InvestmentConfig()),
		Verifier: verifier,
		Config:   cfg,
	})
	return &testServer{t: t, db: db, engine: engine, verifier: verifier}
}

func (s *testServer) do(method, path, uid string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		token, err := s.verifier.IssueToken(uid, uid+"@example.com", time.Hour)
		if err != nil {
			s.t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(req)
}

func (s *testServer) webhook(body []byte, signature string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set(event.SignatureHeader, signature)
	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func (s *testServer) register(uid string) {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/users", uid, map[string]string{"firstName": "Test"})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("register %s: expected 201, got %d: %s", uid, w.Code, env.Message)
	}
}

func (s *testServer) walletBalance(uid string) decimal.Decimal {
	s.t.Helper()
	var user model.UserModel
	if err := s.db.First(&user, "uid = ?", uid).Error; err != nil {
		s.t.Fatalf("load user %s: %v", uid, err)
	}
	return user.WalletBalance
}

func chargeBody(uid, reference string, minorAmount int64) []byte {
	return []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"amount":%d,"status":"success","metadata":{"userId":%q}}}`,
		reference, minorAmount, uid))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestInvestmentFlow(t *testing.T) {
	s := newTestServer(t)

	s.register("admin-1")
	if err := s.db.Model(&model.UserModel{}).Where("uid = ?", "admin-1").Update("role", model.UserRoleAdmin).Error; err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	s.register("user-1")

	var projectId int64
	t.Run("Given an admin, When creating a project, Then it is open with the computed target", func(t *testing.T) {
		w, env := s.do(http.MethodPost, "/api/v1/admin/projects", "admin-1", map[string]interface{}{
			"name":             "Cassava Farm",
			"pricePerUnit":     1000,
			"availableUnits":   10,
			"returnPercentage": 15,
			"durationDays":     7,
			"riskLevel":        "Low",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, env.Message)
		}
		var project struct {
			ID           int64           `json:"id"`
			TargetAmount decimal.Decimal `json:"targetAmount"`
			Status       string          `json:"status"`
		}
		if err := json.Unmarshal(env.Data, &project); err != nil {
			t.Fatalf("decode project: %v", err)
		}
		if !project.TargetAmount.Equal(decimal.NewFromInt(10000)) || project.Status != "Open" {
			t.Errorf("unexpected project %+v", project)
		}
		projectId = project.ID
	})

	t.Run("Given a regular user, When calling an admin route, Then 403 is returned", func(t *testing.T) {
		w, _ := s.do(http.MethodPost, "/api/v1/admin/projects", "user-1", map[string]interface{}{"name": "x"})
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})

	t.Run("Given a signed charge webhook delivered twice, When processed, Then the wallet is credited once", func(t *testing.T) {
		body := chargeBody("user-1", "ref-1", 500000)
		for i := 0; i < 2; i++ {
			w, env := s.webhook(body, event.Sign(webhookSecret, body))
			if w.Code != http.StatusOK {
				t.Fatalf("delivery %d: expected 200, got %d: %s", i+1, w.Code, env.Message)
			}
		}
		if got := s.walletBalance("user-1"); !got.Equal(decimal.NewFromInt(5000)) {
			t.Errorf("expected balance 5000, got %s", got)
		}
	})

	t.Run("Given a webhook with a bad signature, When posted, Then 401 is returned and nothing is credited", func(t *testing.T) {
		body := chargeBody("user-1", "ref-2", 100000)
		w, _ := s.webhook(body, "deadbeef")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if got := s.walletBalance("user-1"); !got.Equal(decimal.NewFromInt(5000)) {
			t.Errorf("expected balance 5000, got %s", got)
		}
	})

	t.Run("Given balance 5000, When buying 3 units at 1000, Then units and balances move together", func(t *testing.T) {
		w, env := s.do(http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/invest", projectId), "user-1", map[string]int64{"units": 3})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, env.Message)
		}
		var result struct {
			WalletBalance  decimal.Decimal `json:"walletBalance"`
			AvailableUnits int64           `json:"availableUnits"`
			CurrentAmount  decimal.Decimal `json:"currentAmount"`
		}
		if err := json.Unmarshal(env.Data, &result); err != nil {
			t.Fatalf("decode purchase: %v", err)
		}
		if result.AvailableUnits != 7 || !result.WalletBalance.Equal(decimal.NewFromInt(2000)) || !result.CurrentAmount.Equal(decimal.NewFromInt(3000)) {
			t.Errorf("unexpected purchase result %+v", result)
		}
	})

	t.Run("Given balance 2000, When buying 3 more units, Then 409 Insufficient funds", func(t *testing.T) {
		w, env := s.do(http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/invest", projectId), "user-1", map[string]int64{"units": 3})
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
		if !strings.Contains(env.Message, "Insufficient funds") {
			t.Errorf("unexpected message %q", env.Message)
		}
	})

	t.Run("Given zero units, When investing, Then 400 is returned", func(t *testing.T) {
		w, _ := s.do(http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/invest", projectId), "user-1", map[string]int64{"units": 0})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("Given an unknown project, When investing, Then 404 is returned", func(t *testing.T) {
		w, _ := s.do(http.MethodPost, "/api/v1/projects/9999/invest", "user-1", map[string]int64{"units": 1})
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("Given an active investment, When listing my investments, Then it appears with its project name", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/users/me/investments", "user-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var items []struct {
			ProjectName string `json:"projectName"`
			Units       int64  `json:"units"`
		}
		if err := json.Unmarshal(env.Data, &items); err != nil {
			t.Fatalf("decode investments: %v", err)
		}
		if len(items) != 1 || items[0].ProjectName != "Cassava Farm" || items[0].Units != 3 {
			t.Errorf("unexpected investments %+v", items)
		}
	})

	t.Run("Given an unmatured investment, When the admin triggers payouts, Then nothing is paid", func(t *testing.T) {
		w, env := s.do(http.MethodPost, "/api/v1/admin/system/process-payouts", "admin-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, env.Message)
		}
		if env.Message != "Payout process complete. 0 investment(s) paid out." {
			t.Errorf("unexpected message %q", env.Message)
		}
		var summary struct {
			Scanned    int `json:"scanned"`
			NotMatured int `json:"notMatured"`
		}
		if err := json.Unmarshal(env.Data, &summary); err != nil {
			t.Fatalf("decode summary: %v", err)
		}
		if summary.Scanned != 1 || summary.NotMatured != 1 {
			t.Errorf("unexpected summary %+v", summary)
		}
	})

	t.Run("Given deposits and a purchase, When listing my transactions, Then both ledger rows are returned", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/users/me/transactions", "user-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var page struct {
			Transactions []struct {
				Type string `json:"type"`
			} `json:"transactions"`
			Pagination struct {
				Total int64 `json:"total"`
			} `json:"pagination"`
		}
		if err := json.Unmarshal(env.Data, &page); err != nil {
			t.Fatalf("decode transactions: %v", err)
		}
		if page.Pagination.Total != 2 || len(page.Transactions) != 2 {
			t.Errorf("expected 2 transactions, got %+v", page)
		}
	})
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	t.Run("Given no token, When calling an authenticated route, Then 401 is returned", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/users/me", "", nil)
		if w.Code != http.StatusUnauthorized || env.Success {
			t.Fatalf("expected 401 failure envelope, got %d %+v", w.Code, env)
		}
	})

	t.Run("Given a non-numeric id, When fetching a project, Then 400 is returned", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/v1/projects/abc", "", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("Given an unknown project, When requesting ROI, Then 404 is returned", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/v1/projects/42/roi?units=2", "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("Given an empty catalogue, When listing projects, Then an empty page is returned", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/projects", "", nil)
		if w.Code != http.StatusOK || !env.Success {
			t.Fatalf("expected 200 success, got %d", w.Code)
		}
	})
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t)

	s.register("admin-1")
	if err := s.db.Model(&model.UserModel{}).Where("uid = ?", "admin-1").Update("role", model.UserRoleAdmin).Error; err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	s.register("user-1")
	s.register("user-2")

	t.Run("Given a funded wallet, When deleting my account, Then 409 is returned", func(t *testing.T) {
		body := chargeBody("user-1", "ref-del-1", 100000)
		if w, env := s.webhook(body, event.Sign(webhookSecret, body)); w.Code != http.StatusOK {
			t.Fatalf("credit: expected 200, got %d: %s", w.Code, env.Message)
		}

		w, env := s.do(http.MethodDelete, "/api/v1/users/me", "user-1", nil)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", w.Code, env.Message)
		}
	})

	t.Run("Given an empty wallet, When deleting my account, Then the profile is gone", func(t *testing.T) {
		w, env := s.do(http.MethodDelete, "/api/v1/users/me", "user-2", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, env.Message)
		}
		if w, _ := s.do(http.MethodGet, "/api/v1/users/me", "user-2", nil); w.Code != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", w.Code)
		}
	})

	t.Run("Given a regular user, When deleting another account, Then 403 is returned", func(t *testing.T) {
		w, _ := s.do(http.MethodDelete, "/api/v1/admin/users/user-1", "user-1", nil)
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})

	t.Run("Given an admin, When deleting an unknown user, Then 404 is returned", func(t *testing.T) {
		w, _ := s.do(http.MethodDelete, "/api/v1/admin/users/missing", "admin-1", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}
