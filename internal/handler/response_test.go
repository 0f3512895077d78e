package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/gin-gonic/gin"
)

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", fmt.Errorf("%w: units must be a positive integer", logic.ErrValidation), http.StatusBadRequest, ""},
		{"not found", fmt.Errorf("%w: project 7", logic.ErrNotFound), http.StatusNotFound, ""},
		{"forbidden", logic.ErrForbidden, http.StatusForbidden, ""},
		{"insufficient funds", logic.ErrInsufficientFunds, http.StatusConflict, "Insufficient funds."},
		{"units unavailable", logic.ErrUnitsUnavailable, http.StatusConflict, "Units no longer available."},
		{"invalid state", fmt.Errorf("%w: already processed", logic.ErrInvalidState), http.StatusConflict, ""},
		{"retry exhausted", fmt.Errorf("%w: gave up after 6 attempts", repository.ErrConflict), http.StatusConflict,
			"The request conflicted with a concurrent update, please try again."},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

			HandleError(c, tc.err)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, w.Code)
			}
			var resp Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Success {
				t.Error("expected success=false")
			}
			if tc.wantMsg != "" && resp.Message != tc.wantMsg {
				t.Errorf("expected message %q, got %q", tc.wantMsg, resp.Message)
			}
		})
	}
}

func TestNewPagination(t *testing.T) {
	p := newPagination(2, 20, 41)
	if p.TotalPage != 3 || p.Page != 2 || p.PageSize != 20 {
		t.Errorf("unexpected pagination %+v", p)
	}

	p = newPagination(0, 500, 0)
	if p.Page != 1 || p.PageSize != 100 || p.TotalPage != 0 {
		t.Errorf("unexpected clamped pagination %+v", p)
	}
}
