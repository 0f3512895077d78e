package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blues/smartfarmer/internal/logger"
	"github.com/shopspring/decimal"
)

// Crediter 网关入金记账
type Crediter interface {
	CreditGatewayDeposit(ctx context.Context, uid string, amount decimal.Decimal, reference string) (bool, error)
}

// chargeData charge.success 事件的 data 字段
type chargeData struct {
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	Metadata  struct {
		UserId string `json:"userId"`
	} `json:"metadata"`
}

// ChargeProcessor 充值成功事件处理器
type ChargeProcessor struct {
	crediter  Crediter
	minorUnit decimal.Decimal
}

// NewChargeProcessor 创建充值处理器，minorUnit 为网关金额与记账金额的换算比
func NewChargeProcessor(crediter Crediter, minorUnit int64) *ChargeProcessor {
	if minorUnit <= 0 {
		minorUnit = 1
	}
	return &ChargeProcessor{
		crediter:  crediter,
		minorUnit: decimal.NewFromInt(minorUnit),
	}
}

// Process 处理充值成功事件
func (p *ChargeProcessor) Process(ctx context.Context, evt *Event) error {
	var data chargeData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return fmt.Errorf("decode charge data: %w", err)
	}

	if data.Status != "" && !strings.EqualFold(data.Status, "success") {
		logger.Info("Ignoring charge %s with status %s", data.Reference, data.Status)
		return nil
	}
	if data.Metadata.UserId == "" || data.Reference == "" {
		logger.Warn("Charge event missing userId or reference, skipped: %s", string(evt.Data))
		return nil
	}
	if !data.Amount.IsPositive() {
		logger.Warn("Charge %s has non-positive amount %s, skipped", data.Reference, data.Amount)
		return nil
	}

	amount := data.Amount.Div(p.minorUnit).Round(2)
	credited, err := p.crediter.CreditGatewayDeposit(ctx, data.Metadata.UserId, amount, data.Reference)
	if err != nil {
		return err
	}

	if credited {
		logger.Info("Processed charge %s: credited %s to user %s", data.Reference, amount, data.Metadata.UserId)
	} else {
		logger.Info("Charge %s already processed, skipped", data.Reference)
	}
	return nil
}
