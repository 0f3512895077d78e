package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/blues/smartfarmer/internal/logger"
)

// 支付网关事件类型
const (
	EventChargeSuccess = "charge.success"
)

// Event 支付网关回调事件
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Processor 单一事件类型的处理器
type Processor interface {
	Process(ctx context.Context, evt *Event) error
}

// Dispatcher 按事件类型分发到处理器
type Dispatcher struct {
	mu         sync.RWMutex
	processors map[string]Processor
}

// NewDispatcher 创建事件分发器
func NewDispatcher() *Dispatcher {
	return &Dispatcher{processors: make(map[string]Processor)}
}

// Register 注册处理器，同类型重复注册时覆盖
func (d *Dispatcher) Register(eventType string, p Processor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processors[eventType] = p
}

// Dispatch 分发事件，未注册的类型记录日志后直接确认
func (d *Dispatcher) Dispatch(ctx context.Context, evt *Event) error {
	d.mu.RLock()
	p, ok := d.processors[evt.Event]
	d.mu.RUnlock()

	if !ok {
		logger.Info("Ignoring unhandled payment event: %s", evt.Event)
		return nil
	}

	if err := p.Process(ctx, evt); err != nil {
		return fmt.Errorf("process %s event: %w", evt.Event, err)
	}
	return nil
}
