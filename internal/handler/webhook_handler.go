package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/blues/smartfarmer/internal/event"
	"github.com/blues/smartfarmer/internal/logger"
	"github.com/blues/smartfarmer/internal/logic"
	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// WebhookHandler 支付网关回调
type WebhookHandler struct {
	dispatcher *event.Dispatcher
	secret     string
}

func NewWebhookHandler(dispatcher *event.Dispatcher, secret string) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, secret: secret}
}

// HandlePayment 校验签名后分发事件
func (h *WebhookHandler) HandlePayment(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "unable to read body")
		return
	}

	if err := event.VerifySignature(h.secret, body, c.GetHeader(event.SignatureHeader)); err != nil {
		logger.Warn("Rejected payment webhook from %s: %v", c.ClientIP(), err)
		ErrorResponse(c, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var evt event.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid payload")
		return
	}

	err = h.dispatcher.Dispatch(c.Request.Context(), &evt)
	switch {
	case err == nil:
	case errors.Is(err, logic.ErrNotFound), errors.Is(err, logic.ErrValidation):
		// 重投也无法成功，确认后人工处理
		logger.Error("Payment event %s cannot be applied: %v", evt.Event, err)
	default:
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Event received", nil)
}
