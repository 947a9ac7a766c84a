// Package webhook implements the inbound endpoint for the automation
// platform: payloads tagged with a messageType field are routed to
// independently registered handlers. Handler outcomes distinguish the
// caller's fault (400) from ours (500).
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/zensoft-hr/basegate/log"
)

// Result is the uniform handler outcome, also serialized as the HTTP
// response body.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Handler processes one message type. It receives the envelope's data
// field and validates its own payload shape.
type Handler func(ctx context.Context, data json.RawMessage) Result

// envelope is the minimal shape every inbound payload must satisfy.
type envelope struct {
	MessageType string          `json:"messageType"`
	Data        json.RawMessage `json:"data"`
}

// Dispatcher routes payloads to handlers by their messageType tag.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   log.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger log.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register binds a handler to a message type, replacing any previous one.
func (d *Dispatcher) Register(messageType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[messageType] = h
}

// Dispatch validates the envelope, looks up the handler, and invokes it.
// The returned status is the HTTP status the caller should respond with:
// 200 for handled success, 400 for anything that is the sender's fault
// (malformed body, missing or unknown tag, handler-reported failure).
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) (Result, int) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Result{Success: false, Message: "Invalid JSON payload"}, http.StatusBadRequest
	}
	if env.MessageType == "" {
		return Result{Success: false, Message: "Missing or empty messageType field"}, http.StatusBadRequest
	}

	d.mu.RLock()
	handler, ok := d.handlers[env.MessageType]
	d.mu.RUnlock()
	if !ok {
		return Result{
			Success: false,
			Message: fmt.Sprintf("No handler registered for messageType: %s", env.MessageType),
		}, http.StatusBadRequest
	}

	result := handler(ctx, env.Data)
	if !result.Success {
		d.logger.Warn(ctx, "webhook handler rejected payload", map[string]any{
			"message_type": env.MessageType,
			"message":      result.Message,
		})
		return result, http.StatusBadRequest
	}

	d.logger.Info(ctx, "webhook processed", map[string]any{"message_type": env.MessageType})
	return result, http.StatusOK
}
