package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RegisterBuiltins wires the handlers the portal ships with.
func RegisterBuiltins(d *Dispatcher) {
	validate := validator.New()
	d.Register("example", ExampleHandler(validate))
	d.Register("timeoff.sync", TimeoffSyncHandler(validate))
}

// examplePayload is the data shape of the "example" message.
type examplePayload struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// ExampleHandler handles the automation platform's connectivity check.
func ExampleHandler(validate *validator.Validate) Handler {
	return func(_ context.Context, data json.RawMessage) Result {
		var payload examplePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return Result{Success: false, Message: "Invalid example payload: not an object"}
		}
		if err := validate.Struct(payload); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("Invalid example payload: %v", err)}
		}
		return Result{
			Success: true,
			Message: "Example webhook processed successfully",
			Data: map[string]string{
				"processedId":   payload.ID,
				"processedName": payload.Name,
			},
		}
	}
}

// timeoffSyncPayload is the data shape of the "timeoff.sync" message.
type timeoffSyncPayload struct {
	RequestID string `json:"requestId" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=pending approved rejected cancelled"`
}

// TimeoffSyncHandler acknowledges a timeoff status change pushed from the
// automation platform. The dashboard reads live from Base, so there is
// nothing to persist; the acknowledgment lets the flow assert delivery.
func TimeoffSyncHandler(validate *validator.Validate) Handler {
	return func(_ context.Context, data json.RawMessage) Result {
		var payload timeoffSyncPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return Result{Success: false, Message: "Invalid timeoff.sync payload: not an object"}
		}
		if err := validate.Struct(payload); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("Invalid timeoff.sync payload: %v", err)}
		}
		return Result{
			Success: true,
			Message: "Timeoff sync acknowledged",
			Data: map[string]string{
				"requestId": payload.RequestID,
				"status":    payload.Status,
			},
		}
	}
}
