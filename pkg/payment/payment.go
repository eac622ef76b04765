package payment

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

type IntentRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Receipt     string // our transaction uuid, echoed back by the gateway
	Description string
	Notes       map[string]string
}

type Intent struct {
	ID     string
	Status string
}

// Outcome is the gateway's answer to a confirm call. Declined is reported via
// Succeeded=false with a FailureReason, not as a Go error; transport failures
// are returned as errors.
type Outcome struct {
	Succeeded            bool
	GatewayTransactionID string
	FailureReason        string
	Raw                  json.RawMessage
}

type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ConfirmIntent(ctx context.Context, intentID, paymentMethodID string) (*Outcome, error)
}
