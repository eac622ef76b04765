package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// StubGateway approves everything; used in development when no Razorpay keys
// are configured, and in tests.
type StubGateway struct{}

func (s *StubGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	return &Intent{
		ID:     fmt.Sprintf("pi_stub_%d", time.Now().UnixNano()),
		Status: "created",
	}, nil
}

func (s *StubGateway) ConfirmIntent(ctx context.Context, intentID, paymentMethodID string) (*Outcome, error) {
	raw, _ := json.Marshal(map[string]string{
		"status":         "captured",
		"payment_method": paymentMethodID,
	})
	return &Outcome{
		Succeeded:            true,
		GatewayTransactionID: "txn_stub_" + intentID,
		Raw:                  raw,
	}, nil
}
