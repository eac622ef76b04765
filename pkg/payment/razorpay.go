package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// paiseFactor converts a decimal INR amount to the gateway's smallest unit.
var paiseFactor = decimal.NewFromInt(100)

// RazorpayGateway talks to the Razorpay REST API with basic auth.
type RazorpayGateway struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	client    *http.Client
}

func NewRazorpayGateway(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayGateway {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RazorpayGateway{
		BaseURL:   baseURL,
		KeyID:     keyID,
		KeySecret: keySecret,
		client:    &http.Client{Timeout: timeout},
	}
}

type razorpayOrderReq struct {
	Amount   int64             `json:"amount"` // smallest currency unit (paise)
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrderResp struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func (g *RazorpayGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	payload := razorpayOrderReq{
		Amount:   req.Amount.Mul(paiseFactor).IntPart(),
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	}
	var out razorpayOrderResp
	if err := g.post(ctx, "/v1/orders", payload, &out); err != nil {
		return nil, fmt.Errorf("razorpay order: %w", err)
	}
	return &Intent{ID: out.ID, Status: out.Status}, nil
}

type razorpayCaptureResp struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

func (g *RazorpayGateway) ConfirmIntent(ctx context.Context, intentID, paymentMethodID string) (*Outcome, error) {
	payload := map[string]string{"payment_method": paymentMethodID}
	raw, status, err := g.do(ctx, http.MethodPost, "/v1/payments/"+intentID+"/capture", payload)
	if err != nil {
		return nil, fmt.Errorf("razorpay capture: %w", err)
	}
	var out razorpayCaptureResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("razorpay capture: decode: %w", err)
	}
	if status != http.StatusOK || out.Status != "captured" {
		reason := out.ErrorDescription
		if reason == "" {
			reason = fmt.Sprintf("capture returned status %d", status)
		}
		return &Outcome{Succeeded: false, FailureReason: reason, Raw: raw}, nil
	}
	return &Outcome{Succeeded: true, GatewayTransactionID: out.ID, Raw: raw}, nil
}

func (g *RazorpayGateway) post(ctx context.Context, path string, payload, out interface{}) error {
	raw, status, err := g.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("status %d: %s", status, raw)
	}
	return json.Unmarshal(raw, out)
}

func (g *RazorpayGateway) do(ctx context.Context, method, path string, payload interface{}) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, method, g.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.KeyID, g.KeySecret)
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return raw, resp.StatusCode, nil
}
