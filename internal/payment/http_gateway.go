package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nikolayk812/wardrobe/internal/domain"
	"github.com/nikolayk812/wardrobe/internal/port"
	"github.com/shopspring/decimal"
)

// HTTPGateway talks JSON to the payment provider's REST API.
type HTTPGateway struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) (*HTTPGateway, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is empty")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("url.Parse[%s]: %w", baseURL, err)
	}

	return &HTTPGateway{
		baseURL: parsed,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

var _ port.PaymentGateway = (*HTTPGateway)(nil)

type chargeRequest struct {
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Method    string          `json:"method"`
	Token     string          `json:"token,omitempty"`
	PayerID   string          `json:"payer_id,omitempty"`
}

type chargeResponse struct {
	Success        bool            `json:"success"`
	PaymentID      string          `json:"payment_id"`
	Status         string          `json:"status"`
	TransactionFee decimal.Decimal `json:"transaction_fee"`
	Message        string          `json:"message,omitempty"`
}

type refundRequest struct {
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reason    string          `json:"reason,omitempty"`
}

type refundResponse struct {
	Success  bool            `json:"success"`
	RefundID string          `json:"refund_id"`
	Amount   decimal.Decimal `json:"amount"`
	Status   string          `json:"status"`
}

func (g *HTTPGateway) ProcessPayment(ctx context.Context, details domain.PaymentDetails) (domain.PaymentResult, error) {
	req := chargeRequest{
		Reference: details.TransactionID.String(),
		Amount:    details.Amount.Amount,
		Currency:  details.Amount.Currency.String(),
		Method:    details.Method,
		Token:     details.Token,
		PayerID:   details.PayerID,
	}

	var resp chargeResponse
	if err := g.post(ctx, "/payments", req, &resp); err != nil {
		return domain.PaymentResult{}, fmt.Errorf("g.post[payments]: %w", err)
	}

	return domain.PaymentResult{
		Success:        resp.Success,
		PaymentID:      resp.PaymentID,
		Status:         resp.Status,
		TransactionFee: resp.TransactionFee,
		Message:        resp.Message,
	}, nil
}

func (g *HTTPGateway) RefundPayment(ctx context.Context, ref domain.RefundRequest) (domain.RefundResult, error) {
	if ref.PaymentID == "" {
		return domain.RefundResult{}, fmt.Errorf("paymentID is empty")
	}

	req := refundRequest{
		Reference: ref.TransactionID.String(),
		Amount:    ref.Amount.Amount,
		Currency:  ref.Amount.Currency.String(),
		Reason:    ref.Reason,
	}

	var resp refundResponse
	if err := g.post(ctx, "/payments/"+url.PathEscape(ref.PaymentID)+"/refund", req, &resp); err != nil {
		return domain.RefundResult{}, fmt.Errorf("g.post[refund]: %w", err)
	}

	return domain.RefundResult{
		Success:  resp.Success,
		RefundID: resp.RefundID,
		Amount:   resp.Amount,
		Status:   resp.Status,
	}, nil
}

// post treats 2xx and 402 (declined) as answers; anything else is an upstream failure.
func (g *HTTPGateway) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	endpoint := g.baseURL.JoinPath(path)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", domain.ErrUpstream, err)
	}

	if httpResp.StatusCode/100 != 2 && httpResp.StatusCode != http.StatusPaymentRequired {
		return fmt.Errorf("%w: provider returned %d", domain.ErrUpstream, httpResp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: json.Unmarshal: %w", domain.ErrUpstream, err)
	}

	return nil
}
