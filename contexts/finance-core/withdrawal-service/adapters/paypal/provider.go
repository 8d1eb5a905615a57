package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"testquest/contexts/finance-core/withdrawal-service/ports"
)

// Provider sends payouts through the PayPal Payouts REST API. The caller's
// context bounds each call; the embedded client timeout is a backstop.
type Provider struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewProvider(baseURL string, clientID string, clientSecret string, timeout time.Duration, logger *slog.Logger) *Provider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type payoutRequest struct {
	SenderBatchHeader struct {
		SenderBatchID string `json:"sender_batch_id"`
		EmailSubject  string `json:"email_subject"`
	} `json:"sender_batch_header"`
	Items []payoutItem `json:"items"`
}

type payoutItem struct {
	RecipientType string      `json:"recipient_type"`
	Amount        payoutMoney `json:"amount"`
	Receiver      string      `json:"receiver"`
	Note          string      `json:"note,omitempty"`
	SenderItemID  string      `json:"sender_item_id"`
}

type payoutMoney struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type payoutResponse struct {
	BatchHeader struct {
		PayoutBatchID string `json:"payout_batch_id"`
		BatchStatus   string `json:"batch_status"`
	} `json:"batch_header"`
}

func (p *Provider) SendPayout(ctx context.Context, payout ports.Payout) (ports.PayoutReceipt, error) {
	body := payoutRequest{Items: []payoutItem{{
		RecipientType: "EMAIL",
		Amount: payoutMoney{
			Value:    fmt.Sprintf("%d.00", payout.Amount),
			Currency: "USD",
		},
		Receiver:     payout.Email,
		Note:         payout.Note,
		SenderItemID: payout.WithdrawalID,
	}}}
	body.SenderBatchHeader.SenderBatchID = payout.WithdrawalID
	body.SenderBatchHeader.EmailSubject = "You have a payout from TestQuest"

	raw, err := json.Marshal(body)
	if err != nil {
		return ports.PayoutReceipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/payments/payouts", bytes.NewReader(raw))
	if err != nil {
		return ports.PayoutReceipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(p.clientID, p.clientSecret)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ports.PayoutReceipt{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.logger.Error("payout request rejected",
			"event", "paypal_payout_rejected",
			"module", "finance-core/withdrawal-service",
			"layer", "adapter",
			"withdrawal_id", payout.WithdrawalID,
			"status_code", resp.StatusCode,
		)
		return ports.PayoutReceipt{}, fmt.Errorf("payout provider returned %d: %s", resp.StatusCode, string(detail))
	}

	var parsed payoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ports.PayoutReceipt{}, err
	}

	p.logger.Info("payout submitted",
		"event", "paypal_payout_submitted",
		"module", "finance-core/withdrawal-service",
		"layer", "adapter",
		"withdrawal_id", payout.WithdrawalID,
		"payout_batch_id", parsed.BatchHeader.PayoutBatchID,
		"batch_status", parsed.BatchHeader.BatchStatus,
	)
	return ports.PayoutReceipt{ProviderReference: parsed.BatchHeader.PayoutBatchID}, nil
}
