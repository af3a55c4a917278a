// Package pixgateway wraps the PIX payment provider with centralized
// logging, timeouts, redaction, and error mapping. Without credentials the
// client runs in offline mode and mints deterministic local charges.
package pixgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/massanostra/pizzeria-backend/pkg/config"
	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
)

var errLoggerRequired = errors.New("pix gateway logger is required")

// Charge is the provider-side representation of a PIX payment attempt.
type Charge struct {
	ProviderPaymentID string
	Status            string
	QRCode            string
	QRCodeBase64      string
	ExpiresAt         time.Time
}

// ChargeParams carries everything needed to open a PIX charge.
type ChargeParams struct {
	OrderNumber string
	Amount      decimal.Decimal
	Description string
	PayerEmail  string
}

// Client talks to the PIX provider REST API.
type Client struct {
	cfg        config.PixConfig
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient initializes the PIX wrapper and validates the configuration.
func NewClient(ctx context.Context, cfg config.PixConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logg,
	}
	if cfg.Offline() {
		logg.Warn(ctx, "pix gateway running in offline mode")
	} else {
		logg.Info(ctx, "pix gateway client initialized")
	}
	return c, nil
}

// Offline reports whether charges are fabricated locally.
func (c *Client) Offline() bool {
	return c == nil || c.cfg.Offline()
}

// SigningSecret returns the webhook HMAC secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.cfg.WebhookSecret
}

// CreateCharge opens a PIX charge for the given order.
func (c *Client) CreateCharge(ctx context.Context, params ChargeParams) (*Charge, error) {
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	c.log(ctx, "request", "create_charge", map[string]any{
		"order_number": params.OrderNumber,
		"amount":       params.Amount.StringFixed(2),
		"payer_email":  params.PayerEmail,
	})

	if c.Offline() {
		charge := c.offlineCharge(params)
		c.log(ctx, "response", "create_charge", map[string]any{
			"payment_id": charge.ProviderPaymentID,
			"status":     charge.Status,
			"offline":    true,
		})
		return charge, nil
	}

	expiry := time.Now().Add(time.Duration(c.cfg.ExpiryMinutes) * time.Minute)
	amount, _ := params.Amount.Round(2).Float64()
	body := map[string]any{
		"transaction_amount": amount,
		"description":        params.Description,
		"payment_method_id":  "pix",
		"external_reference": params.OrderNumber,
		"date_of_expiration": expiry.Format("2006-01-02T15:04:05.000-07:00"),
		"payer":              map[string]any{"email": params.PayerEmail},
	}
	if c.cfg.NotificationURL != "" {
		body["notification_url"] = c.cfg.NotificationURL
	}

	var resp providerPaymentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/payments", body, &resp); err != nil {
		c.log(ctx, "error", "create_charge", map[string]any{"error": err.Error()})
		return nil, err
	}

	charge := resp.toCharge(expiry)
	if charge.QRCodeBase64 == "" {
		charge.QRCodeBase64 = RenderQRCodeBase64(charge.QRCode)
	}
	c.log(ctx, "response", "create_charge", map[string]any{
		"payment_id": charge.ProviderPaymentID,
		"status":     charge.Status,
	})
	return charge, nil
}

// GetCharge fetches the current provider state of a charge.
func (c *Client) GetCharge(ctx context.Context, providerPaymentID string) (*Charge, error) {
	if strings.TrimSpace(providerPaymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider payment id is required")
	}
	c.log(ctx, "request", "get_charge", map[string]any{"payment_id": providerPaymentID})

	if c.Offline() {
		// offline charges never change state on the provider side
		return &Charge{ProviderPaymentID: providerPaymentID, Status: "pending"}, nil
	}

	var resp providerPaymentResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/payments/"+providerPaymentID, nil, &resp); err != nil {
		c.log(ctx, "error", "get_charge", map[string]any{"error": err.Error()})
		return nil, err
	}

	charge := resp.toCharge(time.Time{})
	c.log(ctx, "response", "get_charge", map[string]any{
		"payment_id": charge.ProviderPaymentID,
		"status":     charge.Status,
	})
	return charge, nil
}

func (c *Client) offlineCharge(params ChargeParams) *Charge {
	brCode := BuildBRCode(BRCodeParams{
		ReceiverKey:  c.cfg.ReceiverKey,
		MerchantName: c.cfg.MerchantName,
		MerchantCity: c.cfg.MerchantCity,
		Amount:       params.Amount,
		Reference:    params.OrderNumber,
	})
	return &Charge{
		ProviderPaymentID: fmt.Sprintf("offline-%s", uuid.NewString()),
		Status:            "pending",
		QRCode:            brCode,
		QRCodeBase64:      RenderQRCodeBase64(brCode),
		ExpiresAt:         time.Now().Add(time.Duration(c.cfg.ExpiryMinutes) * time.Minute),
	}
}

type providerPaymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

func (r providerPaymentResponse) toCharge(expiry time.Time) *Charge {
	charge := &Charge{
		ProviderPaymentID: r.ID.String(),
		Status:            r.Status,
		QRCode:            r.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64:      r.PointOfInteraction.TransactionData.QRCodeBase64,
	}
	if !expiry.IsZero() {
		charge.ExpiresAt = expiry
	}
	return charge
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding pix request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building pix request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost {
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling pix provider")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading pix response")
	}

	if resp.StatusCode >= 400 {
		return pkgerrors.New(domainCodeForStatus(resp.StatusCode), "pix provider returned an error").
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding pix response")
		}
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("pix %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("pix %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "phone", "document"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
