package pixgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/massanostra/pizzeria-backend/pkg/config"
	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "pixgateway-test"})
}

func TestNewClientRequiresLogger(t *testing.T) {
	_, err := NewClient(context.Background(), config.PixConfig{}, nil)
	require.Error(t, err)
}

func TestOfflineCreateCharge(t *testing.T) {
	cfg := config.PixConfig{
		ExpiryMinutes: 30,
		ReceiverKey:   "pagamentos@massanostra.com.br",
		MerchantName:  "MASSA NOSTRA PIZZERIA",
		MerchantCity:  "SAO PAULO",
	}
	client, err := NewClient(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	require.True(t, client.Offline())

	charge, err := client.CreateCharge(context.Background(), ChargeParams{
		OrderNumber: "ORD-20260831-000042",
		Amount:      decimal.RequireFromString("57.50"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(charge.ProviderPaymentID, "offline-"))
	assert.Equal(t, "pending", charge.Status)
	assert.Contains(t, charge.QRCode, "br.gov.bcb.pix")
	assert.Contains(t, charge.QRCode, "57.50")
	assert.NotEmpty(t, charge.QRCodeBase64)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), charge.ExpiresAt, time.Minute)
}

func TestCreateChargeRejectsNonPositiveAmount(t *testing.T) {
	client, err := NewClient(context.Background(), config.PixConfig{}, testLogger())
	require.NoError(t, err)

	_, err = client.CreateCharge(context.Background(), ChargeParams{Amount: decimal.Zero})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateChargeOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pix", body["payment_method_id"])
		assert.Equal(t, "ORD-20260831-000007", body["external_reference"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 123456789,
			"status": "pending",
			"point_of_interaction": {
				"transaction_data": {"qr_code": "pix-copy-paste", "qr_code_base64": "aW1n"}
			}
		}`))
	}))
	defer srv.Close()

	cfg := config.PixConfig{
		BaseURL:       srv.URL,
		AccessToken:   "test-token",
		Timeout:       2 * time.Second,
		ExpiryMinutes: 30,
	}
	client, err := NewClient(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	require.False(t, client.Offline())

	charge, err := client.CreateCharge(context.Background(), ChargeParams{
		OrderNumber: "ORD-20260831-000007",
		Amount:      decimal.RequireFromString("42.00"),
		PayerEmail:  "cliente@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "123456789", charge.ProviderPaymentID)
	assert.Equal(t, "pending", charge.Status)
	assert.Equal(t, "pix-copy-paste", charge.QRCode)
	assert.Equal(t, "aW1n", charge.QRCodeBase64)
}

func TestGetChargeMapsProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := config.PixConfig{BaseURL: srv.URL, AccessToken: "test-token", Timeout: 2 * time.Second}
	client, err := NewClient(context.Background(), cfg, testLogger())
	require.NoError(t, err)

	_, err = client.GetCharge(context.Background(), "missing-id")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestBuildBRCodeDeterministic(t *testing.T) {
	params := BRCodeParams{
		ReceiverKey:  "pagamentos@massanostra.com.br",
		MerchantName: "MASSA NOSTRA PIZZERIA",
		MerchantCity: "SAO PAULO",
		Amount:       decimal.RequireFromString("10.00"),
		Reference:    "ORD-20260831-000001",
	}
	first := BuildBRCode(params)
	second := BuildBRCode(params)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "000201"))
	assert.Contains(t, first, "5802BR")
	// the last four characters are the CRC in upper hex
	crc := first[len(first)-4:]
	assert.Regexp(t, "^[0-9A-F]{4}$", crc)
}

func TestValidateSignature(t *testing.T) {
	payload := `{"data":{"id":"123"}}`
	assert.True(t, ValidateSignature("", payload, "anything"))
	assert.False(t, ValidateSignature("secret", payload, ""))
	assert.False(t, ValidateSignature("secret", payload, "deadbeef"))

	valid := signFor(t, "secret", payload)
	assert.True(t, ValidateSignature("secret", payload, valid))
	assert.True(t, ValidateSignature("secret", payload, "sha256="+valid))
}

func TestRenderQRCodeBase64Fallback(t *testing.T) {
	assert.Equal(t, placeholderQRBase64, RenderQRCodeBase64(""))
	assert.NotEqual(t, placeholderQRBase64, RenderQRCodeBase64("payload"))
}
