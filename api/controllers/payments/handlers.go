package payments

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/massanostra/pizzeria-backend/api/middleware"
	"github.com/massanostra/pizzeria-backend/api/responses"
	"github.com/massanostra/pizzeria-backend/api/validators"
	internalpayments "github.com/massanostra/pizzeria-backend/internal/payments"
	"github.com/massanostra/pizzeria-backend/pkg/db/models"
	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
)

type generatePixRequest struct {
	OrderID     int64  `json:"order_id" validate:"required,min=1"`
	AmountCents int64  `json:"amount_cents" validate:"omitempty,min=1"`
	PayerEmail  string `json:"payer_email" validate:"omitempty,email"`
}

type paymentView struct {
	ID                uuid.UUID  `json:"id"`
	OrderID           int64      `json:"order_id"`
	ProviderPaymentID string     `json:"provider_payment_id"`
	Status            string     `json:"status"`
	Amount            string     `json:"amount"`
	PixCode           string     `json:"pix_code,omitempty"`
	PixQRBase64       string     `json:"pix_qr_base64,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func newPaymentView(payment *models.Payment) paymentView {
	return paymentView{
		ID:                payment.ID,
		OrderID:           payment.OrderID,
		ProviderPaymentID: payment.ProviderPaymentID,
		Status:            payment.Status.String(),
		Amount:            payment.Amount.StringFixed(2),
		PixCode:           payment.QRCode,
		PixQRBase64:       payment.QRCodeBase64,
		ExpiresAt:         payment.ExpiresAt,
		ApprovedAt:        payment.ApprovedAt,
		CreatedAt:         payment.CreatedAt,
	}
}

// GeneratePix opens (or returns the still-usable existing) PIX charge for
// one of the customer's pending orders.
func GeneratePix(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload generatePixRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.GeneratePixCharge(r.Context(), internalpayments.GeneratePixInput{
			OrderID:     payload.OrderID,
			CustomerID:  middleware.CustomerIDFromContext(r.Context()),
			AmountCents: payload.AmountCents,
			PayerEmail:  payload.PayerEmail,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPaymentView(payment))
	}
}

// Detail is the polling fallback for clients that missed the realtime
// approval event.
func Detail(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "paymentId"))
		paymentID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "payment id must be a uuid"))
			return
		}

		payment, err := svc.GetPayment(r.Context(), paymentID, middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentView(payment))
	}
}
