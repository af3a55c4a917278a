package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/massanostra/pizzeria-backend/api/responses"
	providerwebhook "github.com/massanostra/pizzeria-backend/internal/webhooks/provider"
	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
)

const (
	signatureHeader = "X-Signature"
	requestIDHeader = "X-Request-Id"

	maxWebhookBody = 1 << 20
)

type PaymentWebhookService interface {
	Handle(ctx context.Context, input providerwebhook.Input) providerwebhook.Result
}

// PaymentProvider receives payment-status notifications. Whatever happens
// inside, the provider gets HTTP 200 with a structured result; a non-2xx
// answer would only trigger pointless redeliveries.
func PaymentProvider(svc PaymentWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "webhook body read failed")
			}
			body = nil
		}

		result := svc.Handle(ctx, providerwebhook.Input{
			Signature:   r.Header.Get(signatureHeader),
			RequestID:   r.Header.Get(requestIDHeader),
			DataIDQuery: r.URL.Query().Get("data.id"),
			Body:        body,
		})

		responses.WriteSuccess(w, result)
	}
}
