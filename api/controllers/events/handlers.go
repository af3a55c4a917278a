package events

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/massanostra/pizzeria-backend/api/middleware"
	"github.com/massanostra/pizzeria-backend/api/responses"
	"github.com/massanostra/pizzeria-backend/internal/notify"
	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
)

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}

func stream(w http.ResponseWriter, r *http.Request, logg *logger.Logger, events <-chan notify.Event, cancel func()) {
	defer cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		responses.WriteError(r.Context(), logg, w,
			pkgerrors.New(pkgerrors.CodeInternal, "streaming not supported"))
		return
	}

	setStreamHeaders(w)
	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "event", event.Name), "drop unserializable event")
				}
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// CustomerStream pushes the authenticated customer's order events over SSE.
func CustomerStream(hub *notify.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event hub unavailable"))
			return
		}

		customerID := middleware.CustomerIDFromContext(r.Context())
		if customerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity required"))
			return
		}

		events, cancel := hub.Subscribe(customerID.String())
		stream(w, r, logg, events, cancel)
	}
}

// AdminStream pushes every order event to the staff dashboard.
func AdminStream(hub *notify.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event hub unavailable"))
			return
		}

		events, cancel := hub.SubscribeAdmin()
		stream(w, r, logg, events, cancel)
	}
}
