package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/massanostra/pizzeria-backend/api/responses"
	pkgerrors "github.com/massanostra/pizzeria-backend/pkg/errors"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
)

// Authentication happens upstream; the gateway forwards the verified
// identity in these headers.
const (
	customerIDHeader = "X-Customer-Id"
	staffIDHeader    = "X-Staff-Id"
)

// Identity lifts the trusted identity headers into the request context and
// tags the logger with them. It does not reject anonymous requests; the
// route-level guards below do that.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw := r.Header.Get(customerIDHeader); raw != "" {
				customerID, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(ctx, logg, w,
						pkgerrors.New(pkgerrors.CodeUnauthorized, "malformed customer identity"))
					return
				}
				ctx = WithCustomerID(ctx, customerID)
				if logg != nil {
					ctx = logg.WithCustomerID(ctx, customerID.String())
				}
			}

			if staffID := r.Header.Get(staffIDHeader); staffID != "" {
				ctx = WithStaffID(ctx, staffID)
				if logg != nil {
					ctx = logg.WithActorRole(ctx, "staff")
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCustomer rejects requests without a customer identity.
func RequireCustomer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CustomerIDFromContext(r.Context()) == uuid.Nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff rejects requests without a staff identity.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if StaffIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeForbidden, "staff identity required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
