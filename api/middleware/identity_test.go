package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func identityProbe(t *testing.T) (http.Handler, *uuid.UUID, *string) {
	t.Helper()
	var gotCustomer uuid.UUID
	var gotStaff string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCustomer = CustomerIDFromContext(r.Context())
		gotStaff = StaffIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return Identity(nil)(inner), &gotCustomer, &gotStaff
}

func TestIdentityLiftsHeaders(t *testing.T) {
	handler, gotCustomer, gotStaff := identityProbe(t)
	customerID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Customer-Id", customerID.String())
	req.Header.Set("X-Staff-Id", "staff-3")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if *gotCustomer != customerID {
		t.Fatalf("customer id not lifted: %s", *gotCustomer)
	}
	if *gotStaff != "staff-3" {
		t.Fatalf("staff id not lifted: %q", *gotStaff)
	}
}

func TestIdentityAllowsAnonymous(t *testing.T) {
	handler, gotCustomer, gotStaff := identityProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("anonymous request should pass identity middleware, got %d", resp.Code)
	}
	if *gotCustomer != uuid.Nil || *gotStaff != "" {
		t.Fatalf("expected empty identity, got %s / %q", *gotCustomer, *gotStaff)
	}
}

func TestIdentityRejectsMalformedCustomerID(t *testing.T) {
	handler, _, _ := identityProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Customer-Id", "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed id got %d", resp.Code)
	}
}

func TestRequireCustomer(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireCustomer(nil)(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without customer got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithCustomerID(req.Context(), uuid.New()))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with customer got %d", resp.Code)
	}
}

func TestRequireStaff(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireStaff(nil)(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithCustomerID(req.Context(), uuid.New()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer on staff route got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithStaffID(req.Context(), "staff-1"))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff got %d", resp.Code)
	}
}
