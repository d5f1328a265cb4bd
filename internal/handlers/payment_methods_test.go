package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rentshop/internal/models"
	"rentshop/internal/store"
)

func TestListPaymentMethodsActiveOnly(t *testing.T) {
	var gotActiveOnly bool
	h := newTestHandler(handlerDeps{methods: stubMethods{
		listFn: func(_ context.Context, activeOnly bool) ([]models.PaymentMethod, error) {
			gotActiveOnly = activeOnly
			return []models.PaymentMethod{{ID: "pm-1", Name: "Card transfer", IsActive: true, MinAmount: 1050}}, nil
		},
	}})
	req := httptest.NewRequest(http.MethodGet, "/payment-methods", nil)
	rec := httptest.NewRecorder()
	h.ListPaymentMethods(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !gotActiveOnly {
		t.Fatalf("customer listing must only show active methods")
	}
	if !strings.Contains(rec.Body.String(), `"10.50"`) {
		t.Fatalf("expected formatted min amount, got: %s", rec.Body.String())
	}
}

func TestStaffListPaymentMethodsIncludesInactive(t *testing.T) {
	var gotActiveOnly = true
	h := newTestHandler(handlerDeps{methods: stubMethods{
		listFn: func(_ context.Context, activeOnly bool) ([]models.PaymentMethod, error) {
			gotActiveOnly = activeOnly
			return nil, nil
		},
	}})
	req := authedRequest(httptest.NewRequest(http.MethodGet, "/staff/payment-methods", nil), "staff-1")
	rec := httptest.NewRecorder()
	h.StaffListPaymentMethods(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotActiveOnly {
		t.Fatalf("staff listing must include inactive methods")
	}
}

func TestCreatePaymentMethodParsesMinAmount(t *testing.T) {
	var gotInput store.PaymentMethodInput
	var audited bool
	h := newTestHandler(handlerDeps{
		methods: stubMethods{
			createFn: func(_ context.Context, _ store.Execer, input store.PaymentMethodInput) error {
				gotInput = input
				return nil
			},
		},
		audit: stubAudit{
			logFn: func(_ context.Context, _ store.Execer, _, action, _, _, _ string) error {
				audited = action == "create_payment_method"
				return nil
			},
		},
	})
	body := `{"name":"Card transfer","instruction_text":"Send to 1234","is_active":true,"min_amount":"10.50"}`
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/staff/payment-methods", strings.NewReader(body)), "staff-1")
	rec := httptest.NewRecorder()
	h.CreatePaymentMethod(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotInput.MinAmount != 1050 || !gotInput.IsActive {
		t.Fatalf("unexpected input: %#v", gotInput)
	}
	if gotInput.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !audited {
		t.Fatalf("expected a create_payment_method audit entry")
	}
}

func TestCreatePaymentMethodRequiresName(t *testing.T) {
	h := newTestHandler(handlerDeps{})
	body := `{"min_amount":"5"}`
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/staff/payment-methods", strings.NewReader(body)), "staff-1")
	rec := httptest.NewRecorder()
	h.CreatePaymentMethod(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreatePaymentMethodRejectsBadMinAmount(t *testing.T) {
	h := newTestHandler(handlerDeps{})
	body := `{"name":"Card transfer","min_amount":"1.234"}`
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/staff/payment-methods", strings.NewReader(body)), "staff-1")
	rec := httptest.NewRecorder()
	h.CreatePaymentMethod(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
