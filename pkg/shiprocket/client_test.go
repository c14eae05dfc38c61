package shiprocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridegearhq/ridegear-backend/pkg/config"
	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
	"github.com/ridegearhq/ridegear-backend/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), config.ShiprocketConfig{
		Email:          "ops@ridegear.in",
		Password:       "secret",
		BaseURL:        baseURL,
		PickupLocation: "Primary",
	}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return client
}

func testShipmentRequest() ShipmentRequest {
	return ShipmentRequest{
		OrderNumber:   "RG1700000000000001",
		OrderDate:     time.Date(2025, 4, 10, 9, 30, 0, 0, time.UTC),
		BuyerName:     "Asha Rao",
		BuyerEmail:    "asha@example.com",
		BuyerPhone:    "9876543210",
		AddressLine1:  "12 MG Road",
		City:          "Bengaluru",
		State:         "Karnataka",
		PostalCode:    "560001",
		Country:       "India",
		PaymentMethod: "prepaid",
		SubTotal:      decimal.NewFromInt(850),
		Items: []ShipmentItem{
			{Name: "Helmet", SKU: "HLM-1", Units: 1, UnitPrice: decimal.NewFromInt(850)},
		},
	}
}

func TestCreateShipmentLogsInAndPostsOrder(t *testing.T) {
	var logins atomic.Int32
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			logins.Add(1)
			var creds map[string]string
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				t.Errorf("decode login: %v", err)
			}
			if creds["email"] != "ops@ridegear.in" || creds["password"] != "secret" {
				t.Errorf("unexpected credentials %v", creds)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok123"})
		case "/orders/create/adhoc":
			if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
				t.Errorf("missing bearer token, got %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Errorf("decode shipment: %v", err)
			}
			_ = json.NewEncoder(w).Encode(ShipmentResponse{
				OrderID:     1001,
				ShipmentID:  2002,
				AWBCode:     "AWB777",
				CourierName: "Delhivery",
				Status:      "NEW",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	shipment, err := client.CreateShipment(context.Background(), testShipmentRequest())
	if err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}

	if shipment.AWBCode != "AWB777" || shipment.CourierName != "Delhivery" {
		t.Fatalf("unexpected shipment %+v", shipment)
	}
	if captured["order_id"] != "RG1700000000000001" {
		t.Fatalf("expected order number forwarded, got %v", captured["order_id"])
	}
	if captured["billing_customer_name"] != "Asha" || captured["billing_last_name"] != "Rao" {
		t.Fatalf("expected split buyer name, got %v / %v", captured["billing_customer_name"], captured["billing_last_name"])
	}
	if captured["payment_method"] != "PREPAID" {
		t.Fatalf("expected upper-cased payment method, got %v", captured["payment_method"])
	}
	if captured["pickup_location"] != "Primary" {
		t.Fatalf("expected configured pickup location, got %v", captured["pickup_location"])
	}

	// Second shipment reuses the cached token.
	if _, err := client.CreateShipment(context.Background(), testShipmentRequest()); err != nil {
		t.Fatalf("second shipment failed: %v", err)
	}
	if got := logins.Load(); got != 1 {
		t.Fatalf("expected a single login, got %d", got)
	}
}

func TestCreateShipmentRequiresItems(t *testing.T) {
	client := newTestClient(t, "https://unused.example")
	req := testShipmentRequest()
	req.Items = nil

	_, err := client.CreateShipment(context.Background(), req)
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateShipmentSurfacesLoginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateShipment(context.Background(), testShipmentRequest())

	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		full  string
		first string
		last  string
	}{
		{"Asha Rao", "Asha", "Rao"},
		{"Asha", "Asha", ""},
		{"  Asha  Kumari Rao ", "Asha", "Kumari Rao"},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, last := splitName(tc.full)
		if first != tc.first || last != tc.last {
			t.Fatalf("splitName(%q) = %q/%q, want %q/%q", tc.full, first, last, tc.first, tc.last)
		}
	}
}
