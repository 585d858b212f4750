package g2apay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ecomkit/g2apay-gateway/internal/domain/order"
	"github.com/ecomkit/g2apay-gateway/internal/domain/settings"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const testStoreURL = "https://shop.example.com/"

func checkoutOrder() *order.Order {
	return &order.Order{
		ID:            7,
		Guid:          uuid.MustParse("a77b9aca-7243-4f2b-aebb-57efc3d49fc0"),
		OrderTotal:    decimal.RequireFromString("30.00"),
		CurrencyCode:  "USD",
		PaymentStatus: order.PaymentStatusPending,
		Items: []order.Item{
			{ID: 1, Sku: "SKU-1", Name: "Widget", UnitPrice: decimal.RequireFromString("12.50"), Quantity: 2, Amount: decimal.RequireFromString("25.00"), Url: "widget"},
		},
	}
}

func newTestInitiator(serverURL string, cfg settings.PaymentSettings) *Initiator {
	client := NewClient(ClientOptions{CheckoutURL: serverURL, RestURL: serverURL}, logger.Noop())
	return NewInitiator(client, staticSettings{cfg: cfg}, testStoreURL, logger.Noop())
}

func TestInitiator_InitiateRedirectsToGateway(t *testing.T) {
	cfg := settings.PaymentSettings{
		APIHash:       "api-hash",
		SecretKey:     "secret",
		MerchantEmail: "merchant@example.com",
	}

	var received *http.Request
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		form = map[string]string{}
		for key := range r.PostForm {
			form[key] = r.PostForm.Get(key)
		}
		json.NewEncoder(w).Encode(QuoteResponse{Status: "OK", Token: "tok-123", TransactionID: "TX9"})
	}))
	defer srv.Close()

	o := checkoutOrder()
	initiator := newTestInitiator(srv.URL, cfg)

	got := initiator.Initiate(context.Background(), o)

	want := srv.URL + "/index/gateway?token=tok-123"
	if got != want {
		t.Errorf("Initiate() = %s, want %s", got, want)
	}

	if received.URL.Path != "/index/createQuote" {
		t.Errorf("request path = %s, want /index/createQuote", received.URL.Path)
	}
	if auth := received.Header.Get("Authorization"); auth != AuthHeader(cfg) {
		t.Errorf("Authorization = %s, want %s", auth, AuthHeader(cfg))
	}

	if form["api_hash"] != "api-hash" {
		t.Errorf("api_hash = %s", form["api_hash"])
	}
	if form["order_id"] != o.Guid.String() {
		t.Errorf("order_id = %s, want %s", form["order_id"], o.Guid)
	}
	if form["amount"] != "30.00" {
		t.Errorf("amount = %s, want 30.00", form["amount"])
	}
	if form["currency"] != "USD" {
		t.Errorf("currency = %s, want USD", form["currency"])
	}
	if form["description"] != "Order #7" {
		t.Errorf("description = %s", form["description"])
	}
	if form["url_ok"] != testStoreURL+"checkout/completed/7" {
		t.Errorf("url_ok = %s", form["url_ok"])
	}
	if form["url_failure"] != testStoreURL+"orderdetails/7" {
		t.Errorf("url_failure = %s", form["url_failure"])
	}
	if want := CheckoutHash(o.Guid, o.OrderTotal, "USD", "secret"); form["hash"] != want {
		t.Errorf("hash = %s, want %s", form["hash"], want)
	}

	var items []QuoteItem
	if err := json.Unmarshal([]byte(form["items"]), &items); err != nil {
		t.Fatalf("items is not valid JSON: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want order line plus adjustment", len(items))
	}
	adjustment := items[1]
	if adjustment.Sku != "spec_item" {
		t.Errorf("adjustment sku = %s, want spec_item", adjustment.Sku)
	}
	// 30.00 total minus 25.00 itemized.
	if adjustment.Amount != "5.00" || adjustment.Price != "5.00" {
		t.Errorf("adjustment amount/price = %s/%s, want 5.00", adjustment.Amount, adjustment.Price)
	}
	if adjustment.Quantity != 1 {
		t.Errorf("adjustment qty = %d, want 1", adjustment.Quantity)
	}
}

func TestInitiator_NoAdjustmentWhenItemsCoverTotal(t *testing.T) {
	o := checkoutOrder()
	o.OrderTotal = decimal.RequireFromString("25.00")

	initiator := newTestInitiator("http://unused.invalid", settings.PaymentSettings{SecretKey: "secret"})
	items := initiator.buildItems(o)

	if len(items) != 1 {
		t.Errorf("items = %d, want 1 (no adjustment line)", len(items))
	}
}

func TestInitiator_NegativeAdjustmentForDiscount(t *testing.T) {
	o := checkoutOrder()
	o.OrderTotal = decimal.RequireFromString("20.00")

	initiator := newTestInitiator("http://unused.invalid", settings.PaymentSettings{SecretKey: "secret"})
	items := initiator.buildItems(o)

	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[1].Amount != "-5.00" {
		t.Errorf("discount adjustment = %s, want -5.00", items[1].Amount)
	}
}

func TestInitiator_FailureRedirectsHome(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "processor rejects the quote",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(QuoteResponse{Status: "error"})
			},
		},
		{
			name: "malformed response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			initiator := newTestInitiator(srv.URL, settings.PaymentSettings{SecretKey: "secret"})

			if got := initiator.Initiate(context.Background(), checkoutOrder()); got != testStoreURL {
				t.Errorf("Initiate() = %s, want store home %s", got, testStoreURL)
			}
		})
	}
}

func TestInitiator_NetworkErrorRedirectsHome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	initiator := newTestInitiator(srv.URL, settings.PaymentSettings{SecretKey: "secret"})

	if got := initiator.Initiate(context.Background(), checkoutOrder()); got != testStoreURL {
		t.Errorf("Initiate() = %s, want store home %s", got, testStoreURL)
	}
}

func TestAdditionalHandlingFee(t *testing.T) {
	tests := []struct {
		name       string
		fee        string
		percentage bool
		cartTotal  string
		want       string
	}{
		{"fixed fee", "2.50", false, "100.00", "2.50"},
		{"percentage fee", "10", true, "25.00", "2.50"},
		{"percentage rounds to 2dp", "3", true, "9.99", "0.30"},
		{"zero fee", "0", false, "100.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := settings.PaymentSettings{
				AdditionalFee:           decimal.RequireFromString(tt.fee),
				AdditionalFeePercentage: tt.percentage,
			}
			got := AdditionalHandlingFee(cfg, decimal.RequireFromString(tt.cartTotal))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("AdditionalHandlingFee() = %s, want %s", got, tt.want)
			}
		})
	}
}
