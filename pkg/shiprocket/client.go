package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridegearhq/ridegear-backend/pkg/config"
	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
	"github.com/ridegearhq/ridegear-backend/pkg/logger"
)

// Token lifetime published by the partner is 10 days; refresh well before.
const tokenTTL = 9 * 24 * time.Hour

var (
	errCredentialsRequired = errors.New("shiprocket email and password are required")
	errLoggerRequired      = errors.New("shiprocket logger is required")
)

// Client wraps the fulfillment partner's authentication and shipment APIs.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	email          string
	password       string
	pickupLocation string
	logger         *logger.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// ShipmentCreator is the surface the order workflow needs.
type ShipmentCreator interface {
	CreateShipment(ctx context.Context, req ShipmentRequest) (*ShipmentResponse, error)
}

// ShipmentItem is one order line mapped into the partner payload.
type ShipmentItem struct {
	Name      string
	SKU       string
	Units     int
	UnitPrice decimal.Decimal
}

// ShipmentRequest carries the order, buyer, and destination for a shipment.
type ShipmentRequest struct {
	OrderNumber   string
	OrderDate     time.Time
	BuyerName     string
	BuyerEmail    string
	BuyerPhone    string
	AddressLine1  string
	AddressLine2  string
	City          string
	State         string
	PostalCode    string
	Country       string
	PaymentMethod string
	SubTotal      decimal.Decimal
	Items         []ShipmentItem
}

// ShipmentResponse returns the partner identifiers and carrier assignment.
type ShipmentResponse struct {
	OrderID     int64  `json:"order_id"`
	ShipmentID  int64  `json:"shipment_id"`
	AWBCode     string `json:"awb_code"`
	CourierName string `json:"courier_name"`
	Status      string `json:"status"`
}

// NewClient initializes the fulfillment wrapper and validates credentials.
func NewClient(ctx context.Context, cfg config.ShiprocketConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	email := strings.TrimSpace(cfg.Email)
	password := strings.TrimSpace(cfg.Password)
	if email == "" || password == "" {
		return nil, errCredentialsRequired
	}

	c := &Client{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		email:          email,
		password:       password,
		pickupLocation: cfg.PickupLocation,
		logger:         logg,
	}
	logg.Info(ctx, "shiprocket client initialized")
	return c, nil
}

// CreateShipment authenticates (cached token), posts the shipment payload, and
// returns the carrier tracking assignment.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (*ShipmentResponse, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment requires at least one item")
	}

	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	firstName, lastName := splitName(req.BuyerName)
	items := make([]map[string]any, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, map[string]any{
			"name":          item.Name,
			"sku":           item.SKU,
			"units":         item.Units,
			"selling_price": item.UnitPrice.StringFixed(2),
		})
	}

	payload := map[string]any{
		"order_id":         req.OrderNumber,
		"order_date":       req.OrderDate.Format("2006-01-02 15:04"),
		"pickup_location":  c.pickupLocation,
		"billing_customer_name": firstName,
		"billing_last_name":     lastName,
		"billing_address":       req.AddressLine1,
		"billing_address_2":     req.AddressLine2,
		"billing_city":          req.City,
		"billing_state":         req.State,
		"billing_pincode":       req.PostalCode,
		"billing_country":       req.Country,
		"billing_email":         req.BuyerEmail,
		"billing_phone":         req.BuyerPhone,
		"shipping_is_billing":   true,
		"payment_method":        strings.ToUpper(req.PaymentMethod),
		"sub_total":             req.SubTotal.StringFixed(2),
		"order_items":           items,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode shipment request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders/create/adhoc", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build shipment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment").
			WithDetails(map[string]any{"step": "fulfillment_shipment_create"})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read shipment response")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipment creation failed").
			WithDetails(map[string]any{
				"step":   "fulfillment_shipment_create",
				"status": resp.StatusCode,
				"body":   string(raw),
			})
	}

	var shipment ShipmentResponse
	if err := json.Unmarshal(raw, &shipment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode shipment response")
	}

	c.logger.Info(c.logger.WithFields(ctx, map[string]any{
		"shipment_id": shipment.ShipmentID,
		"awb_code":    shipment.AWBCode,
	}), "shipment created")
	return &shipment, nil
}

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fulfillment login").
			WithDetails(map[string]any{"step": "fulfillment_auth"})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read login response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "fulfillment login failed").
			WithDetails(map[string]any{"step": "fulfillment_auth", "status": resp.StatusCode})
	}

	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &login); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode login response")
	}
	if login.Token == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "fulfillment login returned no token")
	}

	c.token = login.Token
	c.tokenExpiry = time.Now().Add(tokenTTL)
	return c.token, nil
}

// splitName breaks a full name on the first whitespace. The partner API
// demands first/last; buyers with a single name get an empty last name.
func splitName(full string) (string, string) {
	trimmed := strings.TrimSpace(full)
	if trimmed == "" {
		return "", ""
	}
	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
