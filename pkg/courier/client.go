package courier

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/d2bmarket/d2b-backend/pkg/config"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
)

// Client talks to the courier aggregator. Calls are synchronous and bounded
// by the configured timeout; there are no retries here, callers retry.
type Client struct {
	http   *resty.Client
	email  string
	pass   string
	logger *logger.Logger

	mu    sync.Mutex
	token string
}

// NewClient validates the aggregator credentials and builds the HTTP client.
func NewClient(cfg config.CourierConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("courier base url is required")
	}
	if strings.TrimSpace(cfg.Email) == "" || strings.TrimSpace(cfg.Password) == "" {
		return nil, fmt.Errorf("courier credentials are required")
	}

	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.CallTimeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   http,
		email:  cfg.Email,
		pass:   cfg.Password,
		logger: logg,
	}, nil
}

// Authenticate exchanges the configured credentials for a bearer token. The
// token is cached for subsequent calls on this client.
func (c *Client) Authenticate(ctx context.Context) error {
	var out loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: c.email, Password: c.pass}).
		SetResult(&out).
		Post("/auth/login")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "courier login")
	}
	if resp.IsError() || out.Token == "" {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("courier login rejected: %s", resp.Status()))
	}

	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	return nil
}

func (c *Client) authedRequest(ctx context.Context) (*resty.Request, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "courier client not authenticated")
	}
	return c.http.R().SetContext(ctx).SetAuthToken(token), nil
}

// RegisterPickupLocation registers a warehouse and returns its code. An
// "already exists" response from the aggregator counts as success.
func (c *Client) RegisterPickupLocation(ctx context.Context, req PickupLocationRequest) (string, error) {
	r, err := c.authedRequest(ctx)
	if err != nil {
		return "", err
	}

	var out pickupLocationResponse
	resp, err := r.SetBody(req).SetResult(&out).SetError(&out).Post("/settings/company/addpickup")
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register pickup location")
	}
	if resp.IsError() {
		if strings.Contains(strings.ToLower(out.Message), "already exists") {
			return req.Nickname, nil
		}
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("register pickup location: %s", resp.Status()))
	}
	if out.Address.PickupCode != "" {
		return out.Address.PickupCode, nil
	}
	return req.Nickname, nil
}

// CreateShipment creates an adhoc order at the aggregator.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (*ShipmentResult, error) {
	r, err := c.authedRequest(ctx)
	if err != nil {
		return nil, err
	}

	var out ShipmentResult
	resp, err := r.SetBody(req).SetResult(&out).Post("/orders/create/adhoc")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment")
	}
	if resp.IsError() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("create shipment: %s", resp.Status()))
	}
	if out.ShipmentID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "create shipment: no shipment id returned")
	}
	return &out, nil
}

// AssignAWB requests a tracking code for the shipment, optionally pinning the
// courier. A response without an AWB is an error; the caller must retry later.
func (c *Client) AssignAWB(ctx context.Context, shipmentID string, courierID *int) (*AWBResult, error) {
	r, err := c.authedRequest(ctx)
	if err != nil {
		return nil, err
	}

	var out assignAWBResponse
	resp, err := r.SetBody(assignAWBRequest{ShipmentID: shipmentID, CourierID: courierID}).
		SetResult(&out).
		Post("/courier/assign/awb")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign awb")
	}
	if resp.IsError() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("assign awb: %s", resp.Status()))
	}
	if out.Response.Data.AWBCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assign awb: no awb returned")
	}
	return &out.Response.Data, nil
}

// SchedulePickup asks the aggregator to arrange courier pickup.
func (c *Client) SchedulePickup(ctx context.Context, shipmentID string) error {
	r, err := c.authedRequest(ctx)
	if err != nil {
		return err
	}

	resp, err := r.SetBody(schedulePickupRequest{ShipmentID: []string{shipmentID}}).
		Post("/courier/generate/pickup")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "schedule pickup")
	}
	if resp.IsError() {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("schedule pickup: %s", resp.Status()))
	}
	return nil
}

// GenerateManifest produces the pickup manifest for the shipment.
func (c *Client) GenerateManifest(ctx context.Context, shipmentID string) error {
	r, err := c.authedRequest(ctx)
	if err != nil {
		return err
	}

	resp, err := r.SetBody(generateManifestRequest{ShipmentID: []string{shipmentID}}).
		Post("/manifests/generate")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate manifest")
	}
	if resp.IsError() {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("generate manifest: %s", resp.Status()))
	}
	return nil
}

// TrackByAWB fetches the current tracking state for an AWB.
func (c *Client) TrackByAWB(ctx context.Context, awb string) (*Tracking, error) {
	r, err := c.authedRequest(ctx)
	if err != nil {
		return nil, err
	}

	var out trackingResponse
	resp, err := r.SetResult(&out).Get("/courier/track/awb/" + url.PathEscape(awb))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "track awb")
	}
	if resp.IsError() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("track awb: %s", resp.Status()))
	}

	tracking := &Tracking{StatusCode: out.TrackingData.ShipmentStatus}
	if len(out.TrackingData.ShipmentTrack) > 0 {
		tracking.CurrentStatus = out.TrackingData.ShipmentTrack[0].CurrentStatus
	}
	return tracking, nil
}

// SearchOrders queries the aggregator's order list. An empty result is not an
// error; tracking and order search disagree often enough that callers fall
// back across queries.
func (c *Client) SearchOrders(ctx context.Context, query string) ([]OrderSummary, error) {
	r, err := c.authedRequest(ctx)
	if err != nil {
		return nil, err
	}

	var out searchOrdersResponse
	resp, err := r.SetQueryParam("search", query).SetResult(&out).Get("/orders")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search orders")
	}
	if resp.IsError() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("search orders: %s", resp.Status()))
	}
	return out.Data, nil
}

// FetchOrder reads the aggregator's order record by its internal id.
func (c *Client) FetchOrder(ctx context.Context, aggregatorOrderID int64) (*OrderDetail, error) {
	r, err := c.authedRequest(ctx)
	if err != nil {
		return nil, err
	}

	var out fetchOrderResponse
	resp, err := r.SetResult(&out).Get("/orders/show/" + strconv.FormatInt(aggregatorOrderID, 10))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch order")
	}
	if resp.IsError() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("fetch order: %s", resp.Status()))
	}
	return &out.Data, nil
}
