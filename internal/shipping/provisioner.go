package shipping

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/d2bmarket/d2b-backend/internal/manufacturers"
	"github.com/d2bmarket/d2b-backend/internal/orders"
	"github.com/d2bmarket/d2b-backend/internal/products"
	"github.com/d2bmarket/d2b-backend/pkg/courier"
	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
	"github.com/d2bmarket/d2b-backend/pkg/metrics"
)

// Package dimension defaults used when a product has no recorded dimensions.
const (
	defaultDimensionCm  = 10.0
	defaultUnitWeightKg = 0.5
)

type courierGateway interface {
	Authenticate(ctx context.Context) error
	RegisterPickupLocation(ctx context.Context, req courier.PickupLocationRequest) (string, error)
	CreateShipment(ctx context.Context, req courier.ShipmentRequest) (*courier.ShipmentResult, error)
	AssignAWB(ctx context.Context, shipmentID string, courierID *int) (*courier.AWBResult, error)
	SchedulePickup(ctx context.Context, shipmentID string) error
	GenerateManifest(ctx context.Context, shipmentID string) error
}

// ProvisionResult reports a completed provisioning run.
type ProvisionResult struct {
	OrderNumber string   `json:"order_number"`
	ShipmentID  string   `json:"shipment_id"`
	AWBCode     string   `json:"awb_code"`
	CourierName string   `json:"courier_name"`
	OrdersMoved int      `json:"orders_moved"`
	Degraded    []string `json:"degraded_steps,omitempty"`
	// AlreadyProvisioned is set when the order group already carried an AWB.
	AlreadyProvisioned bool `json:"already_provisioned,omitempty"`
}

// ProvisionerParams configures the shipment provisioner.
type ProvisionerParams struct {
	Courier       courierGateway
	OrdersRepo    orders.Repository
	Manufacturers manufacturers.Repository
	Products      products.Repository
	Logger        *logger.Logger
	Metrics       *metrics.PipelineMetrics
	Now           func() time.Time
}

// Provisioner walks an order group through the courier aggregator until a
// tracking code is stored. Calls are sequential and each mutating step checks
// current state first, so caller-driven retries are safe.
type Provisioner struct {
	courier       courierGateway
	ordersRepo    orders.Repository
	manufacturers manufacturers.Repository
	products      products.Repository
	logger        *logger.Logger
	metrics       *metrics.PipelineMetrics
	now           func() time.Time
}

// NewProvisioner builds the provisioner.
func NewProvisioner(params ProvisionerParams) (*Provisioner, error) {
	if params.Courier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "courier gateway required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Manufacturers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "manufacturers repository required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "products repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Provisioner{
		courier:       params.Courier,
		ordersRepo:    params.OrdersRepo,
		manufacturers: params.Manufacturers,
		products:      params.Products,
		logger:        params.Logger,
		metrics:       params.Metrics,
		now:           now,
	}, nil
}

// Provision moves the order's whole manufacturer group from paid intent to
// shippable. Fatal failures leave order status untouched; the caller retries.
func (p *Provisioner) Provision(ctx context.Context, orderID uuid.UUID) (*ProvisionResult, error) {
	order, err := p.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.logger != nil {
		ctx = p.logger.WithOrderID(ctx, order.ID.String())
	}

	group, err := p.ordersRepo.FindByOrderNumber(ctx, order.OrderNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order group")
	}

	// Retried call on an already provisioned group is a no-op.
	if order.AWBCode != nil && *order.AWBCode != "" {
		p.metrics.IncProvision("already_provisioned")
		result := &ProvisionResult{
			OrderNumber:        order.OrderNumber,
			AWBCode:            *order.AWBCode,
			AlreadyProvisioned: true,
		}
		if order.ShipmentID != nil {
			result.ShipmentID = *order.ShipmentID
		}
		if order.CourierName != nil {
			result.CourierName = *order.CourierName
		}
		return result, nil
	}

	manufacturer, err := p.manufacturers.FindByID(ctx, order.ManufacturerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "manufacturer not found")
	}
	if err := validateManufacturerProfile(manufacturer); err != nil {
		p.metrics.IncProvision("precondition_failed")
		return nil, err
	}

	state := &provisionState{order: order, group: group, manufacturer: manufacturer}

	steps := []step{
		{name: "authenticate", critical: true, run: func(ctx context.Context) error {
			return p.courier.Authenticate(ctx)
		}},
		{name: "ensure_pickup_location", critical: true, run: func(ctx context.Context) error {
			return p.ensurePickupLocation(ctx, state)
		}},
		{name: "create_shipment", critical: true, run: func(ctx context.Context) error {
			return p.createShipment(ctx, state)
		}},
		{name: "assign_awb", critical: true, run: func(ctx context.Context) error {
			return p.assignAWB(ctx, state)
		}},
		{name: "schedule_pickup", critical: false, run: func(ctx context.Context) error {
			return p.courier.SchedulePickup(ctx, state.shipmentID)
		}},
		{name: "generate_manifest", critical: false, run: func(ctx context.Context) error {
			return p.courier.GenerateManifest(ctx, state.shipmentID)
		}},
		{name: "persist_assignment", critical: true, run: func(ctx context.Context) error {
			return p.persistAssignment(ctx, state)
		}},
	}

	degraded, err := runSteps(ctx, p.logger, steps)
	if err != nil {
		p.metrics.IncProvision("failed")
		return nil, err
	}

	p.metrics.IncProvision("provisioned")
	if p.logger != nil {
		p.logger.Info(p.logger.WithField(ctx, "awb", state.awb.AWBCode), "shipment provisioned")
	}
	return &ProvisionResult{
		OrderNumber: order.OrderNumber,
		ShipmentID:  state.shipmentID,
		AWBCode:     state.awb.AWBCode,
		CourierName: state.awb.CourierName,
		OrdersMoved: len(group),
		Degraded:    degraded,
	}, nil
}

type provisionState struct {
	order        *models.Order
	group        []models.Order
	manufacturer *models.Manufacturer
	pickupCode   string
	shipmentID   string
	awb          courier.AWBResult
}

// validateManufacturerProfile rejects early, with an actionable message, when
// the courier would refuse the pickup address anyway.
func validateManufacturerProfile(m *models.Manufacturer) error {
	var missing []string
	if strings.TrimSpace(m.AddressLine) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(m.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(m.Pincode) == "" {
		missing = append(missing, "pincode")
	}
	if strings.TrimSpace(m.City) == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("manufacturer profile incomplete: add %s before shipping", strings.Join(missing, ", ")))
	}
	return nil
}

// ensurePickupLocation reuses the cached pickup code or registers one. The
// courier treating "already exists" as success keeps this retry-safe.
func (p *Provisioner) ensurePickupLocation(ctx context.Context, state *provisionState) error {
	if state.manufacturer.PickupLocationCode != nil && *state.manufacturer.PickupLocationCode != "" {
		state.pickupCode = *state.manufacturer.PickupLocationCode
		return nil
	}

	nickname := pickupNickname(state.manufacturer.ID)
	code, err := p.courier.RegisterPickupLocation(ctx, courier.PickupLocationRequest{
		Nickname: nickname,
		Name:     state.manufacturer.CompanyName,
		Email:    state.manufacturer.Email,
		Phone:    state.manufacturer.Phone,
		Address:  state.manufacturer.AddressLine,
		City:     state.manufacturer.City,
		State:    state.manufacturer.State,
		Country:  state.manufacturer.Country,
		Pincode:  state.manufacturer.Pincode,
	})
	if err != nil {
		return err
	}

	state.pickupCode = code
	if err := p.manufacturers.SavePickupLocationCode(ctx, state.manufacturer.ID, code); err != nil {
		// The aggregator has the location either way; next run re-registers
		// and lands on the "already exists" path.
		if p.logger != nil {
			p.logger.Warn(ctx, "persist pickup location code failed")
		}
	}
	return nil
}

func (p *Provisioner) createShipment(ctx context.Context, state *provisionState) error {
	address := state.order.ShippingAddress
	if address == nil || !address.IsComplete() {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no usable shipping address")
	}

	dims, err := p.packageDimensions(ctx, state.group)
	if err != nil {
		return err
	}

	items := make([]courier.ShipmentItem, 0, len(state.group))
	subTotal := decimal.Zero
	for _, row := range state.group {
		items = append(items, courier.ShipmentItem{
			Name:         row.ProductName,
			SKU:          row.ProductID.String(),
			Units:        row.Quantity,
			SellingPrice: row.UnitPrice.StringFixed(2),
			Tax:          row.TaxRate.String(),
		})
		subTotal = subTotal.Add(row.TotalAmount)
	}

	result, err := p.courier.CreateShipment(ctx, courier.ShipmentRequest{
		OrderID:          state.order.OrderNumber,
		OrderDate:        p.now().UTC().Format("2006-01-02 15:04"),
		PickupLocation:   state.pickupCode,
		BillingName:      address.Name,
		BillingAddress:   address.Line1,
		BillingCity:      address.City,
		BillingState:     address.State,
		BillingPincode:   address.Pincode,
		BillingCountry:   address.Country,
		BillingEmail:     address.Email,
		BillingPhone:     address.Phone,
		ShippingIsBilled: true,
		Items:            items,
		PaymentMethod:    "Prepaid",
		SubTotal:         subTotal.StringFixed(2),
		LengthCm:         dims.length,
		BreadthCm:        dims.breadth,
		HeightCm:         dims.height,
		WeightKg:         dims.weightKg,
	})
	if err != nil {
		return err
	}

	state.shipmentID = strconv.FormatInt(result.ShipmentID, 10)
	return nil
}

func (p *Provisioner) assignAWB(ctx context.Context, state *provisionState) error {
	awb, err := p.courier.AssignAWB(ctx, state.shipmentID, state.manufacturer.PreferredCourierID)
	if err != nil {
		return err
	}
	state.awb = *awb
	return nil
}

func (p *Provisioner) persistAssignment(ctx context.Context, state *provisionState) error {
	confirmedAt := p.now().UTC()
	for _, row := range state.group {
		err := p.ordersRepo.UpdateShipmentAssignment(ctx, row.ID, state.shipmentID, state.awb.AWBCode, state.awb.CourierName, confirmedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist shipment assignment")
		}
	}
	if err := p.manufacturers.TouchLastShipment(ctx, state.manufacturer.ID, confirmedAt); err != nil && p.logger != nil {
		p.logger.Warn(ctx, "touch manufacturer last shipment failed")
	}
	return nil
}

type packageDims struct {
	length   float64
	breadth  float64
	height   float64
	weightKg float64
}

// packageDimensions sizes the parcel from product rows, substituting defaults
// for missing dimensions: 10x10x10 cm and 0.5 kg per unit.
func (p *Provisioner) packageDimensions(ctx context.Context, group []models.Order) (packageDims, error) {
	ids := make([]uuid.UUID, 0, len(group))
	for _, row := range group {
		ids = append(ids, row.ProductID)
	}
	rows, err := p.products.FindByIDs(ctx, ids)
	if err != nil {
		return packageDims{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product dimensions")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	dims := packageDims{length: defaultDimensionCm, breadth: defaultDimensionCm, height: defaultDimensionCm}
	for _, row := range group {
		product, ok := byID[row.ProductID]
		unitWeight := defaultUnitWeightKg
		if ok && product.WeightKg != nil && *product.WeightKg > 0 {
			unitWeight = *product.WeightKg
		}
		dims.weightKg += unitWeight * float64(row.Quantity)
		if ok {
			if product.LengthCm != nil && *product.LengthCm > dims.length {
				dims.length = *product.LengthCm
			}
			if product.BreadthCm != nil && *product.BreadthCm > dims.breadth {
				dims.breadth = *product.BreadthCm
			}
			if product.HeightCm != nil && *product.HeightCm > dims.height {
				dims.height = *product.HeightCm
			}
		}
	}
	return dims, nil
}

func pickupNickname(manufacturerID uuid.UUID) string {
	short := strings.ReplaceAll(manufacturerID.String(), "-", "")[:8]
	return "mfg-" + short
}
