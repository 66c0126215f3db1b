package courier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d2bmarket/d2b-backend/pkg/config"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.CourierConfig{
		BaseURL:     server.URL,
		Email:       "ops@d2bmarket.test",
		Password:    "secret",
		CallTimeout: 5 * time.Second,
	}, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return client, server
}

func authenticatedClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	})
	client, _ := newTestClient(t, mux)
	require.NoError(t, client.Authenticate(context.Background()))
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(config.CourierConfig{BaseURL: "http://aggregator.test"}, nil)
	require.Error(t, err)

	_, err = NewClient(config.CourierConfig{Email: "a@b.test", Password: "x"}, nil)
	require.Error(t, err)
}

func TestAuthenticateStoresToken(t *testing.T) {
	mux := http.NewServeMux()
	var gotBody loginRequest
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-abc"})
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchOrdersResponse{})
	})

	client, _ := newTestClient(t, mux)
	require.NoError(t, client.Authenticate(context.Background()))
	assert.Equal(t, "ops@d2bmarket.test", gotBody.Email)

	_, err := client.SearchOrders(context.Background(), "AWB1")
	require.NoError(t, err)
}

func TestAuthenticateRejectedCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux)
	err := client.Authenticate(context.Background())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestCallsRequireAuthentication(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux())

	_, err := client.TrackByAWB(context.Background(), "AWB1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authenticated")
}

func TestRegisterPickupLocationReturnsCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/settings/company/addpickup", func(w http.ResponseWriter, r *http.Request) {
		var out pickupLocationResponse
		out.Success = true
		out.Address.PickupCode = "loc-77"
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	client := authenticatedClient(t, mux)
	code, err := client.RegisterPickupLocation(context.Background(), PickupLocationRequest{Nickname: "mfg-abc"})
	require.NoError(t, err)
	assert.Equal(t, "loc-77", code)
}

func TestRegisterPickupLocationToleratesAlreadyExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/settings/company/addpickup", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"message": "Address nickname Already Exists"})
	})

	client := authenticatedClient(t, mux)
	code, err := client.RegisterPickupLocation(context.Background(), PickupLocationRequest{Nickname: "mfg-abc"})
	require.NoError(t, err)
	assert.Equal(t, "mfg-abc", code)
}

func TestCreateShipmentRejectsMissingShipmentID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders/create/adhoc", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ShipmentResult{OrderID: 9, ShipmentID: 0})
	})

	client := authenticatedClient(t, mux)
	_, err := client.CreateShipment(context.Background(), ShipmentRequest{OrderID: "D2B-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no shipment id")
}

func TestCreateShipmentReturnsIdentifiers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders/create/adhoc", func(w http.ResponseWriter, r *http.Request) {
		var got ShipmentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "D2B-1", got.OrderID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ShipmentResult{OrderID: 9, ShipmentID: 4242, Status: "NEW"})
	})

	client := authenticatedClient(t, mux)
	result, err := client.CreateShipment(context.Background(), ShipmentRequest{OrderID: "D2B-1"})
	require.NoError(t, err)
	assert.EqualValues(t, 4242, result.ShipmentID)
}

func TestAssignAWBRejectsEmptyAWB(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/courier/assign/awb", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(assignAWBResponse{})
	})

	client := authenticatedClient(t, mux)
	_, err := client.AssignAWB(context.Background(), "4242", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no awb returned")
}

func TestAssignAWBReturnsAssignment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/courier/assign/awb", func(w http.ResponseWriter, r *http.Request) {
		var got assignAWBRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "4242", got.ShipmentID)
		require.NotNil(t, got.CourierID)
		assert.Equal(t, 7, *got.CourierID)

		var out assignAWBResponse
		out.AWBAssignStatus = 1
		out.Response.Data = AWBResult{AWBCode: "AWB999", CourierID: 7, CourierName: "Delhivery"}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	client := authenticatedClient(t, mux)
	courierID := 7
	awb, err := client.AssignAWB(context.Background(), "4242", &courierID)
	require.NoError(t, err)
	assert.Equal(t, "AWB999", awb.AWBCode)
	assert.Equal(t, "Delhivery", awb.CourierName)
}

func TestTrackByAWBParsesStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/courier/track/awb/AWB999", func(w http.ResponseWriter, r *http.Request) {
		var out trackingResponse
		out.TrackingData.ShipmentStatus = 7
		out.TrackingData.ShipmentTrack = []struct {
			CurrentStatus string `json:"current_status"`
		}{{CurrentStatus: "Delivered"}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	client := authenticatedClient(t, mux)
	tracking, err := client.TrackByAWB(context.Background(), "AWB999")
	require.NoError(t, err)
	assert.Equal(t, 7, tracking.StatusCode)
	assert.Equal(t, "Delivered", tracking.CurrentStatus)
}

func TestTrackByAWBWithoutScansHasEmptyStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/courier/track/awb/AWB100", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(trackingResponse{})
	})

	client := authenticatedClient(t, mux)
	tracking, err := client.TrackByAWB(context.Background(), "AWB100")
	require.NoError(t, err)
	assert.Equal(t, 0, tracking.StatusCode)
	assert.Empty(t, tracking.CurrentStatus)
}

func TestSearchOrdersPassesQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "D2B-P-1", r.URL.Query().Get("search"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchOrdersResponse{Data: []OrderSummary{{ID: 11, Status: "CANCELED"}}})
	})

	client := authenticatedClient(t, mux)
	summaries, err := client.SearchOrders(context.Background(), "D2B-P-1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "CANCELED", summaries[0].Status)
}

func TestSearchOrdersEmptyResultIsNotAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchOrdersResponse{})
	})

	client := authenticatedClient(t, mux)
	summaries, err := client.SearchOrders(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestFetchOrderReadsDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders/show/11", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fetchOrderResponse{Data: OrderDetail{ID: 11, Status: "NEW", AWB: "AWB999"}})
	})

	client := authenticatedClient(t, mux)
	detail, err := client.FetchOrder(context.Background(), 11)
	require.NoError(t, err)
	assert.EqualValues(t, 11, detail.ID)
	assert.Equal(t, "NEW", detail.Status)
	assert.Equal(t, "AWB999", detail.AWB)
}

func TestServerErrorMapsToDependencyError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/courier/generate/pickup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client := authenticatedClient(t, mux)
	err := client.SchedulePickup(context.Background(), "4242")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}
