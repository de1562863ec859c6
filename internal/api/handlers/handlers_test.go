package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/trip-dispatch/internal/api/dto"
	"github.com/gocomet/trip-dispatch/internal/broadcast"
	"github.com/gocomet/trip-dispatch/internal/domain/driver"
	"github.com/gocomet/trip-dispatch/internal/geo"
	"github.com/gocomet/trip-dispatch/internal/registry"
	"github.com/gocomet/trip-dispatch/internal/service/dispatch"
	"github.com/gocomet/trip-dispatch/internal/service/pricing"
	"github.com/gocomet/trip-dispatch/internal/store"
	"github.com/gocomet/trip-dispatch/pkg/logger"
	"github.com/gocomet/trip-dispatch/pkg/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Handlers) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	streams := broadcast.New(log)
	reg := registry.New(log)
	estimator := pricing.NewEstimator(pricing.DefaultConfig())
	hub := websocket.NewHub(streams, log)
	engine := dispatch.NewEngine(store.NewMemoryStore(), reg, estimator,
		dispatch.NopNotifier{}, streams, log, dispatch.DefaultConfig())

	h := NewHandlers(engine, reg, estimator, nil, hub, log)

	r := gin.New()
	r.POST("/v1/quotes", h.GetQuote)
	r.POST("/v1/trips", h.CreateTrip)
	r.GET("/v1/trips/:id", h.GetTrip)
	r.POST("/v1/trips/:id/cancel", h.CancelTrip)
	r.POST("/v1/drivers", h.RegisterDriver)
	r.POST("/v1/drivers/:id/docs", h.ReviewDocs)
	r.POST("/v1/drivers/availability", h.SetAvailability)
	r.POST("/v1/drivers/location", h.UpdateLocation)
	r.POST("/v1/drivers/offers/respond", h.RespondOffer)
	return r, h
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func riderHeaders(id uuid.UUID) map[string]string {
	return map[string]string{"X-User-ID": id.String(), "X-User-Role": "rider"}
}

func driverHeaders(id uuid.UUID) map[string]string {
	return map[string]string{"X-User-ID": id.String(), "X-User-Role": "driver"}
}

func adminHeaders(id uuid.UUID) map[string]string {
	return map[string]string{"X-User-ID": id.String(), "X-User-Role": "admin"}
}

func TestGetQuote(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/quotes", dto.QuoteRequest{
		PickupLatitude:   12.9716,
		PickupLongitude:  77.5946,
		DropoffLatitude:  13.0416,
		DropoffLongitude: 77.5946,
		VehicleClass:     "economy",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.QuoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Greater(t, resp.DistanceKm, 0.0)
	assert.Greater(t, resp.EtaMinutes, 0)
	assert.Greater(t, resp.FareEstimate, 0.0)
	assert.Equal(t, pricing.DefaultSurge, resp.SurgeApplied)
}

func TestGetQuote_RejectsBadClass(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/quotes", map[string]interface{}{
		"pickup_latitude":   12.9716,
		"pickup_longitude":  77.5946,
		"dropoff_latitude":  13.0416,
		"dropoff_longitude": 77.5946,
		"vehicle_class":     "helicopter",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTrip_MatchesQuote(t *testing.T) {
	r, _ := newTestRouter(t)
	riderID := uuid.New()

	body := dto.CreateTripRequest{
		PickupLatitude:   12.9716,
		PickupLongitude:  77.5946,
		DropoffLatitude:  13.0416,
		DropoffLongitude: 77.5946,
		VehicleClass:     "economy",
	}

	qw := doJSON(t, r, http.MethodPost, "/v1/quotes", dto.QuoteRequest{
		PickupLatitude:   body.PickupLatitude,
		PickupLongitude:  body.PickupLongitude,
		DropoffLatitude:  body.DropoffLatitude,
		DropoffLongitude: body.DropoffLongitude,
		VehicleClass:     body.VehicleClass,
	}, nil)
	require.Equal(t, http.StatusOK, qw.Code)
	var quote dto.QuoteResponse
	require.NoError(t, json.Unmarshal(qw.Body.Bytes(), &quote))

	w := doJSON(t, r, http.MethodPost, "/v1/trips", body, riderHeaders(riderID))
	require.Equal(t, http.StatusCreated, w.Code)

	var created dto.TripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, riderID, created.RiderID)
	assert.Equal(t, "requested", created.Status)
	assert.Equal(t, quote.FareEstimate, created.FareEstimate)
	assert.Nil(t, created.DriverID)

	gw := doJSON(t, r, http.MethodGet, "/v1/trips/"+created.ID.String(), nil, nil)
	assert.Equal(t, http.StatusOK, gw.Code)
}

func TestCreateTrip_RequiresRiderIdentity(t *testing.T) {
	r, _ := newTestRouter(t)

	body := dto.CreateTripRequest{
		PickupLatitude:   12.9716,
		PickupLongitude:  77.5946,
		DropoffLatitude:  13.0416,
		DropoffLongitude: 77.5946,
		VehicleClass:     "economy",
	}

	w := doJSON(t, r, http.MethodPost, "/v1/trips", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/trips", body,
		map[string]string{"X-User-ID": uuid.NewString(), "X-User-Role": "driver"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelTrip_StrangerForbidden(t *testing.T) {
	r, h := newTestRouter(t)
	riderID := uuid.New()

	// a nearby candidate keeps the offer round open while we cancel
	loc := geo.Point{Latitude: 12.9716, Longitude: 77.5946}
	require.NoError(t, h.Registry.Register(driver.Driver{
		ID:         uuid.New(),
		Online:     true,
		DocsStatus: driver.DocsApproved,
		Location:   &loc,
	}))

	w := doJSON(t, r, http.MethodPost, "/v1/trips", dto.CreateTripRequest{
		PickupLatitude:   12.9716,
		PickupLongitude:  77.5946,
		DropoffLatitude:  13.0416,
		DropoffLongitude: 77.5946,
		VehicleClass:     "economy",
	}, riderHeaders(riderID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.TripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	cw := doJSON(t, r, http.MethodPost, "/v1/trips/"+created.ID.String()+"/cancel",
		nil, riderHeaders(uuid.New()))
	assert.Equal(t, http.StatusForbidden, cw.Code)

	cw = doJSON(t, r, http.MethodPost, "/v1/trips/"+created.ID.String()+"/cancel",
		nil, riderHeaders(riderID))
	assert.Equal(t, http.StatusOK, cw.Code)
	var cancelled dto.TripResponse
	require.NoError(t, json.Unmarshal(cw.Body.Bytes(), &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)
}

func TestGetTrip_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/v1/trips/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRespondOffer_NonePending(t *testing.T) {
	r, _ := newTestRouter(t)
	accept := true

	w := doJSON(t, r, http.MethodPost, "/v1/drivers/offers/respond", dto.OfferResponseRequest{
		TripID: uuid.NewString(),
		Accept: &accept,
	}, map[string]string{"X-User-ID": uuid.NewString(), "X-User-Role": "driver"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestDriverOnboarding_ApprovalMakesCandidate walks the full onboarding
// flow: a registered driver stays out of matching until an admin approves
// their documents, and only then shows up as a nearby candidate.
func TestDriverOnboarding_ApprovalMakesCandidate(t *testing.T) {
	r, h := newTestRouter(t)
	driverID := uuid.New()

	w := doJSON(t, r, http.MethodPost, "/v1/drivers",
		dto.RegisterDriverRequest{}, driverHeaders(driverID))
	require.Equal(t, http.StatusCreated, w.Code)

	online := true
	w = doJSON(t, r, http.MethodPost, "/v1/drivers/availability",
		dto.AvailabilityRequest{Online: &online}, driverHeaders(driverID))
	require.Equal(t, http.StatusOK, w.Code)

	pickup := geo.Point{Latitude: 12.9716, Longitude: 77.5946}
	w = doJSON(t, r, http.MethodPost, "/v1/drivers/location",
		dto.UpdateLocationRequest{Latitude: pickup.Latitude, Longitude: pickup.Longitude},
		driverHeaders(driverID))
	require.Equal(t, http.StatusOK, w.Code)

	// online and located, but documents are still pending review
	assert.Empty(t, h.Registry.NearestCandidates(pickup, 5, 3))

	w = doJSON(t, r, http.MethodPost, "/v1/drivers/"+driverID.String()+"/docs",
		dto.DocsReviewRequest{DocsStatus: "approved"}, adminHeaders(uuid.New()))
	require.Equal(t, http.StatusOK, w.Code)

	cands := h.Registry.NearestCandidates(pickup, 5, 3)
	require.Len(t, cands, 1)
	assert.Equal(t, driverID, cands[0].Driver.ID)

	d, err := h.Registry.Get(driverID)
	require.NoError(t, err)
	assert.Equal(t, driver.DocsApproved, d.DocsStatus)
}

// TestReviewDocs_RequiresAdmin tests drivers cannot approve themselves
func TestReviewDocs_RequiresAdmin(t *testing.T) {
	r, _ := newTestRouter(t)
	driverID := uuid.New()

	w := doJSON(t, r, http.MethodPost, "/v1/drivers",
		dto.RegisterDriverRequest{}, driverHeaders(driverID))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/drivers/"+driverID.String()+"/docs",
		dto.DocsReviewRequest{DocsStatus: "approved"}, driverHeaders(driverID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
