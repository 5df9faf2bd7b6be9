package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleettrack/internal/domain"
	"fleettrack/internal/middleware"
	"fleettrack/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	ID            string               `json:"id"`
	VehicleID     string               `json:"vehicle_id"`
	DriverID      string               `json:"driver_id"`
	Status        string               `json:"status"`
	StartLocation CoordinatePayload    `json:"start_location"`
	EndLocation   *CoordinatePayload   `json:"end_location,omitempty"`
	Route         []RoutePointResponse `json:"route"`
	StartTime     string               `json:"start_time"`
	EndTime       string               `json:"end_time,omitempty"`
	DistanceKm    float64              `json:"distance_km"`
	Purpose       string               `json:"purpose,omitempty"`
	Notes         string               `json:"notes,omitempty"`
}

// CoordinatePayload is a longitude/latitude pair on the wire.
type CoordinatePayload struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// RoutePointResponse is one recorded waypoint.
type RoutePointResponse struct {
	Seq        int     `json:"seq"`
	Longitude  float64 `json:"longitude"`
	Latitude   float64 `json:"latitude"`
	Speed      float64 `json:"speed"`
	RecordedAt string  `json:"recorded_at"`
}

func tripResponse(t *domain.Trip) TripResponse {
	resp := TripResponse{
		ID:        t.ID,
		VehicleID: t.VehicleID,
		DriverID:  t.DriverID,
		Status:    string(t.Status),
		StartLocation: CoordinatePayload{
			Longitude: t.StartLocation.Longitude,
			Latitude:  t.StartLocation.Latitude,
		},
		Route:      make([]RoutePointResponse, 0, len(t.Route)),
		StartTime:  t.StartTime.Format(time.RFC3339),
		DistanceKm: t.DistanceKm,
		Purpose:    t.Purpose,
		Notes:      t.Notes,
	}

	if t.Status == domain.TripStatusCompleted {
		resp.EndLocation = &CoordinatePayload{
			Longitude: t.EndLocation.Longitude,
			Latitude:  t.EndLocation.Latitude,
		}
	}
	if !t.EndTime.IsZero() {
		resp.EndTime = t.EndTime.Format(time.RFC3339)
	}

	for _, p := range t.Route {
		resp.Route = append(resp.Route, RoutePointResponse{
			Seq:        p.Seq,
			Longitude:  p.Longitude,
			Latitude:   p.Latitude,
			Speed:      p.Speed,
			RecordedAt: p.RecordedAt.Format(time.RFC3339),
		})
	}

	return resp
}

// StartTripRequest is the JSON body for starting a trip.
type StartTripRequest struct {
	VehicleID     string            `json:"vehicle_id" binding:"required"`
	StartLocation CoordinatePayload `json:"start_location" binding:"required"`
	Purpose       string            `json:"purpose"`
	Notes         string            `json:"notes"`
}

// Start handles POST /api/trips
func (h *TripHandler) Start(c *gin.Context) {
	var req StartTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidVehicleID)
		return
	}

	trip, err := h.tripService.Start(c.Request.Context(), service.StartTripRequest{
		VehicleID: req.VehicleID,
		StartLocation: domain.Location{
			Longitude: req.StartLocation.Longitude,
			Latitude:  req.StartLocation.Latitude,
		},
		Purpose: req.Purpose,
		Notes:   req.Notes,
		Actor:   middleware.GetActor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, tripResponse(trip))
}

// Get handles GET /api/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	trip, err := h.tripService.Get(c.Request.Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, tripResponse(trip))
}

// List handles GET /api/trips
func (h *TripHandler) List(c *gin.Context) {
	trips, err := h.tripService.List(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		response = append(response, tripResponse(t))
	}

	respondList(c, response, len(response))
}

// AppendRoutePointRequest is the JSON body for recording a waypoint.
type AppendRoutePointRequest struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Speed     float64 `json:"speed"`
}

// AppendRoutePoint handles POST /api/trips/:id/location
func (h *TripHandler) AppendRoutePoint(c *gin.Context) {
	var req AppendRoutePointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	point, err := h.tripService.AppendRoutePoint(c.Request.Context(), service.AppendRoutePointRequest{
		TripID:    c.Param("id"),
		Longitude: req.Longitude,
		Latitude:  req.Latitude,
		Speed:     req.Speed,
		Actor:     middleware.GetActor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, RoutePointResponse{
		Seq:        point.Seq,
		Longitude:  point.Longitude,
		Latitude:   point.Latitude,
		Speed:      point.Speed,
		RecordedAt: point.RecordedAt.Format(time.RFC3339),
	})
}

// UpdateTripRequest is the JSON body for trip updates. Absent fields are
// left unchanged.
type UpdateTripRequest struct {
	Purpose *string `json:"purpose"`
	Notes   *string `json:"notes"`
}

// Update handles PUT /api/trips/:id
func (h *TripHandler) Update(c *gin.Context) {
	var req UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidTripID)
		return
	}

	trip, err := h.tripService.Update(c.Request.Context(), service.UpdateTripRequest{
		TripID:  c.Param("id"),
		Purpose: req.Purpose,
		Notes:   req.Notes,
		Actor:   middleware.GetActor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, tripResponse(trip))
}

// CompleteTripRequest is the JSON body for completing a trip.
type CompleteTripRequest struct {
	EndLocation CoordinatePayload `json:"end_location" binding:"required"`
	DistanceKm  float64           `json:"distance_km"`
}

// Complete handles PUT /api/trips/:id/complete
func (h *TripHandler) Complete(c *gin.Context) {
	var req CompleteTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	trip, err := h.tripService.Complete(c.Request.Context(), service.CompleteTripRequest{
		TripID: c.Param("id"),
		EndLocation: domain.Location{
			Longitude: req.EndLocation.Longitude,
			Latitude:  req.EndLocation.Latitude,
		},
		DistanceKm: req.DistanceKm,
		Actor:      middleware.GetActor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, tripResponse(trip))
}

// Cancel handles PUT /api/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	trip, err := h.tripService.Cancel(c.Request.Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, tripResponse(trip))
}

// Delete handles DELETE /api/trips/:id
func (h *TripHandler) Delete(c *gin.Context) {
	if err := h.tripService.Delete(c.Request.Context(), c.Param("id"), middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "trip deleted")
}
