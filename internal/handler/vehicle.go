package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleettrack/internal/domain"
	"fleettrack/internal/middleware"
	"fleettrack/internal/service"
)

// VehicleHandler handles HTTP requests for the fleet roster, live
// locations and driver assignment.
type VehicleHandler struct {
	vehicleService    *service.VehicleService
	locationService   *service.LocationService
	assignmentService *service.AssignmentService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(
	vehicleService *service.VehicleService,
	locationService *service.LocationService,
	assignmentService *service.AssignmentService,
) *VehicleHandler {
	return &VehicleHandler{
		vehicleService:    vehicleService,
		locationService:   locationService,
		assignmentService: assignmentService,
	}
}

// VehicleResponse is the HTTP representation of a vehicle.
type VehicleResponse struct {
	ID           string      `json:"id"`
	Registration string      `json:"registration_number"`
	Model        string      `json:"model"`
	Category     string      `json:"category"`
	Year         int         `json:"year,omitempty"`
	Color        string      `json:"color,omitempty"`
	Status       string      `json:"status"`
	Driver       *DriverInfo `json:"assigned_driver,omitempty"`
	CreatedAt    string      `json:"created_at,omitempty"`
}

// DriverInfo is the embedded driver summary on vehicle reads.
type DriverInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LocationResponse is the HTTP representation of a vehicle's location.
// Coordinates (0,0) with no timestamp mean the vehicle never reported.
type LocationResponse struct {
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
	Speed       float64 `json:"speed"`
	Address     string  `json:"address,omitempty"`
	LastUpdated string  `json:"last_updated,omitempty"`
}

func vehicleResponse(v *domain.Vehicle, driver *domain.DriverRef) VehicleResponse {
	resp := VehicleResponse{
		ID:           v.ID,
		Registration: v.Registration,
		Model:        v.Model,
		Category:     string(v.Category),
		Year:         v.Year,
		Color:        v.Color,
		Status:       string(v.Status),
	}
	if !v.CreatedAt.IsZero() {
		resp.CreatedAt = v.CreatedAt.Format(time.RFC3339)
	}
	if driver != nil {
		resp.Driver = &DriverInfo{ID: driver.ID, Name: driver.Name, Email: driver.Email}
	}
	return resp
}

func locationResponse(loc domain.Location) LocationResponse {
	resp := LocationResponse{
		Longitude: loc.Longitude,
		Latitude:  loc.Latitude,
		Speed:     loc.Speed,
		Address:   loc.Address,
	}
	if !loc.LastUpdated.IsZero() {
		resp.LastUpdated = loc.LastUpdated.Format(time.RFC3339)
	}
	return resp
}

// CreateVehicleRequest is the JSON body for vehicle registration.
type CreateVehicleRequest struct {
	Registration string `json:"registration_number" binding:"required"`
	Model        string `json:"model" binding:"required"`
	Category     string `json:"category"`
	Year         int    `json:"year"`
	Color        string `json:"color"`
}

// Create handles POST /api/vehicles
func (h *VehicleHandler) Create(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidRegistration)
		return
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), service.CreateVehicleRequest{
		Registration: req.Registration,
		Model:        req.Model,
		Category:     req.Category,
		Year:         req.Year,
		Color:        req.Color,
		Actor:        middleware.GetActor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, vehicleResponse(vehicle, nil))
}

// Get handles GET /api/vehicles/:id
func (h *VehicleHandler) Get(c *gin.Context) {
	detail, err := h.vehicleService.Get(c.Request.Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, vehicleResponse(&detail.Vehicle, detail.Driver))
}

// List handles GET /api/vehicles
func (h *VehicleHandler) List(c *gin.Context) {
	details, err := h.vehicleService.List(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(details))
	for _, d := range details {
		response = append(response, vehicleResponse(&d.Vehicle, d.Driver))
	}

	respondList(c, response, len(response))
}

// ListByDriver handles GET /api/vehicles/driver/:driverId
func (h *VehicleHandler) ListByDriver(c *gin.Context) {
	details, err := h.vehicleService.ListByDriver(c.Request.Context(), c.Param("driverId"), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(details))
	for _, d := range details {
		response = append(response, vehicleResponse(&d.Vehicle, d.Driver))
	}

	respondList(c, response, len(response))
}

// UpdateVehicleRequest is the JSON body for vehicle updates. Absent
// fields are left unchanged.
type UpdateVehicleRequest struct {
	Registration *string `json:"registration_number"`
	Model        *string `json:"model"`
	Category     *string `json:"category"`
	Year         *int    `json:"year"`
	Color        *string `json:"color"`
	Status       *string `json:"status"`
}

// Update handles PUT /api/vehicles/:id
func (h *VehicleHandler) Update(c *gin.Context) {
	var req UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidVehicleID)
		return
	}

	vehicle, err := h.vehicleService.Update(c.Request.Context(), service.UpdateVehicleRequest{
		VehicleID:    c.Param("id"),
		Registration: req.Registration,
		Model:        req.Model,
		Category:     req.Category,
		Year:         req.Year,
		Color:        req.Color,
		Status:       req.Status,
		Actor:        middleware.GetActor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, vehicleResponse(vehicle, nil))
}

// Delete handles DELETE /api/vehicles/:id
func (h *VehicleHandler) Delete(c *gin.Context) {
	if err := h.vehicleService.Delete(c.Request.Context(), c.Param("id"), middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "vehicle deleted")
}

// ReportLocationRequest is the JSON body for a location report.
type ReportLocationRequest struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Speed     float64 `json:"speed"`
	Address   string  `json:"address"`
}

// ReportLocation handles PUT /api/vehicles/:id/location
func (h *VehicleHandler) ReportLocation(c *gin.Context) {
	var req ReportLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	loc, err := h.locationService.Report(c.Request.Context(), service.ReportLocationRequest{
		VehicleID: c.Param("id"),
		Longitude: req.Longitude,
		Latitude:  req.Latitude,
		Speed:     req.Speed,
		Address:   req.Address,
		Actor:     middleware.GetActor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, locationResponse(loc))
}

// GetLocation handles GET /api/vehicles/:id/location
func (h *VehicleHandler) GetLocation(c *gin.Context) {
	loc, err := h.locationService.Get(c.Request.Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, locationResponse(loc))
}

// NearbyVehicleResponse is one live fix in a radius query result.
type NearbyVehicleResponse struct {
	VehicleID string  `json:"vehicle_id"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Nearby handles GET /api/vehicles/nearby?longitude=&latitude=&radius_km=
func (h *VehicleHandler) Nearby(c *gin.Context) {
	lng, errLng := strconv.ParseFloat(c.Query("longitude"), 64)
	lat, errLat := strconv.ParseFloat(c.Query("latitude"), 64)
	if errLng != nil || errLat != nil {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	radius := 0.0
	if raw := c.Query("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, service.ErrInvalidLocation)
			return
		}
		radius = parsed
	}

	fixes, err := h.locationService.Nearby(c.Request.Context(), service.NearbyRequest{
		Longitude: lng,
		Latitude:  lat,
		RadiusKm:  radius,
		Actor:     middleware.GetActor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]NearbyVehicleResponse, 0, len(fixes))
	for _, f := range fixes {
		response = append(response, NearbyVehicleResponse{
			VehicleID: f.VehicleID,
			Longitude: f.Lng,
			Latitude:  f.Lat,
		})
	}

	respondList(c, response, len(response))
}

// AssignDriverRequest is the JSON body for binding a driver.
type AssignDriverRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
}

// AssignDriver handles PUT /api/vehicles/:id/driver
func (h *VehicleHandler) AssignDriver(c *gin.Context) {
	var req AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidDriverID)
		return
	}

	err := h.assignmentService.Assign(c.Request.Context(), service.AssignRequest{
		VehicleID: c.Param("id"),
		DriverID:  req.DriverID,
		Actor:     middleware.GetActor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "driver assigned")
}

// UnassignDriver handles DELETE /api/vehicles/:id/driver
func (h *VehicleHandler) UnassignDriver(c *gin.Context) {
	if err := h.assignmentService.Unassign(c.Request.Context(), c.Param("id"), middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "driver unassigned")
}
