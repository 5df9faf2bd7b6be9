package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleettrack/internal/domain"
	"fleettrack/internal/middleware"
	"fleettrack/internal/service"
)

// DriverHandler handles HTTP requests for driver accounts.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// DriverResponse is the HTTP representation of a driver account. The
// password hash never leaves the service.
type DriverResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

func driverResponse(u *domain.User) DriverResponse {
	resp := DriverResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

// CreateDriverRequest is the JSON body for driver onboarding.
type CreateDriverRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Create handles POST /api/drivers
func (h *DriverHandler) Create(c *gin.Context) {
	var req CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidName)
		return
	}

	driver, err := h.driverService.Create(c.Request.Context(), service.CreateDriverRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Actor:    middleware.GetActor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, driverResponse(driver))
}

// Get handles GET /api/drivers/:id
func (h *DriverHandler) Get(c *gin.Context) {
	driver, err := h.driverService.Get(c.Request.Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, driverResponse(driver))
}

// List handles GET /api/drivers
func (h *DriverHandler) List(c *gin.Context) {
	drivers, err := h.driverService.List(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, driverResponse(d))
	}

	respondList(c, response, len(response))
}

// UpdateDriverRequest is the JSON body for driver updates. Absent fields
// are left unchanged.
type UpdateDriverRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// Update handles PUT /api/drivers/:id
func (h *DriverHandler) Update(c *gin.Context) {
	var req UpdateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidDriverID)
		return
	}

	driver, err := h.driverService.Update(c.Request.Context(), service.UpdateDriverRequest{
		DriverID: c.Param("id"),
		Name:     req.Name,
		Email:    req.Email,
		Actor:    middleware.GetActor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, driverResponse(driver))
}

// Delete handles DELETE /api/drivers/:id
func (h *DriverHandler) Delete(c *gin.Context) {
	if err := h.driverService.Delete(c.Request.Context(), c.Param("id"), middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "driver deleted")
}
