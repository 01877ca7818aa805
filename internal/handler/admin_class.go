package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vuhle/lingocenter/internal/repository"
	"github.com/vuhle/lingocenter/internal/service"
)

// AdminClassHandler exposes the per-session roster statistics and the
// bulk bucket decision to operators.
type AdminClassHandler struct {
	Service *service.ClassAdminService
	Repo    *repository.RegistrationRepo
}

// NewAdminClassHandler constructs an AdminClassHandler.
func NewAdminClassHandler(svc *service.ClassAdminService, repo *repository.RegistrationRepo) *AdminClassHandler {
	if svc == nil || repo == nil {
		panic("nil dependency passed to NewAdminClassHandler")
	}
	return &AdminClassHandler{Service: svc, Repo: repo}
}

// Stats handles GET /v1/admin/classes/stats.
func (h *AdminClassHandler) Stats(c echo.Context) error {
	buckets, err := h.Repo.ClassStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, buckets)
}

// Decide handles POST /v1/admin/classes/decision.  "open" confirms the
// bucket, "cancel" cancels it; anything else is rejected.
func (h *AdminClassHandler) Decide(c echo.Context) error {
	var body struct {
		CourseID       uint64 `json:"course_id"`
		ClassSessionID uint64 `json:"class_session_id"`
		CurrentStatus  string `json:"current_status"`
		Action         string `json:"action"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.CourseID == 0 || body.ClassSessionID == 0 || body.CurrentStatus == "" || body.Action == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "course_id, class_session_id, current_status and action are required"})
	}
	affected, err := h.Service.Decide(c.Request().Context(),
		body.CourseID, body.ClassSessionID, body.CurrentStatus, body.Action)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAction) || errors.Is(err, service.ErrNotPendingBucket) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": affected})
}
