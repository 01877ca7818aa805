package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vuhle/lingocenter/internal/middleware"
	"github.com/vuhle/lingocenter/internal/repository"
	"github.com/vuhle/lingocenter/internal/service"
)

// RegistrationHandler exposes the registration lifecycle over HTTP.
// Reads go straight to the repository's detail queries; every mutation
// goes through the service so its rules hold on all paths.
type RegistrationHandler struct {
	Service *service.RegistrationService
	Repo    *repository.RegistrationRepo
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(svc *service.RegistrationService, repo *repository.RegistrationRepo) *RegistrationHandler {
	if svc == nil || repo == nil {
		panic("nil dependency passed to NewRegistrationHandler")
	}
	return &RegistrationHandler{Service: svc, Repo: repo}
}

// Create handles POST /v1/registrations.  A duplicate active
// registration for the same user and course is rejected with 400.
func (h *RegistrationHandler) Create(c echo.Context) error {
	var body struct {
		UserID         uint64  `json:"user_id"`
		CourseID       uint64  `json:"course_id"`
		ClassSessionID *uint64 `json:"class_session_id"`
		PaymentMethod  string  `json:"payment_method"`
		CouponID       *uint64 `json:"coupon_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.UserID == 0 || body.CourseID == 0 || body.PaymentMethod == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id, course_id and payment_method are required"})
	}
	reg, err := h.Service.Create(c.Request().Context(), service.CreateInput{
		UserID:         body.UserID,
		CourseID:       body.CourseID,
		ClassSessionID: body.ClassSessionID,
		PaymentMethod:  body.PaymentMethod,
		CouponID:       body.CouponID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyRegistered) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "already_registered"})
		}
		return registrationError(c, err)
	}
	return c.JSON(http.StatusCreated, reg)
}

// List handles GET /v1/registrations.
func (h *RegistrationHandler) List(c echo.Context) error {
	details, err := h.Repo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, details)
}

// ListByUser handles GET /v1/registrations/user/:userId.
func (h *RegistrationHandler) ListByUser(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	details, err := h.Repo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, details)
}

// ListByCourse handles GET /v1/registrations/course/:courseId.
func (h *RegistrationHandler) ListByCourse(c echo.Context) error {
	courseID, err := strconv.ParseUint(c.Param("courseId"), 10, 64)
	if err != nil || courseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	details, err := h.Repo.ListByCourse(c.Request().Context(), courseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, details)
}

// Get handles GET /v1/registrations/:id.
func (h *RegistrationHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}
	detail, err := h.Repo.GetDetail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, detail)
}

// Cancel handles DELETE /v1/registrations/:id.
func (h *RegistrationHandler) Cancel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}
	if err := h.Service.Cancel(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": id})
}

// CancelBatch handles DELETE /v1/registrations/multiple.  When any
// target is paid the whole batch is rejected and nothing is deleted.
func (h *RegistrationHandler) CancelBatch(c echo.Context) error {
	var body struct {
		RegistrationIDs []uint64 `json:"registration_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.RegistrationIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "registration_ids is required"})
	}
	deleted, err := h.Service.CancelBatch(c.Request().Context(), body.RegistrationIDs)
	if err != nil {
		if errors.Is(err, service.ErrBatchContainsPaid) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "batch contains a paid registration"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}

// Pay handles PATCH /v1/registrations/:id/pay: the authenticated student
// confirms their own registration.  A registration owned by someone else
// is reported as not found.
func (h *RegistrationHandler) Pay(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return h.confirm(c, &userID)
}

// ConfirmPayment handles PATCH /v1/registrations/:id/confirm-payment:
// admin confirmation without ownership scoping, used for cash payments.
func (h *RegistrationHandler) ConfirmPayment(c echo.Context) error {
	return h.confirm(c, nil)
}

func (h *RegistrationHandler) confirm(c echo.Context, owner *uint64) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}
	reg, err := h.Service.ConfirmPayment(c.Request().Context(), id, owner)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, reg)
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return id, nil
}

var errInvalidID = errors.New("invalid id")

// registrationError maps creation failures onto HTTP responses:
// validation and reference errors are 400s, anything else is a 500.
func registrationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrSessionCourseMismatch),
		errors.Is(err, service.ErrCouponInactive),
		errors.Is(err, service.ErrCouponNotStarted),
		errors.Is(err, service.ErrCouponExpired),
		errors.Is(err, service.ErrCouponMinOrder),
		errors.Is(err, repository.ErrCouponExhausted),
		errors.Is(err, repository.ErrCouponNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCourseNotFound),
		errors.Is(err, repository.ErrClassSessionNotFound):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
