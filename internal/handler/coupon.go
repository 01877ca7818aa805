package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vuhle/lingocenter/internal/repository"
	"github.com/vuhle/lingocenter/internal/service"
)

// CouponHandler exposes coupon application over HTTP.
type CouponHandler struct {
	Service *service.CouponService
}

// NewCouponHandler constructs a CouponHandler.
func NewCouponHandler(svc *service.CouponService) *CouponHandler {
	if svc == nil {
		panic("nil service passed to NewCouponHandler")
	}
	return &CouponHandler{Service: svc}
}

// Apply handles POST /v1/coupons/apply.  Any validation failure
// (unknown code, inactive, outside its window, exhausted, below the
// minimum order) is a 400 with the rule that failed.
func (h *CouponHandler) Apply(c echo.Context) error {
	var body struct {
		RegistrationID uint64 `json:"registration_id"`
		CouponCode     string `json:"coupon_code"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RegistrationID == 0 || body.CouponCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "registration_id and coupon_code are required"})
	}
	result, err := h.Service.Apply(c.Request().Context(), body.RegistrationID, body.CouponCode)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRegistrationNotFound),
			errors.Is(err, repository.ErrCouponNotFound),
			errors.Is(err, repository.ErrCouponExhausted),
			errors.Is(err, service.ErrAlreadyPaid),
			errors.Is(err, service.ErrCouponAlreadyApplied),
			errors.Is(err, service.ErrCouponInactive),
			errors.Is(err, service.ErrCouponNotStarted),
			errors.Is(err, service.ErrCouponExpired),
			errors.Is(err, service.ErrCouponMinOrder):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, result)
}
