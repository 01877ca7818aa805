package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vuhle/lingocenter/internal/repository"
	"github.com/vuhle/lingocenter/internal/service"
)

// PaymentHandler exposes the gateway redirect and the IPN callback.
type PaymentHandler struct {
	Service *service.PaymentService
	Logger  *zap.Logger
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(svc *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	if svc == nil {
		panic("nil service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Service: svc, Logger: logger}
}

// CreatePaymentURL handles POST /v1/payment/create_payment_url.  It
// returns the signed gateway redirect URL for an unpaid registration.
func (h *PaymentHandler) CreatePaymentURL(c echo.Context) error {
	var body struct {
		RegistrationID uint64 `json:"registration_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RegistrationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "registration_id is required"})
	}
	url, err := h.Service.BuildRedirectURL(c.Request().Context(), c.RealIP(), body.RegistrationID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRegistrationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		case errors.Is(err, service.ErrAlreadyPaid):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "registration is already paid"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

// IPN handles GET /v1/payment/vnpay_ipn.  The gateway treats anything
// but a 200 with an {RspCode, Message} body as a delivery failure and
// retries indefinitely, so this handler always answers 200; a panic
// anywhere below degrades to RspCode 99.
func (h *PaymentHandler) IPN(c echo.Context) error {
	result := func() (res service.IPNResult) {
		defer func() {
			if r := recover(); r != nil {
				h.Logger.Error("ipn handler panic", zap.Any("panic", r))
				res = service.IPNResult{RspCode: service.RspUnknownError, Message: "Unknown Error"}
			}
		}()
		return h.Service.HandleIPN(c.Request().Context(), c.QueryParams())
	}()
	return c.JSON(http.StatusOK, result)
}
