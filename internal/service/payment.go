package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vuhle/lingocenter/internal/queue"
	"github.com/vuhle/lingocenter/internal/repository"
	"github.com/vuhle/lingocenter/internal/vnpay"
)

// GatewayConfig carries the deployment secrets of the payment gateway.
type GatewayConfig struct {
	TmnCode    string // merchant code assigned by the gateway
	HashSecret string // shared HMAC secret
	BaseURL    string // gateway endpoint for the client redirect
	ReturnURL  string // where the gateway sends the client back
}

// IPN response codes acknowledged to the gateway.  The HTTP status is
// always 200; these codes are the actual outcome channel.
const (
	RspSuccess          = "00" // payment recorded
	RspOrderNotFound    = "01" // no registration for the transaction ref
	RspAlreadyConfirmed = "02" // registration was already paid
	RspInvalidSignature = "97" // signature mismatch
	RspUnknownError     = "99" // failed payment or internal error
)

// IPNResult is the structured acknowledgment body sent back to the
// gateway.  Field names follow the gateway's contract.
type IPNResult struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// PaymentService builds signed redirect URLs and processes asynchronous
// payment notifications.
type PaymentService struct {
	regs     RegistrationStore
	invoices InvoiceDispatcher
	gateway  GatewayConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(regs RegistrationStore, invoices InvoiceDispatcher, gateway GatewayConfig, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		regs:     regs,
		invoices: invoices,
		gateway:  gateway,
		logger:   logger,
		now:      time.Now,
	}
}

// BuildRedirectURL assembles the signed gateway URL for an unpaid
// registration.  The transaction reference is the registration id; the
// order info combines the student code, the ASCII-folded full name and
// the course code, since the gateway rejects non-ASCII order strings.
func (s *PaymentService) BuildRedirectURL(ctx context.Context, clientIP string, registrationID uint64) (string, error) {
	info, err := s.regs.PaymentDetail(ctx, registrationID)
	if err != nil {
		return "", err
	}
	if info.IsPaid {
		return "", ErrAlreadyPaid
	}
	orderInfo := strings.TrimSpace(info.UserCode + " " + vnpay.FoldASCII(info.UserName) + " " + info.CourseCode)
	params := map[string]string{
		"vnp_Version":   "2.1.0",
		"vnp_Command":   "pay",
		"vnp_TmnCode":   s.gateway.TmnCode,
		"vnp_Locale":    "vn",
		"vnp_CurrCode":  "VND",
		"vnp_TxnRef":    strconv.FormatUint(info.ID, 10),
		"vnp_OrderInfo": orderInfo,
		"vnp_OrderType": "other",
		// The gateway expects amounts in minor units: VND x 100.
		"vnp_Amount":     strconv.FormatInt(info.Amount*100, 10),
		"vnp_ReturnUrl":  s.gateway.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": s.now().UTC().Format("20060102150405"),
	}
	return vnpay.BuildURL(s.gateway.BaseURL, s.gateway.HashSecret, params), nil
}

// HandleIPN processes an asynchronous gateway notification and returns
// the acknowledgment to send back.  The signature is verified before any
// state is touched; a verified success settles the registration
// idempotently; a verified failure acknowledges without mutating.  Every
// internal error degrades to RspCode 99: the gateway retries on
// anything else, including non-200 responses, so this path never
// propagates errors.
func (s *PaymentService) HandleIPN(ctx context.Context, values url.Values) IPNResult {
	n, err := vnpay.ParseNotification(values)
	if err != nil {
		s.logger.Warn("ipn payload rejected", zap.Error(err))
		return IPNResult{RspCode: RspInvalidSignature, Message: "Invalid Checksum"}
	}
	if !n.Verify(s.gateway.HashSecret) {
		s.logger.Warn("ipn signature mismatch", zap.String("txn_ref", n.TxnRef))
		return IPNResult{RspCode: RspInvalidSignature, Message: "Invalid Checksum"}
	}

	registrationID, err := strconv.ParseUint(n.TxnRef, 10, 64)
	if err != nil {
		return IPNResult{RspCode: RspOrderNotFound, Message: "Order Not Found"}
	}
	info, err := s.regs.PaymentDetail(ctx, registrationID)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			// The reclamation sweep may have deleted the registration
			// before a delayed IPN arrived.
			return IPNResult{RspCode: RspOrderNotFound, Message: "Order Not Found"}
		}
		s.logger.Error("ipn registration lookup", zap.Uint64("registration_id", registrationID), zap.Error(err))
		return IPNResult{RspCode: RspUnknownError, Message: "Unknown Error"}
	}
	if info.IsPaid {
		return IPNResult{RspCode: RspAlreadyConfirmed, Message: "Order Already Confirmed"}
	}
	if !n.Success() {
		// Verified but unsuccessful: acknowledge without touching state.
		return IPNResult{RspCode: RspUnknownError, Message: "Payment Failed"}
	}

	when := s.now().UTC()
	ok, err := s.regs.MarkPaid(ctx, registrationID, nil, when)
	if err != nil {
		s.logger.Error("ipn confirm payment", zap.Uint64("registration_id", registrationID), zap.Error(err))
		return IPNResult{RspCode: RspUnknownError, Message: "Unknown Error"}
	}
	if !ok {
		// Lost the race against another confirmation; that one owns the
		// invoice dispatch.
		return IPNResult{RspCode: RspAlreadyConfirmed, Message: "Order Already Confirmed"}
	}

	event := queue.InvoicePaidEvent{
		EventID:        uuid.NewString(),
		RegistrationID: info.ID,
		UserCode:       info.UserCode,
		UserName:       info.UserName,
		Email:          info.UserEmail,
		CourseCode:     info.CourseCode,
		CourseName:     info.CourseName,
		Amount:         info.Amount,
		PaidAt:         when.Format(time.RFC3339),
	}
	if err := s.invoices.DispatchInvoicePaid(ctx, event); err != nil {
		// Logged and swallowed: the payment is confirmed regardless.
		s.logger.Error("invoice dispatch", zap.Uint64("registration_id", info.ID), zap.Error(err))
	}
	return IPNResult{RspCode: RspSuccess, Message: "Confirm Success"}
}
