package vnpay

import (
	"fmt"
	"net/url"
	"strings"
)

// notificationFields is the allow-list of query parameters accepted on the
// IPN path.  Anything else with a vnp_ prefix is rejected before
// canonicalization so an attacker cannot smuggle unsigned fields into the
// handler's view of the payload.
var notificationFields = map[string]bool{
	"vnp_TmnCode":           true,
	"vnp_Amount":            true,
	"vnp_BankCode":          true,
	"vnp_BankTranNo":        true,
	"vnp_CardType":          true,
	"vnp_PayDate":           true,
	"vnp_OrderInfo":         true,
	"vnp_TransactionNo":     true,
	"vnp_ResponseCode":      true,
	"vnp_TransactionStatus": true,
	"vnp_TxnRef":            true,
	SecureHashField:         true,
	secureHashTypeField:     true,
}

// ResponseCodeSuccess is the gateway's code for a settled transaction.
const ResponseCodeSuccess = "00"

// Notification is the typed, allow-listed view of an inbound IPN payload.
// signed holds exactly the recognized parameters minus the hash fields,
// preserving the received values byte-for-byte for verification.
type Notification struct {
	TmnCode           string
	TxnRef            string
	Amount            string
	OrderInfo         string
	ResponseCode      string
	TransactionNo     string
	TransactionStatus string
	BankCode          string
	PayDate           string
	SecureHash        string

	signed map[string]string
}

// ParseNotification converts raw query values into a Notification.  It
// returns an error when a recognized field repeats, when an unknown
// vnp_-prefixed field is present, or when the signature or transaction
// reference is missing.  Non-vnp_ query noise (e.g. tracking parameters
// added by intermediaries) is ignored rather than signed over.
func ParseNotification(values url.Values) (*Notification, error) {
	n := &Notification{signed: make(map[string]string, len(values))}
	for key, vals := range values {
		if !strings.HasPrefix(key, "vnp_") {
			continue
		}
		if !notificationFields[key] {
			return nil, fmt.Errorf("unrecognized gateway field %q", key)
		}
		if len(vals) != 1 {
			return nil, fmt.Errorf("repeated gateway field %q", key)
		}
		v := vals[0]
		switch key {
		case SecureHashField:
			n.SecureHash = v
			continue
		case secureHashTypeField:
			continue
		case "vnp_TmnCode":
			n.TmnCode = v
		case "vnp_TxnRef":
			n.TxnRef = v
		case "vnp_Amount":
			n.Amount = v
		case "vnp_OrderInfo":
			n.OrderInfo = v
		case "vnp_ResponseCode":
			n.ResponseCode = v
		case "vnp_TransactionNo":
			n.TransactionNo = v
		case "vnp_TransactionStatus":
			n.TransactionStatus = v
		case "vnp_BankCode":
			n.BankCode = v
		case "vnp_PayDate":
			n.PayDate = v
		}
		n.signed[key] = v
	}
	if n.SecureHash == "" {
		return nil, fmt.Errorf("missing %s", SecureHashField)
	}
	if n.TxnRef == "" {
		return nil, fmt.Errorf("missing vnp_TxnRef")
	}
	return n, nil
}

// Verify recomputes the signature over the received parameters and
// compares it with the hash the gateway sent.
func (n *Notification) Verify(secret string) bool {
	return VerifyParams(secret, n.signed, n.SecureHash)
}

// Success reports whether the notification carries the gateway's success
// code.  Some gateway versions send the final state in
// vnp_TransactionStatus as well; when present it must agree.
func (n *Notification) Success() bool {
	if n.ResponseCode != ResponseCodeSuccess {
		return false
	}
	return n.TransactionStatus == "" || n.TransactionStatus == ResponseCodeSuccess
}
