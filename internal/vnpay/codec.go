// Package vnpay implements the signed redirect/notification protocol of the
// VNPay payment gateway: deterministic parameter canonicalization, HMAC
// signature compute/verify, and a typed view of the asynchronous
// notification payload.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// SecureHashField is the query parameter carrying the signature.  It is
// excluded from the canonical form on both the outbound and inbound path.
const SecureHashField = "vnp_SecureHash"

// secureHashTypeField is sent by some gateway versions alongside the hash
// and is likewise excluded from signing.
const secureHashTypeField = "vnp_SecureHashType"

// Canonicalize produces the byte string that is signed: every key and
// value percent-encoded (spaces rendered as '+'), entries sorted by
// encoded key in byte-lexicographic order, joined as "k=v&k=v".  The
// output must be byte-identical between URL construction and notification
// verification or every signature check fails.
func Canonicalize(params map[string]string) string {
	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, pair{url.QueryEscape(k), url.QueryEscape(v)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.k)
		b.WriteByte('=')
		b.WriteString(p.v)
	}
	return b.String()
}

// Sign computes the hex-encoded HMAC-SHA512 of the canonical string under
// the shared gateway secret.
func Sign(secret, canonical string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignParams canonicalizes params and signs the result.
func SignParams(secret string, params map[string]string) string {
	return Sign(secret, Canonicalize(params))
}

// VerifyParams recomputes the signature over params (which must not
// contain the hash fields) and compares it byte-for-byte with the
// received signature.  Comparison is constant time; the received hash is
// accepted in either hex case.
func VerifyParams(secret string, params map[string]string, received string) bool {
	expected := SignParams(secret, params)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}

// BuildURL assembles the full redirect URL: the canonical query with the
// signature appended as vnp_SecureHash.  The canonical form doubles as the
// query string, so what the client carries to the gateway is exactly what
// was signed.
func BuildURL(baseURL, secret string, params map[string]string) string {
	canonical := Canonicalize(params)
	return baseURL + "?" + canonical + "&" + SecureHashField + "=" + Sign(secret, canonical)
}
