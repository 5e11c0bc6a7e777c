package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	headerSlackSignature = "X-Slack-Signature"
	headerSlackTimestamp = "X-Slack-Request-Timestamp"

	// DefaultSignatureSkew is the largest accepted distance between the request
	// timestamp and the local clock
	DefaultSignatureSkew = 300 * time.Second
)

// SignatureVerifier checks Slack request signatures against one signing secret.
// Every failure mode returns the same false result.
type SignatureVerifier struct {
	secret string
	skew   time.Duration
	now    func() time.Time
}

type SignatureOption func(*SignatureVerifier)

func WithSignatureClock(now func() time.Time) SignatureOption {
	return func(v *SignatureVerifier) {
		v.now = now
	}
}

func WithSignatureSkew(d time.Duration) SignatureOption {
	return func(v *SignatureVerifier) {
		v.skew = d
	}
}

// NewSignatureVerifier creates a verifier. An empty secret rejects every request.
func NewSignatureVerifier(secret string, opts ...SignatureOption) *SignatureVerifier {
	v := &SignatureVerifier{
		secret: secret,
		skew:   DefaultSignatureSkew,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify reports whether header carries a valid v0 signature of body
func (v *SignatureVerifier) Verify(header http.Header, body []byte) bool {
	if v == nil || v.secret == "" {
		return false
	}

	ts, err := strconv.ParseInt(header.Get(headerSlackTimestamp), 10, 64)
	if err != nil {
		return false
	}
	diff := v.now().Sub(time.Unix(ts, 0))
	if diff < 0 {
		diff = -diff
	}
	if diff > v.skew {
		return false
	}

	signature := header.Get(headerSlackSignature)
	if signature == "" {
		return false
	}

	baseString := fmt.Sprintf("v0:%s:%s", header.Get(headerSlackTimestamp), body)
	mac := hmac.New(sha256.New, []byte(v.secret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return false
	}
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
