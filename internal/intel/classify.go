package intel

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"finintel/internal/apperr"
)

const (
	msgInvalidKey   = "Invalid API credential. Reconfigure the intelligence key and restart the terminal."
	msgMissingKey   = "No API credential configured. Set GEMINI_API_KEY to enable the intelligence node."
	msgOffline      = "Network link offline. Reconnect and retry."
	msgUnreachable  = "Intelligence node unreachable. Check the network link and retry."
	msgSafety       = "Response withheld by content policy. Rephrase the request."
	msgNoCandidates = "The intelligence node returned no candidates."
	msgEmptyText    = "The intelligence node returned an empty analysis."
)

// classify converts a transport error into exactly one AppError, preferring
// structured provider codes over message text.
func classify(err error) *apperr.AppError {
	if err == nil {
		return nil
	}
	if ae, ok := apperr.As(err); ok {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Wrap(err)
	}
	if apiErr, ok := asAPIError(err); ok {
		return classifyAPIError(apiErr, err)
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return apperr.Network(msgUnreachable, err)
	}

	return sniff(err)
}

func asAPIError(err error) (genai.APIError, bool) {
	var val genai.APIError
	if errors.As(err, &val) {
		return val, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

func classifyAPIError(apiErr genai.APIError, cause error) *apperr.AppError {
	switch {
	case apiErr.Code == http.StatusTooManyRequests, apiErr.Status == "RESOURCE_EXHAUSTED":
		return apperr.RateLimited(cause)
	case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden,
		apiErr.Status == "UNAUTHENTICATED", apiErr.Status == "PERMISSION_DENIED":
		return apperr.Auth(msgInvalidKey, cause)
	case apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "api key"):
		return apperr.Auth(msgInvalidKey, cause)
	}
	msg := "Provider fault"
	if apiErr.Message != "" {
		msg = "Provider fault: " + apiErr.Message
	}
	return apperr.API(msg, cause)
}

// sniff is the last-resort classifier for errors without a structured code.
// Provider message formats change; keep every substring rule here.
func sniff(err error) *apperr.AppError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "quota"), strings.Contains(msg, "resource_exhausted"):
		return apperr.RateLimited(err)
	case strings.Contains(msg, "safety"):
		return apperr.Safety(msgSafety, err)
	case strings.Contains(msg, "api key"), strings.Contains(msg, "api_key"):
		return apperr.Auth(msgInvalidKey, err)
	}
	return apperr.Wrap(err)
}
