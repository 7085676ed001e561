package pdfservices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/local/pdfextract/internal/extract"
)

// Error codes the service uses when an account runs out of transactions.
var usageCodes = map[string]bool{
	"QUOTA_EXCEEDED":     true,
	"INSUFFICIENT_QUOTA": true,
	"TOO_MANY_REQUESTS":  true,
}

// HTTPError is a non-2xx answer from the service, or a job that ended in
// the failed state.
type HTTPError struct {
	Step       string
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *HTTPError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: HTTP %d", e.Step, e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (request id %s)", e.RequestID)
	}
	return b.String()
}

// isUsage reports whether the failure is a quota or rate limit.
func (e *HTTPError) isUsage() bool {
	return e.StatusCode == 429 || usageCodes[strings.ToUpper(e.Code)]
}

// errorBody covers both error layouts the service returns:
// {"error":{"code":..,"message":..}} and the OAuth style
// {"error":"..","error_description":".."}.
type errorBody struct {
	Error            json.RawMessage `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Code             string          `json:"code"`
	Message          string          `json:"message"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func parseErrorBody(step string, status int, requestID string, body []byte) *HTTPError {
	he := &HTTPError{Step: step, StatusCode: status, RequestID: requestID}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		he.Message = truncate(strings.TrimSpace(string(body)), 300)
		return he
	}
	he.Code, he.Message = eb.Code, eb.Message
	if len(eb.Error) > 0 {
		var d errorDetail
		var s string
		switch {
		case json.Unmarshal(eb.Error, &d) == nil:
			he.Code, he.Message = d.Code, d.Message
		case json.Unmarshal(eb.Error, &s) == nil:
			he.Code, he.Message = s, eb.ErrorDescription
		}
	}
	if he.Message == "" && he.Code == "" {
		he.Message = truncate(strings.TrimSpace(string(body)), 300)
	}
	return he
}

// classify tags err with the kind the orchestrator reports it as.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.isUsage() {
			return extract.Wrap(extract.KindServiceUsage, op, err)
		}
		return extract.Wrap(extract.KindServiceAPI, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return extract.Wrap(extract.KindSDK, op, fmt.Errorf("timed out: %w", err))
	}
	return extract.Wrap(extract.KindSDK, op, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
