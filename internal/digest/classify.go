package digest

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ErrorKind is the outcome of classifying a backend error
type ErrorKind int

const (
	// KindOther fails the generation immediately
	KindOther ErrorKind = iota
	// KindQuota moves on to the next candidate model
	KindQuota
	// KindCanceled means the caller gave up; no further model is tried
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindQuota:
		return "quota"
	case KindCanceled:
		return "canceled"
	default:
		return "other"
	}
}

// ErrQuotaExceeded can be returned (or wrapped) by a Backend to report a
// rate or usage limit explicitly
var ErrQuotaExceeded = errors.New("quota exceeded")

// Classify decides how the fallback loop treats err
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return KindQuota
	}

	var gerr genai.APIError
	if errors.As(err, &gerr) && isGeminiQuota(gerr) {
		return KindQuota
	}
	var gerrPtr *genai.APIError
	if errors.As(err, &gerrPtr) && gerrPtr != nil && isGeminiQuota(*gerrPtr) {
		return KindQuota
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.Code == "insufficient_quota" || apiErr.Type == "insufficient_quota" {
			return KindQuota
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return KindQuota
	}

	// Some transports only surface the status in the message
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "quota") {
		return KindQuota
	}
	return KindOther
}

func isGeminiQuota(e genai.APIError) bool {
	return e.Code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}
