package classification

import (
	"errors"
	"net/http"

	"leadcall_backend/platform/ai/moonshot"

	"google.golang.org/genai"
)

// isRetryable reports whether err is a rate limit or server error from the reasoning service.
// Transport errors, cancellations and other statuses are not retried.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var kimiErr *moonshot.APIError
	if errors.As(err, &kimiErr) {
		return retryableStatus(kimiErr.StatusCode)
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return retryableStatus(geminiErr.Code)
	}

	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) && geminiErrPtr != nil {
		return retryableStatus(geminiErrPtr.Code)
	}

	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
