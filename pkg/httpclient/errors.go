package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// backendErrorBody matches the error payloads the commerce backend emits.
// Some endpoints return a bare {"message": ...}, others nest it under "error".
type backendErrorBody struct {
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError translates a non-2xx commerce backend response into an
// AppError. A 401 is always an Unauthorized error, distinct from generic API
// failures, so the consumer can prompt for a new credential. The response body
// is fully consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		bodyBytes = nil
	}

	message := ""
	var parsed backendErrorBody
	if json.Unmarshal(bodyBytes, &parsed) == nil {
		switch {
		case parsed.Error != nil && parsed.Error.Message != "":
			message = parsed.Error.Message
		case parsed.Message != "":
			message = parsed.Message
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if message == "" {
			message = "invalid or expired access token"
		}
		return apperrors.Unauthorized(message)
	}

	if message == "" {
		message = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return apperrors.API(resp.StatusCode, message)
}
