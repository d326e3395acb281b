package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"contractcreator/internal/types"
)

// RemoteValidator delegates to an HTTP service wrapping the protocol's
// own validation library.
//
// Request:  POST {"schema": <contract JSON>}
// Response: {"errors": [{"path": "...", "message": "...", "category": "..."}]}
type RemoteValidator struct {
	http *http.Client
	url  string
}

func NewRemoteValidator(url string, timeout time.Duration) *RemoteValidator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteValidator{
		http: &http.Client{Timeout: timeout},
		url:  strings.TrimSpace(url),
	}
}

type remoteRequest struct {
	Schema json.RawMessage `json:"schema"`
}

type remoteResponse struct {
	Errors []types.StructuredError `json:"errors"`
}

func (v *RemoteValidator) Validate(ctx context.Context, contractJSON string) ([]types.StructuredError, error) {
	if v.url == "" {
		return nil, ErrValidatorUnavailable
	}
	body, err := json.Marshal(remoteRequest{Schema: json.RawMessage(contractJSON)})
	if err != nil {
		return nil, fmt.Errorf("encode validation request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidatorUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		const max = 2048
		if len(b) > max {
			b = b[:max]
		}
		return nil, fmt.Errorf("validator: unexpected status %s: %s", resp.Status, string(b))
	}
	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode validation response: %w", err)
	}
	for i := range out.Errors {
		if out.Errors[i].Category == "" {
			out.Errors[i].Category = types.CategoryProtocol
		}
	}
	return out.Errors, nil
}
