package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/internal/domain/types"
)

// ErrBadResponse is returned when the service answers with a plan the
// client cannot read.
var ErrBadResponse = errors.New("malformed plan response")

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// apiError mirrors the service's error body.
type apiError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id"`
	Fields    map[string]string `json:"fields"`
}

func (e *apiError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	var b strings.Builder
	b.WriteString(e.Code)
	for _, f := range sortedKeys(e.Fields) {
		fmt.Fprintf(&b, "; %s", e.Fields[f])
	}
	return b.String()
}

// Plan posts req to /plan and decodes the view.
func (c *HTTPClient) Plan(ctx context.Context, req model.Request) (types.PlanView, error) {
	body, err := json.Marshal(types.InputFromRequest(req))
	if err != nil {
		return types.PlanView{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/plan", bytes.NewReader(body))
	if err != nil {
		return types.PlanView{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return types.PlanView{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.PlanView{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &apiError{}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
			return types.PlanView{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return types.PlanView{}, apiErr
	}

	var view types.PlanView
	if err := json.Unmarshal(data, &view); err != nil {
		return types.PlanView{}, fmt.Errorf("failed to decode plan: %w", err)
	}
	if view.Optimal() {
		hours, err := parseHours(view.Hours)
		if err != nil {
			return types.PlanView{}, err
		}
		view.Hours = hours.Map()
	}
	return view, nil
}

// parseHours reads the hours map of an optimal view. Subject keys are
// matched case-insensitively and every subject must be present.
func parseHours(raw map[string]float64) (model.Hours, error) {
	var hours model.Hours
	seen := make(map[model.Subject]bool, len(raw))
	for name, h := range raw {
		s, ok := model.ParseSubject(name)
		if !ok {
			return model.Hours{}, fmt.Errorf("%w: unknown subject %q", ErrBadResponse, name)
		}
		hours[s] = h
		seen[s] = true
	}
	for _, s := range model.Subjects() {
		if !seen[s] {
			return model.Hours{}, fmt.Errorf("%w: missing hours for %s", ErrBadResponse, s)
		}
	}
	return hours, nil
}
