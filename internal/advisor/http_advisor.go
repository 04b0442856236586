package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// request is the advisory allocation contract: the category target and
// the current proposals keyed by participant display name.
type request struct {
	Target    float64            `json:"target"`
	Proposals map[string]float64 `json:"proposals"`
}

// HTTPAdvisor calls an external advisory allocation service over HTTP.
// The response must be a JSON object mapping each request participant
// to a suggested amount; anything else is rejected upstream by the
// resolver's validation.
type HTTPAdvisor struct {
	url    string
	client *http.Client
}

func NewHTTP(url string) *HTTPAdvisor {
	return &HTTPAdvisor{
		url:    url,
		client: &http.Client{},
	}
}

func (a *HTTPAdvisor) Suggest(ctx context.Context, target float64, proposals map[string]float64) (map[string]float64, error) {
	body, err := json.Marshal(request{Target: target, Proposals: proposals})
	if err != nil {
		return nil, fmt.Errorf("failed to encode advisory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("advisory service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("advisory service returned status %d", resp.StatusCode)
	}

	var suggestion map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&suggestion); err != nil {
		return nil, fmt.Errorf("malformed advisory response: %w", err)
	}

	return suggestion, nil
}
