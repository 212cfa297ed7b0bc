package sentiment

import (
	"context"
	"fmt"
	"net/http"

	"sentcorr/internal/api"
	"sentcorr/internal/interfaces"
)

// HTTPModel calls a model endpoint that accepts {"text": ...} and answers
// {"score": ...}.
type HTTPModel struct {
	client   *api.Client
	endpoint string
	retry    *api.RetryConfig
}

var _ interfaces.SentimentCapability = (*HTTPModel)(nil)

// NewHTTPModel returns a capability posting to endpoint.
func NewHTTPModel(endpoint string, opts ...api.ClientOption) *HTTPModel {
	return &HTTPModel{
		client:   api.NewClient(opts...),
		endpoint: endpoint,
		retry:    api.DefaultRetryConfig(),
	}
}

func (m *HTTPModel) Name() string { return "http" }

func (m *HTTPModel) Score(ctx context.Context, text string) (float64, error) {
	req := api.NewRequest(http.MethodPost, m.endpoint).
		WithContext(ctx).
		WithBody(map[string]string{"text": text})
	resp, err := m.client.DoWithRetry(req, m.retry)
	if err != nil {
		return 0, err
	}

	var out struct {
		Score *float64 `json:"score"`
	}
	if err := resp.ParseJSON(&out); err != nil {
		return 0, err
	}
	if out.Score == nil {
		return 0, fmt.Errorf("response has no score field")
	}
	return *out.Score, nil
}
