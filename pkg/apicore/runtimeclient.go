package apicore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/runtimeapi"
)

// RuntimeClient is API Core's collaborator boundary onto the per-agent
// Agent Task Runtime, reached "via loopback/HTTP or local socket" (spec.md
// §4.5). context(name)/context_clear(name)/context_compact(name) all need
// the live runtime's in-memory conversation state, so they cross this
// boundary rather than reading the Store directly.
type RuntimeClient interface {
	ContextUsage(ctx context.Context, agentName string) (models.ContextView, error)
	ClearContext(ctx context.Context, agentName string) error
	CompactContext(ctx context.Context, agentName string) error
}

// HTTPRuntimeClient calls an agent's runtimeapi.Server over the Docker
// network the control plane and agent containers share, addressing it by
// the container's DNS name (spec.md §6.1 naming).
type HTTPRuntimeClient struct {
	httpClient *http.Client
	port       int
}

// NewHTTPRuntimeClient builds a RuntimeClient with the given timeout.
func NewHTTPRuntimeClient(timeout time.Duration) *HTTPRuntimeClient {
	return &HTTPRuntimeClient{httpClient: &http.Client{Timeout: timeout}, port: runtimeapi.DefaultPort}
}

func (c *HTTPRuntimeClient) baseURL(agentName string) string {
	return fmt.Sprintf("http://%s:%d", models.ContainerName(agentName), c.port)
}

func (c *HTTPRuntimeClient) ContextUsage(ctx context.Context, agentName string) (models.ContextView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL(agentName)+"/v1/context", nil)
	if err != nil {
		return models.ContextView{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ContextView{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.ContextView{}, fmt.Errorf("runtime control api: unexpected status %d", resp.StatusCode)
	}
	var body struct {
		SoftLimitTokens int     `json:"soft_limit_tokens"`
		UsedEstimated   int     `json:"used_estimated"`
		UsedPercent     float64 `json:"used_percent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.ContextView{}, err
	}
	return models.ContextView{SoftLimit: body.SoftLimitTokens, UsedEstimated: body.UsedEstimated, UsedPercent: body.UsedPercent}, nil
}

func (c *HTTPRuntimeClient) ClearContext(ctx context.Context, agentName string) error {
	return c.postContextOp(ctx, agentName, "/v1/context/clear")
}

func (c *HTTPRuntimeClient) CompactContext(ctx context.Context, agentName string) error {
	return c.postContextOp(ctx, agentName, "/v1/context/compact")
}

func (c *HTTPRuntimeClient) postContextOp(ctx context.Context, agentName, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL(agentName)+path, bytes.NewReader([]byte("{}")))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("runtime control api: unexpected status %d", resp.StatusCode)
	}
	return nil
}
