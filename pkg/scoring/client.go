package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/utils"
	"go.uber.org/zap"
)

const DefaultTokenEnv = "DATABRICKS_TOKEN"

// StatusError is returned for any non-200 response from the endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d, %s", e.StatusCode, e.Body)
}

// Temporary reports whether a retry could succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// Config configures a ClientImpl. TokenEnv defaults to DefaultTokenEnv and
// HTTPClient to utils.NewHTTPClient().
type Config struct {
	EndpointURL string `validate:"required,url"`
	TokenEnv    string
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Client posts payloads to a model-serving endpoint. It performs exactly one request per call.
type Client interface {
	ScoreFrame(ctx context.Context, frame Frame) (map[string]any, error)
	ScoreInputs(ctx context.Context, inputs map[string][]any) (map[string]any, error)
}

// ClientImpl is the HTTP implementation of Client.
type ClientImpl struct {
	endpoint string
	tokenEnv string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient builds a client for one endpoint. The bearer token is read from TokenEnv on every call.
func NewClient(cfg Config) *ClientImpl {
	tokenEnv := cfg.TokenEnv
	if tokenEnv == "" {
		tokenEnv = DefaultTokenEnv
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = utils.NewHTTPClient()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientImpl{endpoint: cfg.EndpointURL, tokenEnv: tokenEnv, http: hc, logger: logger}
}

// ScoreFrame sends a split oriented frame as {"dataframe_split": ...}.
func (c *ClientImpl) ScoreFrame(ctx context.Context, frame Frame) (map[string]any, error) {
	return c.post(ctx, map[string]any{"dataframe_split": frame})
}

// ScoreInputs sends a column dictionary as {"inputs": ...}.
func (c *ClientImpl) ScoreInputs(ctx context.Context, inputs map[string][]any) (map[string]any, error) {
	return c.post(ctx, map[string]any{"inputs": inputs})
}

func (c *ClientImpl) post(ctx context.Context, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode scoring payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	// token is read on every call and forwarded as is, even when empty
	req.Header.Set("Authorization", "Bearer "+os.Getenv(c.tokenEnv))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("scoring_transport_error", zap.String("endpoint", c.endpoint), zap.Error(err))
		return nil, pkg.NewAppError(pkg.ErrScoreTransportCode, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrScoreTransportCode, "", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("scoring_non_200", zap.Int("status", resp.StatusCode), zap.Int("body_bytes", len(raw)))
		return nil, pkg.NewAppError(pkg.ErrScoreEndpointStatusCode, "", &StatusError{StatusCode: resp.StatusCode, Body: string(raw)})
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, pkg.NewAppError(pkg.ErrScorePredictionsCode, "endpoint returned invalid json", err)
	}
	return out, nil
}

// IsRetryable reports whether err is a transport failure or a temporary endpoint status.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return pkg.CodeOf(err) == pkg.ErrScoreTransportCode.Code
}
