package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Defaults applied by NewHTTPPredictor for zero-valued Config fields.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxNewTokens = 96
)

// maxResponseBytes caps how much of an inference response is read.
const maxResponseBytes = 1 << 20

// Config configures an HTTPPredictor.
type Config struct {
	// Endpoint is the URL of a text-generation endpoint that accepts
	// {"inputs": ..., "parameters": {...}} requests.
	Endpoint     string
	Model        string
	APIKey       string
	Timeout      time.Duration
	MaxNewTokens int
	Client       *http.Client
	Logger       *slog.Logger
}

// HTTPPredictor calls a remote text-generation model over HTTP.
type HTTPPredictor struct {
	endpoint     string
	model        string
	apiKey       string
	timeout      time.Duration
	maxNewTokens int
	client       *http.Client
	logger       *slog.Logger
}

// NewHTTPPredictor validates cfg and returns a predictor for its endpoint.
// It returns ErrNotConfigured when cfg.Endpoint is empty.
func NewHTTPPredictor(cfg Config) (*HTTPPredictor, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid model endpoint %q: %w", cfg.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid model endpoint %q: scheme must be http or https", cfg.Endpoint)
	}

	p := &HTTPPredictor{
		endpoint:     u.String(),
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		timeout:      cfg.Timeout,
		maxNewTokens: cfg.MaxNewTokens,
		client:       cfg.Client,
		logger:       cfg.Logger,
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.maxNewTokens <= 0 {
		p.maxNewTokens = DefaultMaxNewTokens
	}
	if p.client == nil {
		p.client = http.DefaultClient
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p, nil
}

// Resolve returns a predictor bound to the named model, or p itself when
// model is empty or matches the configured default.
func (p *HTTPPredictor) Resolve(model string) (Predictor, error) {
	if model == "" || model == p.model {
		return p, nil
	}
	clone := *p
	clone.model = model
	return &clone, nil
}

// Model returns the model name sent with each request.
func (p *HTTPPredictor) Model() string {
	return p.model
}

type generateRequest struct {
	Model      string             `json:"model,omitempty"`
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens int `json:"max_new_tokens"`
}

type generation struct {
	GeneratedText string `json:"generated_text"`
	Error         string `json:"error,omitempty"`
}

// Predict sends the instruction prompt for sql to the endpoint and returns
// the generated explanation. The call is bounded by the configured timeout.
func (p *HTTPPredictor) Predict(ctx context.Context, sql string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:      p.model,
		Inputs:     InstructionPrompt(sql),
		Parameters: generateParameters{MaxNewTokens: p.maxNewTokens},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read inference response: %w", err)
	}
	p.logger.Debug("inference response",
		"model", p.model,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("inference endpoint returned %s: %s", resp.Status, summarize(raw))
	}

	gen, err := decodeGeneration(raw)
	if err != nil {
		return "", err
	}
	if gen.Error != "" {
		return "", fmt.Errorf("inference endpoint error: %s", gen.Error)
	}

	text := strings.TrimSpace(gen.GeneratedText)
	if text == "" {
		return "", ErrEmptyPrediction
	}
	return text, nil
}

// decodeGeneration accepts either a single generation object or a list of
// them, in which case the first one is used.
func decodeGeneration(raw []byte) (generation, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return generation{}, ErrEmptyPrediction
	}

	if raw[0] == '[' {
		var gens []generation
		if err := json.Unmarshal(raw, &gens); err != nil {
			return generation{}, fmt.Errorf("failed to decode inference response: %w", err)
		}
		if len(gens) == 0 {
			return generation{}, ErrEmptyPrediction
		}
		return gens[0], nil
	}

	var gen generation
	if err := json.Unmarshal(raw, &gen); err != nil {
		return generation{}, fmt.Errorf("failed to decode inference response: %w", err)
	}
	return gen, nil
}

// summarize shortens an error body for inclusion in an error message.
func summarize(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return "(empty body)"
	}
	const limit = 200
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// IsTimeout reports whether err came from an inference call that ran out of time.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
