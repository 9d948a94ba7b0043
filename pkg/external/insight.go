package external

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/motomind/vin-decoder-service/internal/domain"
)

// InsightClient generates short natural-language insights about a decoded
// vehicle through an OpenAI-compatible completion API. Enrichment never
// blocks a decode, so all failures here are reported to the caller and
// swallowed upstream.
type InsightClient struct {
	llm        *openai.LLM
	model      string
	maxRetries int
	retryPause time.Duration
	logger     *logrus.Logger
}

// NewInsightClient creates a new insight client. Returns an error when the
// underlying client cannot be constructed; an empty API key should be
// handled by the caller by not constructing a client at all.
func NewInsightClient(config domain.InsightConfig, logger *logrus.Logger) (*InsightClient, error) {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 1
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating insight client: %w", err)
	}

	return &InsightClient{
		llm:        llm,
		model:      config.Model,
		maxRetries: config.MaxRetries,
		retryPause: 2 * time.Second,
		logger:     logger,
	}, nil
}

// insightPayload is the JSON shape the model is asked to produce.
type insightPayload struct {
	Summary          string  `json:"summary"`
	ReliabilityScore float64 `json:"reliability_score"`
	MaintenanceTip   string  `json:"maintenance_tip"`
	CostTip          string  `json:"cost_tip"`
}

// GenerateInsight produces an AI-written summary and ownership tips for a
// decoded vehicle. Retries once on failure before giving up.
func (c *InsightClient) GenerateInsight(ctx context.Context, vehicle *domain.DecodedVehicle) (*domain.AIInsight, error) {
	prompt := buildInsightPrompt(vehicle)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"vin":     vehicle.VIN,
				"attempt": attempt,
			}).Warn("Retrying insight generation")
			select {
			case <-time.After(c.retryPause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		completion, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
			llms.WithTemperature(0.3),
			llms.WithMaxTokens(400),
		)
		if err != nil {
			lastErr = fmt.Errorf("insight completion failed: %w", err)
			continue
		}

		insight, err := parseInsight(completion)
		if err != nil {
			lastErr = err
			continue
		}
		return insight, nil
	}

	return nil, lastErr
}

func buildInsightPrompt(vehicle *domain.DecodedVehicle) string {
	var sb strings.Builder
	sb.WriteString("You are an automotive expert. Given the vehicle below, respond with ONLY a JSON object with keys ")
	sb.WriteString(`"summary" (2-3 sentence overview), "reliability_score" (number between 0 and 1), `)
	sb.WriteString(`"maintenance_tip" (one sentence), and "cost_tip" (one sentence).`)
	sb.WriteString("\n\nVehicle:\n")
	fmt.Fprintf(&sb, "- Year: %d\n", vehicle.Year)
	fmt.Fprintf(&sb, "- Make: %s\n", vehicle.Make)
	fmt.Fprintf(&sb, "- Model: %s\n", vehicle.Model)
	if vehicle.Trim != "" {
		fmt.Fprintf(&sb, "- Trim: %s\n", vehicle.Trim)
	}
	if vehicle.BodyType != "" {
		fmt.Fprintf(&sb, "- Body: %s\n", vehicle.BodyType)
	}
	if vehicle.Engine != "" {
		fmt.Fprintf(&sb, "- Engine: %s\n", vehicle.Engine)
	}
	if vehicle.FuelType != "" {
		fmt.Fprintf(&sb, "- Fuel: %s\n", vehicle.FuelType)
	}
	if vehicle.DriveType != "" {
		fmt.Fprintf(&sb, "- Drive: %s\n", vehicle.DriveType)
	}
	return sb.String()
}

// parseInsight extracts the JSON payload from a completion, tolerating
// markdown code fences around the object.
func parseInsight(completion string) (*domain.AIInsight, error) {
	cleaned := strings.TrimSpace(completion)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("insight response contained no JSON object")
	}

	var payload insightPayload
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse insight response: %w", err)
	}

	if payload.Summary == "" {
		return nil, fmt.Errorf("insight response missing summary")
	}

	score := payload.ReliabilityScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return &domain.AIInsight{
		Summary:          payload.Summary,
		ReliabilityScore: score,
		MaintenanceTip:   payload.MaintenanceTip,
		CostTip:          payload.CostTip,
	}, nil
}
