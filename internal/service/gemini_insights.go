package service

import (
	"context"
	"fmt"

	"finelytics/internal/models"
	"finelytics/pkg/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiInsights generates monthly insights with a Gemini model.
type GeminiInsights struct {
	client   *genai.Client
	model    string
	currency string
	logger   *zap.Logger
}

func NewGeminiInsights(ctx context.Context, cfg *config.GeminiConfig, currency string, logger *zap.Logger) (*GeminiInsights, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	logger.Info("Gemini insights initialized", zap.String("model", cfg.Model))

	return &GeminiInsights{
		client:   client,
		model:    cfg.Model,
		currency: currency,
		logger:   logger,
	}, nil
}

func (s *GeminiInsights) GenerateInsights(ctx context.Context, stats *models.MonthlyStats, month string) ([]string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model,
		genai.Text(buildInsightsPrompt(stats, month, s.currency)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(insightsSystemInstruction, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.3),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	insights, err := parseInsights(raw)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Insights generated", zap.String("month", month), zap.Int("count", len(insights)))
	return insights, nil
}
