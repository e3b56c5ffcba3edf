package service

import (
	"context"
	"fmt"
	"strings"

	"finelytics/internal/models"
	"finelytics/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

// GigaChatInsights generates monthly insights with GigaChat.
type GigaChatInsights struct {
	client   *gigago.Client
	model    *gigago.GenerativeModel
	currency string
	logger   *zap.Logger
}

func NewGigaChatInsights(ctx context.Context, cfg *config.GigaChatConfig, currency string, logger *zap.Logger) (*GigaChatInsights, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = insightsSystemInstruction
	model.Temperature = 0.3

	logger.Info("GigaChat insights initialized", zap.String("model", cfg.Model))

	return &GigaChatInsights{
		client:   client,
		model:    model,
		currency: currency,
		logger:   logger,
	}, nil
}

func (s *GigaChatInsights) GenerateInsights(ctx context.Context, stats *models.MonthlyStats, month string) ([]string, error) {
	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: buildInsightsPrompt(stats, month, s.currency)},
	}

	resp, err := s.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from LLM")
	}

	insights, err := parseInsights(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Insights generated", zap.String("month", month), zap.Int("count", len(insights)))
	return insights, nil
}

func (s *GigaChatInsights) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
