package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"registration-form-api/internal/config"
	"registration-form-api/internal/domain"
	"registration-form-api/internal/metrics"
)

// EventSource lists the events forms can be designed for
type EventSource interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
}

// httpEventSource reads events from the event service
type httpEventSource struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewHTTPEventSource creates an EventSource backed by GET {baseURL}/api/events
func NewHTTPEventSource(baseURL string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) EventSource {
	return &httpEventSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// ListEvents fetches the event feed. The feed may be a bare array or wrapped in {"data": [...]}.
func (c *httpEventSource) ListEvents(ctx context.Context) ([]domain.Event, error) {
	url := fmt.Sprintf("%s/api/events", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	c.metrics.RecordExternalAPICall(url, http.MethodGet, statusCode, duration, err)

	if err != nil {
		c.logger.Error("Failed to fetch events",
			zap.String("url", url),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Event service returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)),
		)
		return nil, fmt.Errorf("event service returned status %d", resp.StatusCode)
	}

	events, err := decodeEvents(body)
	if err != nil {
		c.logger.Error("Failed to decode events", zap.Error(err))
		return nil, err
	}

	c.logger.Debug("Fetched events",
		zap.Int("count", len(events)),
		zap.Duration("duration", duration),
	)
	return events, nil
}

func decodeEvents(body []byte) ([]domain.Event, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var events []domain.Event
		if err := json.Unmarshal(body, &events); err != nil {
			return nil, fmt.Errorf("failed to decode events: %w", err)
		}
		return events, nil
	}

	var wrapped struct {
		Data []domain.Event `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	if wrapped.Data == nil {
		return []domain.Event{}, nil
	}
	return wrapped.Data, nil
}

// staticEventSource serves a fixed event list
type staticEventSource struct {
	events []domain.Event
}

// NewStaticEventSource creates an EventSource from configured events
func NewStaticEventSource(events []config.EventConfig) EventSource {
	list := make([]domain.Event, 0, len(events))
	for _, e := range events {
		list = append(list, domain.Event{
			ID:     e.ID,
			Name:   e.Name,
			Date:   e.Date,
			Image:  e.Image,
			Status: domain.EventStatus(e.Status),
		})
	}
	return &staticEventSource{events: list}
}

func (s *staticEventSource) ListEvents(context.Context) ([]domain.Event, error) {
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out, nil
}
