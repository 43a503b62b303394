package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/restopos/internal/config"
	"github.com/mamadbah2/restopos/internal/domain/models"
)

// Client posts daily reports to an HTTP endpoint.
type Client interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client using the provided configuration values.
func NewClient(cfg config.WebhookConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "restopos").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &APIClient{
		httpClient: restyClient,
		url:        cfg.URL,
	}
}

// event wraps the report on the wire.
type event struct {
	Event  string             `json:"event"`
	Report models.DailyReport `json:"report"`
}

// apiError represents an error body returned by the receiver.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SaveDailyReport delivers the report. Any non 2xx answer is an error.
func (c *APIClient) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(event{Event: "report:daily", Report: report}).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post daily report: %w", err)
	}

	if resp.StatusCode() >= http.StatusMultipleChoices {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return fmt.Errorf("report webhook error: code=%d, message=%s", resp.StatusCode(), message)
	}

	return nil
}
