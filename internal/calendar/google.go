// Package calendar talks to the Google Calendar REST API on behalf of the
// service account configured for the deployment.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/example/room-reservations/internal/application"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Config holds the OAuth2 credentials and target calendar.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string
}

// GoogleClient creates and deletes calendar events for committed
// reservations. It implements application.CalendarSync.
type GoogleClient struct {
	httpClient *http.Client
	baseURL    string
	calendarID string
}

var _ application.CalendarSync = (*GoogleClient)(nil)

// NewGoogleClient builds a client whose HTTP transport refreshes the access
// token automatically from the configured refresh token.
func NewGoogleClient(cfg Config) *GoogleClient {
	oauthConfig := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Scopes: []string{"https://www.googleapis.com/auth/calendar.events"},
	}

	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}
	httpClient := oauthConfig.Client(context.Background(), token)
	httpClient.Timeout = 10 * time.Second

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &GoogleClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		calendarID: cfg.CalendarID,
	}
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventPayload struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Location    string        `json:"location,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
}

type eventResponse struct {
	ID string `json:"id"`
}

// CreateEvent inserts a calendar event for the reservation and returns the
// event id.
func (c *GoogleClient) CreateEvent(ctx context.Context, detail application.ReservationDetail) (string, error) {
	payload := eventPayload{
		Summary:     fmt.Sprintf("Reserva: %s", detail.Room.Name),
		Description: fmt.Sprintf("Reserva de sala para %s", detail.User.DisplayName),
		Location:    detail.Room.Name,
		Start:       eventDateTime{DateTime: detail.Reservation.StartAt.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:         eventDateTime{DateTime: detail.Reservation.EndAt.UTC().Format(time.RFC3339), TimeZone: "UTC"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}

	url := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, c.calendarID)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return "", fmt.Errorf("insert event: status %d: %s", response.StatusCode, snippet)
	}

	var event eventResponse
	if err := json.NewDecoder(response.Body).Decode(&event); err != nil {
		return "", fmt.Errorf("decode event response: %w", err)
	}
	return event.ID, nil
}

// DeleteEvent removes a previously created event. A missing event is treated
// as already deleted.
func (c *GoogleClient) DeleteEvent(ctx context.Context, eventID string) error {
	url := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, c.calendarID, eventID)
	request, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	defer response.Body.Close()
	io.Copy(io.Discard, response.Body)

	if response.StatusCode == http.StatusNotFound || response.StatusCode == http.StatusGone {
		return nil
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("delete event: status %d", response.StatusCode)
	}
	return nil
}
