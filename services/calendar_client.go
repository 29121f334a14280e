package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// CalendarClient is the surface of the external calendar bridge the
// coordinator depends on
type CalendarClient interface {
	// ListConnectedCalendars returns the ids of all connected calendars
	ListConnectedCalendars(ctx context.Context) ([]string, error)
	// ListUpcomingEvents returns upcoming events for one calendar
	ListUpcomingEvents(ctx context.Context, calendarID string) ([]CalendarEvent, error)
}

// CalendarEvent is one event fetched from the calendar bridge
type CalendarEvent struct {
	ID         string    `json:"id"`
	Summary    string    `json:"summary"`
	MeetingURL string    `json:"meeting_url"`
	StartTime  time.Time `json:"start_time"`
	Attendees  []string  `json:"attendees"`
}

// CalendarBridgeClient talks to the calendar bridge service over HTTP
type CalendarBridgeClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewCalendarBridgeClient creates a calendar bridge client from the
// environment
func NewCalendarBridgeClient() *CalendarBridgeClient {
	baseURL := os.Getenv("CALENDAR_BRIDGE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8082"
	}

	return &CalendarBridgeClient{
		BaseURL: baseURL,
		APIKey:  os.Getenv("CALENDAR_BRIDGE_API_KEY"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListConnectedCalendars returns the ids of all connected calendars
func (c *CalendarBridgeClient) ListConnectedCalendars(ctx context.Context) ([]string, error) {
	var result struct {
		Calendars []struct {
			ID string `json:"id"`
		} `json:"calendars"`
	}
	if err := c.get(ctx, "/calendars", &result); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Calendars))
	for _, cal := range result.Calendars {
		ids = append(ids, cal.ID)
	}
	return ids, nil
}

// ListUpcomingEvents returns upcoming events for one calendar
func (c *CalendarBridgeClient) ListUpcomingEvents(ctx context.Context, calendarID string) ([]CalendarEvent, error) {
	var result struct {
		Events []CalendarEvent `json:"events"`
	}
	if err := c.get(ctx, "/calendars/"+calendarID+"/events", &result); err != nil {
		return nil, err
	}
	return result.Events, nil
}

func (c *CalendarBridgeClient) get(ctx context.Context, path string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("calendar bridge returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
