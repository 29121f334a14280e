package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// BotStatusDone is the terminal status code reported by the bot service when
// a recording has finished
const BotStatusDone = "done"

// MeetingBotClient is the surface of the external meeting-recording bot
// service the coordinator depends on
type MeetingBotClient interface {
	// SendToMeeting dispatches a bot to the given meeting URL and returns
	// the bot id
	SendToMeeting(ctx context.Context, meetingURL string) (string, error)
	// GetMeetingInformation returns the bot's status history and recordings
	GetMeetingInformation(ctx context.Context, botID string) (*MeetingInformation, error)
	// FetchTranscript downloads and decodes the transcript artifact at the
	// given signed URL
	FetchTranscript(ctx context.Context, downloadURL string) ([]SpeakerTurn, error)
	// DownloadMedia downloads a media artifact (e.g. the replay video) from
	// a signed URL
	DownloadMedia(ctx context.Context, downloadURL string) ([]byte, error)
}

// BotStatusChange is one entry of a bot's status history
type BotStatusChange struct {
	Code      string    `json:"code"` // e.g. "joining_call", "in_call_recording", "done"
	CreatedAt time.Time `json:"created_at"`
}

// MediaArtifact points at a downloadable artifact via a signed URL
type MediaArtifact struct {
	Data struct {
		DownloadURL string `json:"download_url"`
	} `json:"data"`
}

// MediaShortcuts groups the artifacts of one recording
type MediaShortcuts struct {
	Transcript *MediaArtifact `json:"transcript,omitempty"`
	VideoMixed *MediaArtifact `json:"video_mixed,omitempty"`
}

// BotRecording is one recording produced by a bot
type BotRecording struct {
	ID             string         `json:"id"`
	MediaShortcuts MediaShortcuts `json:"media_shortcuts"`
}

// MeetingInformation is the bot service's view of a dispatched bot
type MeetingInformation struct {
	ID            string            `json:"id"`
	StatusChanges []BotStatusChange `json:"status_changes"`
	Recordings    []BotRecording    `json:"recordings"`
}

// IsDone reports whether the status history contains a terminal "done" entry
func (m *MeetingInformation) IsDone() bool {
	for _, change := range m.StatusChanges {
		if change.Code == BotStatusDone {
			return true
		}
	}
	return false
}

// TranscriptDownloadURL returns the signed URL of the first transcript
// artifact, or an empty string
func (m *MeetingInformation) TranscriptDownloadURL() string {
	for _, rec := range m.Recordings {
		if rec.MediaShortcuts.Transcript != nil {
			return rec.MediaShortcuts.Transcript.Data.DownloadURL
		}
	}
	return ""
}

// VideoDownloadURL returns the signed URL of the first replay video
// artifact, or an empty string
func (m *MeetingInformation) VideoDownloadURL() string {
	for _, rec := range m.Recordings {
		if rec.MediaShortcuts.VideoMixed != nil {
			return rec.MediaShortcuts.VideoMixed.Data.DownloadURL
		}
	}
	return ""
}

// TranscriptWord is a single recognized word with its elapsed-time offset
type TranscriptWord struct {
	Text           string `json:"text"`
	StartTimestamp struct {
		Relative float64 `json:"relative"`
	} `json:"start_timestamp"`
}

// SpeakerTurn is one uninterrupted turn of a participant
type SpeakerTurn struct {
	Participant struct {
		Name string `json:"name"`
	} `json:"participant"`
	Words []TranscriptWord `json:"words"`
}

// BotServiceClient talks to the meeting-bot recording service over HTTP
type BotServiceClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewBotServiceClient creates a bot service client from the environment
func NewBotServiceClient() *BotServiceClient {
	baseURL := os.Getenv("MEETING_BOT_API_URL")
	if baseURL == "" {
		baseURL = "https://us-east-1.recall.ai/api/v1"
	}

	return &BotServiceClient{
		BaseURL: baseURL,
		APIKey:  os.Getenv("MEETING_BOT_API_KEY"),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SendToMeeting instructs the bot service to join the meeting and record it
func (c *BotServiceClient) SendToMeeting(ctx context.Context, meetingURL string) (string, error) {
	payload := map[string]string{"meeting_url": meetingURL}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/bot", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("bot service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("bot service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.ID, nil
}

// GetMeetingInformation fetches the bot's status history and recordings
func (c *BotServiceClient) GetMeetingInformation(ctx context.Context, botID string) (*MeetingInformation, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/bot/"+botID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bot service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bot service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var info MeetingInformation
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &info, nil
}

// FetchTranscript downloads the transcript artifact and decodes its speaker
// turns
func (c *BotServiceClient) FetchTranscript(ctx context.Context, downloadURL string) ([]SpeakerTurn, error) {
	data, err := c.DownloadMedia(ctx, downloadURL)
	if err != nil {
		return nil, err
	}

	var turns []SpeakerTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return turns, nil
}

// DownloadMedia fetches an artifact from a signed URL
func (c *BotServiceClient) DownloadMedia(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
