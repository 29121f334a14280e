package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMeetingCode(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"full meet url", "https://meet.google.com/abc-defg-hij", "abc-defg-hij"},
		{"bare code", "xyz-abcd-efg", "xyz-abcd-efg"},
		{"uppercase input is lowered", "https://MEET.GOOGLE.COM/ABC-DEFG-HIJ", "abc-defg-hij"},
		{"code embedded in query", "https://meet.google.com/lookup?code=abc-defg-hij&hl=en", "abc-defg-hij"},
		{"no code", "https://zoom.us/j/123456789", ""},
		{"empty", "", ""},
		{"wrong segment lengths", "ab-cdef-gh", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMeetingCode(tt.url))
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0:00", FormatElapsed(0))
	assert.Equal(t, "0:59", FormatElapsed(59.9))
	assert.Equal(t, "1:00", FormatElapsed(60))
	assert.Equal(t, "2:05", FormatElapsed(125.4))
	assert.Equal(t, "61:01", FormatElapsed(3661))
}

func TestFormatTranscript(t *testing.T) {
	got := FormatTranscript(sampleTurns())

	want := "0:00 - Dana Whitfield\nLet's review your list\n\n2:05 - Maya Chen\nSounds good"
	assert.Equal(t, want, got)
}

func TestFormatTranscriptSkipsEmptyTurns(t *testing.T) {
	var silent SpeakerTurn
	silent.Participant.Name = "Ghost"

	turns := append([]SpeakerTurn{silent}, sampleTurns()...)
	got := FormatTranscript(turns)

	assert.NotContains(t, got, "Ghost")
	assert.Equal(t, FormatTranscript(sampleTurns()), got)
}

func TestFormatTranscriptEmpty(t *testing.T) {
	assert.Equal(t, "", FormatTranscript(nil))
}

func TestSessionTitle(t *testing.T) {
	tests := []struct {
		day  int
		want string
	}{
		{1, "College Planning (Aug 1st, 2026)"},
		{2, "College Planning (Aug 2nd, 2026)"},
		{3, "College Planning (Aug 3rd, 2026)"},
		{4, "College Planning (Aug 4th, 2026)"},
		{11, "College Planning (Aug 11th, 2026)"},
		{12, "College Planning (Aug 12th, 2026)"},
		{13, "College Planning (Aug 13th, 2026)"},
		{21, "College Planning (Aug 21st, 2026)"},
		{22, "College Planning (Aug 22nd, 2026)"},
		{23, "College Planning (Aug 23rd, 2026)"},
		{30, "College Planning (Aug 30th, 2026)"},
	}

	for _, tt := range tests {
		date := time.Date(2026, time.August, tt.day, 15, 0, 0, 0, time.UTC)
		assert.Equal(t, tt.want, SessionTitle("College Planning", date))
	}
}
