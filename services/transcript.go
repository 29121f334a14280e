package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// meetingCodeRegex matches Google Meet codes like "abc-defg-hij" inside a
// meeting URL
var meetingCodeRegex = regexp.MustCompile(`[a-z]{3}-[a-z]{4}-[a-z]{3}`)

// ParseMeetingCode extracts the meeting code from a meeting URL. Returns an
// empty string when no code can be derived.
func ParseMeetingCode(meetingURL string) string {
	return meetingCodeRegex.FindString(strings.ToLower(meetingURL))
}

// FormatTranscript renders speaker turns as human-readable text. Each turn
// becomes a block of the form:
//
//	M:SS - Speaker Name
//	word word word...
//
// with blocks separated by blank lines. The timestamp is the elapsed time of
// the turn's first word, seconds zero-padded.
func FormatTranscript(turns []SpeakerTurn) string {
	blocks := make([]string, 0, len(turns))
	for _, turn := range turns {
		if len(turn.Words) == 0 {
			continue
		}

		words := make([]string, 0, len(turn.Words))
		for _, w := range turn.Words {
			words = append(words, w.Text)
		}

		timestamp := FormatElapsed(turn.Words[0].StartTimestamp.Relative)
		blocks = append(blocks, fmt.Sprintf("%s - %s\n%s",
			timestamp, turn.Participant.Name, strings.Join(words, " ")))
	}
	return strings.Join(blocks, "\n\n")
}

// FormatElapsed renders elapsed seconds as "M:SS" (e.g. 125.4 -> "2:05")
func FormatElapsed(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// SessionTitle builds the durable session title from the scheduled session's
// original title and a date, e.g. "College Planning (Aug 29th, 2026)"
func SessionTitle(original string, date time.Time) string {
	return fmt.Sprintf("%s (%s %s, %d)", original, date.Format("Jan"), dayOrdinal(date.Day()), date.Year())
}

// dayOrdinal renders a day of month with its English ordinal suffix
func dayOrdinal(day int) string {
	suffix := "th"
	if day%100 < 11 || day%100 > 13 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", day, suffix)
}
