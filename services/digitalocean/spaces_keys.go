package digitalocean

import "fmt"

// Deterministic object key schemes for session artifacts. Transcripts for
// sessions without resolved participants live under a temporary prefix keyed
// by session id only; once a student is attached, artifacts move to the
// permanent per-student prefix.

// TranscriptKey is the permanent transcript location for a session
func TranscriptKey(studentID, sessionID uint) string {
	return fmt.Sprintf("students/%d/sessions/%d/transcript.txt", studentID, sessionID)
}

// TempTranscriptKey is the pre-claim transcript location for a session
func TempTranscriptKey(sessionID uint) string {
	return fmt.Sprintf("temp/sessions/%d/transcript.txt", sessionID)
}

// ReplayKey is the replay video location for a session
func ReplayKey(studentID, sessionID uint) string {
	return fmt.Sprintf("students/%d/sessions/%d/replay.mp4", studentID, sessionID)
}

// EssayKey is the uploaded essay PDF location for a student
func EssayKey(studentID, essayID uint) string {
	return fmt.Sprintf("students/%d/essays/%d/essay.pdf", studentID, essayID)
}
