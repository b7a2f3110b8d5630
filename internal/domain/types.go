package domain

import "time"

// Phase is the workflow position of a single run.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseConverting   Phase = "converting"
	PhaseUploading    Phase = "uploading"
	PhaseTranscribing Phase = "transcribing"
	PhaseCompleted    Phase = "completed"
)

// Settings contains user-selectable runtime configuration.
type Settings struct {
	APIBaseURL string `json:"apiBaseURL"`
	FFmpegPath string `json:"ffmpegPath"`
	WorkDir    string `json:"workDir"`
}

// SelectedFile is the video chosen by the user. It is replaced, never mutated.
type SelectedFile struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	Size      int64  `json:"size"`
	Data      []byte `json:"-"`
}

// TranscodeRequest describes one conversion of a selected file into audio.
type TranscodeRequest struct {
	Source          []byte
	SourceName      string
	Codec           string
	Bitrate         string
	StreamMap       string
	OutputMediaType string
	OutputName      string
}

// TranscodeResult is the converted audio track.
type TranscodeResult struct {
	Data      []byte
	MediaType string
	FileName  string
	Duration  time.Duration
}

// Artifact is the server-side record created for an uploaded audio file.
type Artifact struct {
	ID string `json:"id"`
}
