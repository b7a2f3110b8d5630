package artifact

import "fmt"

// SubmissionError reports a failed audio upload.
type SubmissionError struct {
	StatusCode int    `json:"statusCode,omitempty"`
	Message    string `json:"message"`
	Body       string `json:"body,omitempty"`
	Err        error  `json:"-"`
}

func (e *SubmissionError) Error() string {
	if e == nil {
		return ""
	}
	return formatError("submit artifact", e.Message, e.StatusCode, e.Body, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TranscriptionRequestError reports a failed transcription request.
type TranscriptionRequestError struct {
	ArtifactID string `json:"artifactId,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Message    string `json:"message"`
	Body       string `json:"body,omitempty"`
	Err        error  `json:"-"`
}

func (e *TranscriptionRequestError) Error() string {
	if e == nil {
		return ""
	}
	op := "request transcription"
	if e.ArtifactID != "" {
		op += " for " + e.ArtifactID
	}
	return formatError(op, e.Message, e.StatusCode, e.Body, e.Err)
}

func (e *TranscriptionRequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func formatError(op, msg string, status int, body string, err error) string {
	s := op + ": " + msg
	if status != 0 {
		s += fmt.Sprintf(" (http %d)", status)
	}
	if body != "" {
		s += ": " + body
	}
	if err != nil {
		s += ": " + err.Error()
	}
	return s
}
