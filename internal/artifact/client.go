// Package artifact talks to the remote video service: it uploads converted
// audio and asks the service to transcribe it.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"video-transcriber/internal/domain"
)

// maxErrorBody bounds how much of a failed response is kept for errors.
const maxErrorBody = 4 << 10

// Client issues the two calls of a run. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the service rooted at baseURL. A nil
// httpClient uses a client without a timeout; steps are not time-limited.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// submitResponse accepts both {"video":{"id":..}} and {"id":..}.
type submitResponse struct {
	Video *domain.Artifact `json:"video"`
	ID    string           `json:"id"`
}

// Submit uploads the audio as multipart field "file".
func (c *Client) Submit(ctx context.Context, audio domain.TranscodeResult) (domain.Artifact, error) {
	fileName := audio.FileName
	if fileName == "" {
		fileName = "audio.mp3"
	}
	mediaType := audio.MediaType
	if mediaType == "" {
		mediaType = "audio/mpeg"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	header.Set("Content-Type", mediaType)
	fw, err := mw.CreatePart(header)
	if err != nil {
		return domain.Artifact{}, &SubmissionError{Message: "build multipart body", Err: err}
	}
	if _, err := fw.Write(audio.Data); err != nil {
		return domain.Artifact{}, &SubmissionError{Message: "build multipart body", Err: err}
	}
	if err := mw.Close(); err != nil {
		return domain.Artifact{}, &SubmissionError{Message: "build multipart body", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", &body)
	if err != nil {
		return domain.Artifact{}, &SubmissionError{Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Artifact{}, &SubmissionError{Message: "upload audio", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Artifact{}, &SubmissionError{
			StatusCode: resp.StatusCode,
			Message:    "upload rejected",
			Body:       readErrorBody(resp.Body),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Artifact{}, &SubmissionError{StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}
	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.Artifact{}, &SubmissionError{
			StatusCode: resp.StatusCode,
			Message:    "parse response",
			Body:       truncate(string(raw)),
			Err:        err,
		}
	}

	id := decoded.ID
	if decoded.Video != nil && decoded.Video.ID != "" {
		id = decoded.Video.ID
	}
	if strings.TrimSpace(id) == "" {
		return domain.Artifact{}, &SubmissionError{
			StatusCode: resp.StatusCode,
			Message:    "response carries no video id",
			Body:       truncate(string(raw)),
		}
	}
	return domain.Artifact{ID: id}, nil
}

type transcriptionBody struct {
	Prompt string `json:"prompt,omitempty"`
}

// RequestTranscription asks the service to transcribe an uploaded artifact.
// The prompt is sent verbatim. An empty prompt means no prompt and the key
// is left out of the body; the service treats both the same. It returns once
// the request is accepted, not when the transcript exists.
func (c *Client) RequestTranscription(ctx context.Context, artifactID string, prompt string) error {
	if strings.TrimSpace(artifactID) == "" {
		return &TranscriptionRequestError{Message: "artifact id is required"}
	}

	payload, err := json.Marshal(transcriptionBody{Prompt: prompt})
	if err != nil {
		return &TranscriptionRequestError{ArtifactID: artifactID, Message: "encode request", Err: err}
	}

	endpoint := c.baseURL + "/videos/" + url.PathEscape(artifactID) + "/transcription"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &TranscriptionRequestError{ArtifactID: artifactID, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TranscriptionRequestError{ArtifactID: artifactID, Message: "send request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TranscriptionRequestError{
			ArtifactID: artifactID,
			StatusCode: resp.StatusCode,
			Message:    "transcription request rejected",
			Body:       readErrorBody(resp.Body),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
