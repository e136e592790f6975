package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"slpscribe/internal/domain"
	"slpscribe/internal/logger"
	"slpscribe/internal/ports"
)

const defaultBaseURL = "https://api.assemblyai.com/v2"

// Config controls the AssemblyAI REST client.
type Config struct {
	APIKey     string
	APIBaseURL string
	HTTPClient *http.Client
}

// Client implements ports.TranscriptionClient against the AssemblyAI v2 API.
// It performs no retries of its own; retry policy for status checks lives in
// the poller, and submission failures surface immediately.
type Client struct {
	cfg  Config
	http *http.Client
	log  *logrus.Entry
}

func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		cfg:  cfg,
		http: httpClient,
		log:  logger.ForModule("assemblyai"),
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

// transcriptRequest is the fixed submission configuration. The auxiliary
// analyses are always requested; they are not user-configurable.
type transcriptRequest struct {
	AudioURL          string `json:"audio_url"`
	AutoChapters      bool   `json:"auto_chapters"`
	SpeakerLabels     bool   `json:"speaker_labels"`
	SentimentAnalysis bool   `json:"sentiment_analysis"`
	EntityDetection   bool   `json:"entity_detection"`
	Disfluencies      bool   `json:"disfluencies"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`

	Utterances []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
		Words   []struct {
			Text       string  `json:"text"`
			Start      int     `json:"start"`
			End        int     `json:"end"`
			Confidence float64 `json:"confidence"`
			Speaker    string  `json:"speaker"`
		} `json:"words"`
	} `json:"utterances"`

	Chapters []struct {
		Summary  string `json:"summary"`
		Headline string `json:"headline"`
		Gist     string `json:"gist"`
		Start    int    `json:"start"`
		End      int    `json:"end"`
	} `json:"chapters"`
}

// Upload sends raw audio bytes and returns the service's upload reference.
func (c *Client) Upload(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", domain.Failuref(domain.FailureUploadFailed, "no audio to upload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+"/upload", bytes.NewReader(audio))
	if err != nil {
		return "", domain.Failure(domain.FailureUploadFailed, err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var payload uploadResponse
	if err := c.do(req, &payload); err != nil {
		c.log.WithError(err).Error("audio upload failed")
		return "", domain.Failure(domain.FailureUploadFailed, err)
	}
	if payload.UploadURL == "" {
		return "", domain.Failuref(domain.FailureUploadFailed, "upload response missing upload_url")
	}

	c.log.WithField("bytes", len(audio)).Info("audio uploaded")
	return payload.UploadURL, nil
}

// Submit creates a transcription job for a previously uploaded artifact and
// returns the job id.
func (c *Client) Submit(ctx context.Context, uploadURL string) (string, error) {
	body, err := json.Marshal(transcriptRequest{
		AudioURL:          uploadURL,
		AutoChapters:      true,
		SpeakerLabels:     true,
		SentimentAnalysis: true,
		EntityDetection:   true,
		Disfluencies:      true,
	})
	if err != nil {
		return "", domain.Failure(domain.FailureSubmissionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", domain.Failure(domain.FailureSubmissionFailed, err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var payload transcriptResponse
	if err := c.do(req, &payload); err != nil {
		c.log.WithError(err).Error("transcription submission failed")
		return "", domain.Failure(domain.FailureSubmissionFailed, err)
	}
	if payload.ID == "" {
		return "", domain.Failuref(domain.FailureSubmissionFailed, "submission response missing id")
	}

	c.log.WithField("job_id", payload.ID).Info("transcription job submitted")
	return payload.ID, nil
}

// Status fetches the current state of a job. Transport and decode errors are
// returned raw so the poller can apply its own retry policy.
func (c *Client) Status(ctx context.Context, jobID string) (ports.StatusResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return ports.StatusResult{}, err
	}
	req.Header.Set("Authorization", c.cfg.APIKey)

	var payload transcriptResponse
	if err := c.do(req, &payload); err != nil {
		return ports.StatusResult{}, err
	}

	result := ports.StatusResult{
		Status:       payload.Status,
		ErrorMessage: payload.Error,
	}
	for _, u := range payload.Utterances {
		utterance := domain.Utterance{Speaker: u.Speaker, Text: u.Text}
		for _, w := range u.Words {
			utterance.Words = append(utterance.Words, domain.Word{
				Text:       w.Text,
				StartMs:    w.Start,
				EndMs:      w.End,
				Confidence: w.Confidence,
				Speaker:    w.Speaker,
			})
		}
		result.Utterances = append(result.Utterances, utterance)
	}
	for _, ch := range payload.Chapters {
		result.Chapters = append(result.Chapters, domain.Chapter{
			Summary:  ch.Summary,
			Headline: ch.Headline,
			Gist:     ch.Gist,
			StartMs:  ch.Start,
			EndMs:    ch.End,
		})
	}
	return result, nil
}

// do executes one request and decodes a JSON response. Non-2xx responses are
// errors carrying the response body.
func (c *Client) do(req *http.Request, target interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = resp.Status
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail)
	}
	if len(body) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
