// Package transcription obtains transcript text for a call recording from
// an external transcription service. Scoring never depends on it; it only
// turns audio-only requests into transcript requests.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"call-quality-go/internal/logger"
)

var (
	ErrNotConfigured = errors.New("transcription service not configured")
	ErrFailed        = errors.New("transcription failed")
	ErrTimeout       = errors.New("transcription did not complete")
)

// MockTranscript is returned by clients in mock mode.
const MockTranscript = "Customer: My order arrived broken and I want a refund. Agent: I am sorry, let me check that for you."

type PublishResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		MediaId          string `json:"MediaId"`
		Status           string `json:"Status"`
		TranscriptionURL string `json:"TranscriptionURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type StatusResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		Status               string `json:"Status"`
		TranscriptionTextURL string `json:"TranscriptionTextURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type Client struct {
	host         string
	mock         bool
	http         *http.Client
	pollInterval time.Duration
	maxPolls     int
	retryElapsed time.Duration
	log          *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.http = c } }

func WithPolling(interval time.Duration, attempts int) Option {
	return func(cl *Client) {
		cl.pollInterval = interval
		cl.maxPolls = attempts
	}
}

func WithRetryElapsed(d time.Duration) Option { return func(cl *Client) { cl.retryElapsed = d } }

func WithMock(mock bool) Option { return func(cl *Client) { cl.mock = mock } }

func WithLogger(l *logger.Logger) Option { return func(cl *Client) { cl.log = l } }

func New(host string, opts ...Option) *Client {
	c := &Client{
		host:         strings.TrimRight(host, "/"),
		http:         &http.Client{Timeout: 12 * time.Second},
		pollInterval: 1500 * time.Millisecond,
		maxPolls:     40,
		retryElapsed: 12 * time.Second,
		log:          logger.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.Component("transcription")
	return c
}

// Enabled reports whether the client can produce transcripts.
func (c *Client) Enabled() bool {
	return c.mock || c.host != ""
}

// Transcribe publishes audioURL, polls until the transcript is ready and
// downloads its text.
func (c *Client) Transcribe(ctx context.Context, audioURL string) (string, error) {
	if c.mock {
		return MockTranscript, nil
	}
	if c.host == "" {
		return "", ErrNotConfigured
	}
	log := c.log.WithField("audio_url", audioURL)
	log.Info("starting transcription")

	mediaID, existingURL, err := c.publish(ctx, audioURL)
	if err != nil {
		return "", err
	}
	if existingURL != "" {
		log.WithField("transcript_url", existingURL).Info("transcript already available")
		return c.download(ctx, existingURL)
	}
	finalURL, err := c.poll(ctx, mediaID)
	if err != nil {
		return "", err
	}
	log.WithField("transcript_url", finalURL).Info("download final transcript")
	return c.download(ctx, finalURL)
}

func (c *Client) publish(ctx context.Context, audioURL string) (string, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if err := w.WriteField("callRecordingLink", audioURL); err != nil {
		return "", "", err
	}
	if err := w.WriteField("callType", "PNS"); err != nil {
		return "", "", err
	}
	if err := w.Close(); err != nil {
		return "", "", err
	}
	body := b.Bytes()
	contentType := w.FormDataContentType()

	var resp PublishResponse
	err := c.doJSON(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/transcribe", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}, &resp)
	if err != nil {
		return "", "", fmt.Errorf("transcribe publish: %w", err)
	}
	if resp.Code != http.StatusOK {
		return "", "", fmt.Errorf("%w: publish code=%d reason=%s", ErrFailed, resp.Code, resp.Reason)
	}
	if resp.Data.TranscriptionURL != "" && strings.EqualFold(resp.Data.Status, "success") {
		return "", resp.Data.TranscriptionURL, nil
	}
	return resp.Data.MediaId, "", nil
}

func (c *Client) poll(ctx context.Context, mediaID string) (string, error) {
	u, err := url.Parse(c.host + "/getstatus")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("mediaId", mediaID)
	u.RawQuery = q.Encode()
	statusURL := u.String()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for i := 0; i < c.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		var s StatusResponse
		err := c.doJSON(ctx, func() (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		}, &s)
		if err != nil {
			c.log.WithError(err).WithField("media_id", mediaID).Warn("status poll failed")
			continue
		}
		switch s.Data.Status {
		case "Success":
			return s.Data.TranscriptionTextURL, nil
		case "Queued", "Processing":
			continue
		case "Failed":
			return "", fmt.Errorf("%w: %s", ErrFailed, s.Reason)
		}
	}
	return "", ErrTimeout
}

func (c *Client) download(ctx context.Context, textURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, textURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download transcript: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("download failed: status=%d body=%s", resp.StatusCode, string(b))
	}
	return string(b), nil
}

// doJSON retries 5xx and transport errors with exponential backoff. The
// request is rebuilt per attempt so bodies are never reused.
func (c *Client) doJSON(ctx context.Context, build func() (*http.Request, error), target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = c.retryElapsed

	op := func() error {
		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error: status=%d body=%s", resp.StatusCode, string(body))
		}
		if len(body) == 0 {
			return errors.New("empty body")
		}
		if err := json.Unmarshal(body, target); err != nil {
			return backoff.Permanent(fmt.Errorf("json decode error: %v body=%s", err, string(body)))
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}
