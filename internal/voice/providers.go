// Package voice bridges the pinboard to external speech capabilities:
// single-utterance speech-to-text, and text-to-speech producing raw PCM that
// is decoded and played through an interruptible player. Both capabilities
// are optional; a session without them simply runs text-only.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Recognizer converts a single captured utterance to text.
type Recognizer interface {
	Transcribe(ctx context.Context, audio io.Reader, format string) (string, error)
}

// Synthesizer converts reply text into base64-encoded s16le PCM.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// HTTPRecognizer implements Recognizer against a Whisper-style transcription
// endpoint taking multipart form audio.
type HTTPRecognizer struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func NewHTTPRecognizer(endpoint, apiKey, model string) *HTTPRecognizer {
	return &HTTPRecognizer{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (r *HTTPRecognizer) Transcribe(ctx context.Context, audio io.Reader, format string) (string, error) {
	if format == "" {
		format = "wav"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", "audio."+format)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, audio); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	if err := mw.WriteField("model", r.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("stt api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return result.Text, nil
}

// HTTPSynthesizer implements Synthesizer against a TTS endpoint returning
// base64 PCM in a JSON body.
type HTTPSynthesizer struct {
	endpoint string
	apiKey   string
	voice    string
	client   *http.Client
}

func NewHTTPSynthesizer(endpoint, apiKey, voiceName string) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		endpoint: endpoint,
		apiKey:   apiKey,
		voice:    voiceName,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	reqBody := map[string]any{
		"input": text,
		"voice": s.voice,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("tts api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var result struct {
		Audio string `json:"audio"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return result.Audio, nil
}
