package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultSidecarTimeout = 30 * time.Second

// SidecarConfig configures one media sidecar client.
type SidecarConfig struct {
	// BaseURL is the sidecar root, e.g. "http://ocr:9001".
	BaseURL string
	// Timeout bounds each request; media payloads are large, so the
	// default is generous.
	Timeout time.Duration
}

func newSidecarClient(cfg SidecarConfig) (*http.Client, string) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultSidecarTimeout
	}
	return &http.Client{Timeout: timeout}, strings.TrimRight(cfg.BaseURL, "/")
}

// postMultipart sends payload as one multipart file field and decodes the
// JSON response into out.
func postMultipart(ctx context.Context, client *http.Client, url, field, filename string, payload []byte, out interface{}) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return fmt.Errorf("failed to write multipart payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("failed to build sidecar request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("sidecar returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode sidecar response: %w", err)
	}
	return nil
}

// OCRClient is the HTTP implementation of OCRReader.
type OCRClient struct {
	http    *http.Client
	baseURL string
}

// NewOCRClient builds an OCR sidecar client.
func NewOCRClient(cfg SidecarConfig) *OCRClient {
	client, base := newSidecarClient(cfg)
	return &OCRClient{http: client, baseURL: base}
}

type ocrResponse struct {
	Boxes []TextBox `json:"boxes"`
}

// Read implements OCRReader.
func (c *OCRClient) Read(ctx context.Context, image []byte) ([]TextBox, error) {
	var payload ocrResponse
	if err := postMultipart(ctx, c.http, c.baseURL+"/v1/ocr", "image", "frame.png", image, &payload); err != nil {
		return nil, fmt.Errorf("OCR: %w", err)
	}
	return payload.Boxes, nil
}

// TranscriberClient is the HTTP implementation of Transcriber.
type TranscriberClient struct {
	http    *http.Client
	baseURL string
}

// NewTranscriberClient builds a transcription sidecar client.
func NewTranscriberClient(cfg SidecarConfig) *TranscriberClient {
	client, base := newSidecarClient(cfg)
	return &TranscriberClient{http: client, baseURL: base}
}

type transcribeResponse struct {
	Words []Word `json:"words"`
}

// Transcribe implements Transcriber.
func (c *TranscriberClient) Transcribe(ctx context.Context, wav []byte) ([]Word, error) {
	var payload transcribeResponse
	if err := postMultipart(ctx, c.http, c.baseURL+"/v1/transcribe", "audio", "audio.wav", wav, &payload); err != nil {
		return nil, fmt.Errorf("transcriber: %w", err)
	}
	return payload.Words, nil
}

// FaceClient is the HTTP implementation of FaceDetector.
type FaceClient struct {
	http    *http.Client
	baseURL string
}

// NewFaceClient builds a face-detection sidecar client.
func NewFaceClient(cfg SidecarConfig) *FaceClient {
	client, base := newSidecarClient(cfg)
	return &FaceClient{http: client, baseURL: base}
}

type faceResponse struct {
	Faces []FaceBox `json:"faces"`
}

// DetectFaces implements FaceDetector.
func (c *FaceClient) DetectFaces(ctx context.Context, frame []byte) ([]FaceBox, error) {
	var payload faceResponse
	if err := postMultipart(ctx, c.http, c.baseURL+"/v1/faces", "frame", "frame.png", frame, &payload); err != nil {
		return nil, fmt.Errorf("face detector: %w", err)
	}
	return payload.Faces, nil
}
