package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/veil/pkg/audit"
	"github.com/platinummonkey/veil/pkg/jobs"
	"github.com/platinummonkey/veil/pkg/media"
	"github.com/platinummonkey/veil/pkg/pii"
)

func multipartBody(t *testing.T, file []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "input.bin")
	require.NoError(t, err)
	_, err = fw.Write(file)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func testImagePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.White)
		}
	}
	encoded, err := media.EncodePNG(img)
	require.NoError(t, err)
	return encoded
}

func testWAVBytes() []byte {
	samples := make([]int16, 8000)
	for i := range samples {
		samples[i] = 1000
	}
	return media.EncodeWAV(&media.WAV{SampleRate: 8000, NumChannels: 1, Samples: samples})
}

func TestRedactImage(t *testing.T) {
	env := newTestEnv(t)

	boxes, err := json.Marshal([]media.TextBox{{
		Polygon: []media.Point{{X: 10, Y: 10}, {X: 120, Y: 10}, {X: 120, Y: 30}, {X: 10, Y: 30}},
		Text:    "dave@example.com",
	}})
	require.NoError(t, err)

	body, contentType := multipartBody(t, testImagePNG(t), map[string]string{"boxes": string(boxes)})
	req := httptest.NewRequest("POST", "/api/v1/redact/image", body)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MediaJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, jobs.StatusCompleted, resp.Job.Status)
	assert.Equal(t, jobs.KindRedactImage, resp.Job.Kind)
	require.NotEmpty(t, resp.Audit)
	assert.Equal(t, "EMAIL", resp.Audit[0].EntityType)
	assert.Zero(t, resp.Unmapped)
	assert.True(t, strings.HasPrefix(resp.DownloadURL, "/api/v1/download/"))

	// The artifact downloads as a PNG with the box painted over.
	download := env.do(httptest.NewRequest("GET", resp.DownloadURL, nil))
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, "image/png", download.Header().Get("Content-Type"))

	redacted, _, err := media.DecodeImage(download.Body.Bytes())
	require.NoError(t, err)
	r, g, b, _ := redacted.At(15, 15).RGBA()
	assert.Zero(t, r+g+b, "pixel inside the text box should be black")
	r, g, b, _ = redacted.At(150, 50).RGBA()
	assert.NotZero(t, r+g+b, "pixel outside the text box should be untouched")

	created := env.events.byAction(audit.ActionJobCreated)
	completed := env.events.byAction(audit.ActionJobCompleted)
	require.Len(t, created, 1)
	require.Len(t, completed, 1)
	assert.Equal(t, resp.Job.ID.String(), completed[0].JobID)
	assert.Equal(t, 1, completed[0].EntityCounts["EMAIL"])
}

func TestRedactImage_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/v1/redact/image", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing file")
}

func TestRedactImage_CorruptImage(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, []byte("not an image"), nil)
	req := httptest.NewRequest("POST", "/api/v1/redact/image", body)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRedactImage_BadBoxesField(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, testImagePNG(t), map[string]string{"boxes": "{broken"})
	req := httptest.NewRequest("POST", "/api/v1/redact/image", body)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "boxes")
}

func TestRedactImage_NotConfigured(t *testing.T) {
	server := NewServer(Config{})
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/redact/image", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRedactAudio(t *testing.T) {
	env := newTestEnv(t)

	words, err := json.Marshal([]media.Word{
		{Text: "call", StartS: 0.0, EndS: 0.2},
		{Text: "eve@example.com", StartS: 0.2, EndS: 0.6},
	})
	require.NoError(t, err)

	body, contentType := multipartBody(t, testWAVBytes(), map[string]string{"words": string(words)})
	req := httptest.NewRequest("POST", "/api/v1/redact/audio", body)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MediaJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, jobs.StatusCompleted, resp.Job.Status)
	assert.Equal(t, jobs.KindRedactAudio, resp.Job.Kind)
	assert.Equal(t, "call eve@example.com", resp.Transcript)
	assert.Equal(t, "call [EMAIL]", resp.RedactedTranscript)
	require.NotEmpty(t, resp.Audit)

	download := env.do(httptest.NewRequest("GET", resp.DownloadURL, nil))
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, "audio/wav", download.Header().Get("Content-Type"))

	redacted, err := media.DecodeWAV(download.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 8000, redacted.SampleRate)
	assert.Len(t, redacted.Samples, 8000)
}

func TestRedactAudio_CorruptWAV(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, []byte("not audio"), nil)
	req := httptest.NewRequest("POST", "/api/v1/redact/audio", body)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRedactAudio_NoWordsNoTranscriber(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, testWAVBytes(), nil)
	req := httptest.NewRequest("POST", "/api/v1/redact/audio", body)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	failed := env.events.byAction(audit.ActionJobFailed)
	require.Len(t, failed, 1)
}

func TestRedactVideo(t *testing.T) {
	env := newTestEnv(t)

	manifest := media.Manifest{
		Frames: []media.FrameDetections{{
			Index: 0,
			TextBoxes: []media.TextBox{{
				Polygon: []media.Point{{X: 5, Y: 5}, {X: 90, Y: 5}, {X: 90, Y: 25}, {X: 5, Y: 25}},
				Text:    "frank@example.com",
			}},
			Faces: []media.FaceBox{{
				Box:        pii.Box{X0: 100, Y0: 100, X1: 160, Y1: 180},
				Confidence: 0.92,
			}},
		}},
		Words: []media.Word{{Text: "grace@example.com", StartS: 1.0, EndS: 1.5}},
	}
	body, err := json.Marshal(manifest)
	require.NoError(t, err)

	rec := env.do(postJSON("/api/v1/redact/video", string(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp VideoPlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, jobs.StatusCompleted, resp.Job.Status)
	assert.Equal(t, jobs.KindRedactVideo, resp.Job.Kind)

	require.Len(t, resp.Plan.Frames, 1)
	assert.Len(t, resp.Plan.Frames[0].Fill, 1)
	assert.Len(t, resp.Plan.Frames[0].Blur, 1)
	assert.NotEmpty(t, resp.Plan.AudioSegments)

	// The artifact is the same plan, downloadable as JSON.
	download := env.do(httptest.NewRequest("GET", resp.DownloadURL, nil))
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, "application/json", download.Header().Get("Content-Type"))

	var stored media.RedactionPlan
	require.NoError(t, json.Unmarshal(download.Body.Bytes(), &stored))
	assert.Len(t, stored.Frames, 1)
}

func TestRedactVideo_EmptyManifest(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(postJSON("/api/v1/redact/video", `{"frames":[]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
