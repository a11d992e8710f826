package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/inspector/internal/inspection"
	"github.com/lehigh-university-libraries/inspector/internal/models"
	"github.com/lehigh-university-libraries/inspector/internal/providers"
	"github.com/lehigh-university-libraries/inspector/internal/storage"
)

type reply struct {
	text string
	err  error
}

// scriptedProvider answers each call with the next scripted reply
type scriptedProvider struct {
	replies []reply
	calls   int
}

func (p *scriptedProvider) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if p.calls >= len(p.replies) {
		p.calls++
		return "", errors.New("unexpected call")
	}
	r := p.replies[p.calls]
	p.calls++
	return r.text, r.err
}

type upload struct {
	name string
	data []byte
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field string, files ...upload) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func newTestServer(t *testing.T, provider providers.Provider) (*httptest.Server, *storage.Uploads) {
	t.Helper()
	uploads := storage.NewUploads(filepath.Join(t.TempDir(), "uploads"))
	svc := inspection.NewService(provider, "openai", "gpt-4o", 1000)
	h := New(svc, uploads, Options{HistorySize: 10})
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, uploads
}

func postFiles(t *testing.T, srv *httptest.Server, field string, files ...upload) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, field, files...)
	resp, err := http.Post(srv.URL+"/api/analyze", contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAnalyzeFencedReply(t *testing.T) {
	provider := &scriptedProvider{replies: []reply{
		{text: "```json\n{\"object\": \"widget\", \"defective\": \"No\", \"explanation\": \"looks fine\"}\n```"},
	}}
	srv, uploads := newTestServer(t, provider)

	resp := postFiles(t, srv, "files", upload{name: "widget.png", data: pngData(t, 300, 200)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Batch-Id"))

	var got models.BatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.True(t, got.Success)
	require.Equal(t, 1, got.Count)
	require.Len(t, got.Results, 1)

	result := got.Results[0]
	require.Equal(t, "widget.png", result.ImageName)
	require.Regexp(t, `^\d+-widget\.png$`, result.ImagePath)
	require.Equal(t, result.ImagePath[:len(result.ImagePath)-len(".png")]+"-thumb.png", result.ThumbnailPath)
	require.Equal(t, models.InspectionResult{Object: "widget", Defective: "no", Explanation: "looks fine"}, result.Analysis)

	require.FileExists(t, uploads.Path(result.ImagePath))
	require.FileExists(t, uploads.Path(result.ThumbnailPath))
}

func TestAnalyzeMissingFields(t *testing.T) {
	provider := &scriptedProvider{replies: []reply{{text: `{"object": "gear"}`}}}
	srv, _ := newTestServer(t, provider)

	resp := postFiles(t, srv, "files", upload{name: "gear.png", data: pngData(t, 10, 10)})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.BatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, models.InspectionResult{
		Object:      "gear",
		Defective:   "unknown",
		Explanation: "No explanation provided",
	}, got.Results[0].Analysis)
}

func TestAnalyzeIsolatesFailures(t *testing.T) {
	provider := &scriptedProvider{replies: []reply{
		{text: `{"object": "a", "defective": "no", "explanation": "fine"}`},
		{err: errors.New("received non-200 status code: 429")},
		{text: `{"object": "c", "defective": "Yes", "explanation": "cracked"}`},
		{text: "not json at all"},
	}}
	srv, _ := newTestServer(t, provider)

	resp := postFiles(t, srv, "files",
		upload{name: "a.png", data: pngData(t, 8, 8)},
		upload{name: "b.png", data: pngData(t, 8, 8)},
		upload{name: "c.png", data: pngData(t, 8, 8)},
		upload{name: "d.png", data: pngData(t, 8, 8)},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.BatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, 4, got.Count)
	require.Len(t, got.Results, 4)

	names := []string{}
	for _, r := range got.Results {
		names = append(names, r.ImageName)
	}
	require.Equal(t, []string{"a.png", "b.png", "c.png", "d.png"}, names)

	require.Equal(t, models.InspectionResult{Object: "a", Defective: "no", Explanation: "fine"}, got.Results[0].Analysis)
	require.Equal(t, "unknown", got.Results[1].Analysis.Object)
	require.Equal(t, "error", got.Results[1].Analysis.Defective)
	require.Contains(t, got.Results[1].Analysis.Explanation, "429")
	require.Equal(t, models.InspectionResult{Object: "c", Defective: "yes", Explanation: "cracked"}, got.Results[2].Analysis)
	require.Equal(t, "error", got.Results[3].Analysis.Defective)
	require.Equal(t, 4, provider.calls)
}

// 1x1 lossless WebP
const webpBase64 = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func TestAnalyzeWebP(t *testing.T) {
	webp, err := base64.StdEncoding.DecodeString(webpBase64)
	require.NoError(t, err)

	provider := &scriptedProvider{replies: []reply{
		{text: `{"object": "a", "defective": "no", "explanation": "fine"}`},
		{text: `{"object": "photo", "defective": "yes", "explanation": "scratched"}`},
	}}
	srv, uploads := newTestServer(t, provider)

	resp := postFiles(t, srv, "files",
		upload{name: "a.png", data: pngData(t, 8, 8)},
		upload{name: "photo.webp", data: webp},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.BatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, 2, got.Count)
	require.Equal(t, "photo.webp", got.Results[1].ImageName)
	require.Equal(t, models.InspectionResult{Object: "photo", Defective: "yes", Explanation: "scratched"}, got.Results[1].Analysis)
	require.FileExists(t, uploads.Path(got.Results[1].ThumbnailPath))
	require.Equal(t, 2, provider.calls)
}

func TestAnalyzeNoFiles(t *testing.T) {
	provider := &scriptedProvider{}
	srv, uploads := newTestServer(t, provider)

	tests := []struct {
		name string
		req  func() *http.Response
	}{
		{
			name: "empty multipart form",
			req: func() *http.Response {
				return postFiles(t, srv, "files")
			},
		},
		{
			name: "wrong field name",
			req: func() *http.Response {
				return postFiles(t, srv, "image", upload{name: "a.png", data: pngData(t, 8, 8)})
			},
		},
		{
			name: "not multipart",
			req: func() *http.Response {
				resp, err := http.Post(srv.URL+"/api/analyze", "application/json", bytes.NewBufferString(`{}`))
				require.NoError(t, err)
				t.Cleanup(func() { resp.Body.Close() })
				return resp
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.req()
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var got models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			require.Equal(t, "No files uploaded", got.Error)
		})
	}

	require.Equal(t, 0, provider.calls)
	_, err := os.Stat(uploads.Dir())
	require.True(t, os.IsNotExist(err), "no file should have been stored")
}

func TestAnalyzeThumbnailFailure(t *testing.T) {
	provider := &scriptedProvider{replies: []reply{{text: `{"object": "a"}`}}}
	srv, _ := newTestServer(t, provider)

	resp := postFiles(t, srv, "files", upload{name: "broken.png", data: []byte("definitely not a png")})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var got models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "Error processing files", got.Error)
	require.Equal(t, 0, provider.calls)
}

func TestAnalyzeMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedProvider{})

	resp, err := http.Get(srv.URL + "/api/analyze")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAnalyzeTooLarge(t *testing.T) {
	uploads := storage.NewUploads(filepath.Join(t.TempDir(), "uploads"))
	svc := inspection.NewService(&scriptedProvider{}, "openai", "gpt-4o", 1000)
	srv := httptest.NewServer(New(svc, uploads, Options{MaxUploadBytes: 1024}).Routes())
	defer srv.Close()

	resp := postFiles(t, srv, "files", upload{name: "big.png", data: bytes.Repeat([]byte("x"), 4096)})
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedProvider{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/analyze", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "content-type", resp.Header.Get("Access-Control-Allow-Headers"))
}
