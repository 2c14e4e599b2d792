package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Samartha120/Vechile-Damage-Detection/batch"
	"github.com/Samartha120/Vechile-Damage-Detection/frames"
	"github.com/Samartha120/Vechile-Damage-Detection/media"
	"github.com/Samartha120/Vechile-Damage-Detection/models"
)

type stubAnalyzer struct {
	fail bool
}

func (a *stubAnalyzer) Analyze(context.Context, string) (*models.UnitAnalysisResult, error) {
	if a.fail {
		return nil, errors.New("boundary down")
	}
	return &models.UnitAnalysisResult{
		HasVehicle:      true,
		HasDamage:       true,
		OverallSeverity: models.SeverityMinor,
		ConfidenceScore: 75,
		Observations: []models.DamageObservation{
			{Kind: "scratch", Location: "door", Severity: models.SeverityMinor, Description: "light scratch"},
		},
		EstimatedCost: models.CostRange{Min: 100, Max: 500, Currency: "INR"},
	}, nil
}

type stubGrabber struct{}

func (stubGrabber) Duration(context.Context, string) (float64, error) { return 2, nil }

func (stubGrabber) GrabAt(context.Context, string, float64) ([]byte, error) {
	return []byte("jpegbytes"), nil
}

func newTestRouter(t *testing.T, a batch.Analyzer) (*gin.Engine, *media.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := media.NewStore()
	orch := batch.NewOrchestrator(a, log)
	extractor := frames.NewExtractor(stubGrabber{}, 6, log)
	api := New(store, orch, extractor, t.TempDir(), log)

	router := gin.New()
	router.POST("/api/media", api.UploadMedia)
	router.POST("/api/analyze", api.Analyze)
	router.GET("/api/progress", api.Progress)
	router.GET("/api/report", api.Report)
	router.POST("/api/export", api.Export)
	return router, store
}

func multipartUpload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, mimeType := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		h.Set("Content-Type", mimeType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("payload-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func do(router *gin.Engine, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeWithoutMedia(t *testing.T) {
	router, _ := newTestRouter(t, &stubAnalyzer{})
	w := do(router, http.MethodPost, "/api/analyze", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAndAnalyzeSingleImage(t *testing.T) {
	router, _ := newTestRouter(t, &stubAnalyzer{})

	body, ct := multipartUpload(t, map[string]string{"car.jpg": "image/jpeg"})
	w := do(router, http.MethodPost, "/api/media", body, ct)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"kind":"image"`)

	w = do(router, http.MethodPost, "/api/analyze", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var result models.UnitAnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.True(t, result.HasDamage)

	w = do(router, http.MethodGet, "/api/report", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"type":"single"`)
}

func TestUploadAndAnalyzeMultiImage(t *testing.T) {
	router, _ := newTestRouter(t, &stubAnalyzer{})

	body, ct := multipartUpload(t, map[string]string{
		"front.jpg": "image/jpeg",
		"rear.png":  "image/png",
		"notes.txt": "text/plain",
	})
	w := do(router, http.MethodPost, "/api/media", body, ct)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"count":2`)

	w = do(router, http.MethodPost, "/api/analyze", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var combined models.CombinedReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &combined))
	require.Equal(t, 2, combined.TotalUnits)
	require.Equal(t, 2, combined.UnitsWithDamage)
}

func TestUploadAndAnalyzeVideo(t *testing.T) {
	router, _ := newTestRouter(t, &stubAnalyzer{})

	body, ct := multipartUpload(t, map[string]string{"drive.mp4": "video/mp4"})
	w := do(router, http.MethodPost, "/api/media", body, ct)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"kind":"video"`)

	w = do(router, http.MethodPost, "/api/analyze", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var combined models.CombinedReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &combined))
	// A 2s video samples ceil(2) = 2 frames.
	require.Equal(t, 2, combined.TotalUnits)
}

func TestUploadUnsupportedFilesIsNoOp(t *testing.T) {
	router, store := newTestRouter(t, &stubAnalyzer{})

	body, ct := multipartUpload(t, map[string]string{"doc.pdf": "application/pdf"})
	w := do(router, http.MethodPost, "/api/media", body, ct)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"accepted":false`)
	require.Nil(t, store.Current())
}

func TestAnalyzeAllUnitsFailing(t *testing.T) {
	router, _ := newTestRouter(t, &stubAnalyzer{fail: true})

	body, ct := multipartUpload(t, map[string]string{
		"a.jpg": "image/jpeg",
		"b.jpg": "image/jpeg",
	})
	do(router, http.MethodPost, "/api/media", body, ct)

	w := do(router, http.MethodPost, "/api/analyze", nil, "")
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "error")

	// No partial report is kept around.
	w = do(router, http.MethodGet, "/api/report", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestProgressIdle(t *testing.T) {
	router, _ := newTestRouter(t, &stubAnalyzer{})
	w := do(router, http.MethodGet, "/api/progress", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"active":false`)
}

func TestExportWithoutResults(t *testing.T) {
	router, _ := newTestRouter(t, &stubAnalyzer{})
	w := do(router, http.MethodPost, "/api/export", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportCombinedReport(t *testing.T) {
	router, _ := newTestRouter(t, &stubAnalyzer{})

	body, ct := multipartUpload(t, map[string]string{
		"a.jpg": "image/jpeg",
		"b.jpg": "image/jpeg",
	})
	do(router, http.MethodPost, "/api/media", body, ct)
	w := do(router, http.MethodPost, "/api/analyze", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/export", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "vehicle-damage-report-")
	require.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}
