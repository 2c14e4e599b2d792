package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Samartha120/Vechile-Damage-Detection/batch"
	"github.com/Samartha120/Vechile-Damage-Detection/media"
	"github.com/Samartha120/Vechile-Damage-Detection/report"
)

// Analyze runs the analysis pipeline appropriate for the loaded media: a
// single image yields one result, a video is sampled into frames first, and
// multiple images are analyzed as a batch.
func (a *API) Analyze(c *gin.Context) {
	m := a.Store.Current()
	if m == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No media uploaded"})
		return
	}

	switch m.Kind {
	case media.KindImage:
		a.analyzeSingle(c, m.Items[0])
	case media.KindVideo:
		a.analyzeVideo(c, m.Items[0])
	case media.KindMultiImage:
		uris := make([]string, len(m.Items))
		for i, item := range m.Items {
			uris[i] = item.DataURI
		}
		a.analyzeBatch(c, uris)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported media kind"})
	}
}

func (a *API) analyzeSingle(c *gin.Context, item media.Item) {
	result, err := a.Orchestrator.RunOne(c.Request.Context(), item.DataURI)
	if err != nil {
		if errors.Is(err, batch.ErrBatchInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		a.Log.Error("single image analysis failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to analyze the image"})
		return
	}

	a.Store.SetSingle(result)
	c.JSON(http.StatusOK, result)
}

func (a *API) analyzeVideo(c *gin.Context, item media.Item) {
	// ffmpeg wants a file on disk; the video lives there only for the
	// duration of the extraction.
	if err := os.MkdirAll(a.UploadDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare upload directory"})
		return
	}
	videoPath := filepath.Join(a.UploadDir, uuid.New().String()+filepath.Ext(item.Name))
	if err := os.WriteFile(videoPath, item.Raw, 0644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save video"})
		return
	}
	defer os.Remove(videoPath)

	extracted, err := a.Extractor.Extract(c.Request.Context(), videoPath)
	if err != nil {
		a.Log.Error("frame extraction failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to extract frames from the video"})
		return
	}

	uris := make([]string, len(extracted))
	for i, frame := range extracted {
		uris[i] = media.EncodeDataURI("image/jpeg", frame)
	}
	a.analyzeBatch(c, uris)
}

func (a *API) analyzeBatch(c *gin.Context, uris []string) {
	contexts, err := a.Orchestrator.Run(c.Request.Context(), uris)
	if err != nil {
		switch {
		case errors.Is(err, batch.ErrBatchInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, batch.ErrAllUnitsFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Analysis failed for all images"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Batch analysis failed"})
		}
		return
	}

	combined := report.Combine(contexts)
	a.Store.SetCombined(combined)
	c.JSON(http.StatusOK, combined)
}

// Progress reports the orchestrator's current snapshot for polling clients.
func (a *API) Progress(c *gin.Context) {
	c.JSON(http.StatusOK, a.Orchestrator.Progress())
}

// Report returns whichever report the last analysis produced.
func (a *API) Report(c *gin.Context) {
	single, combined := a.Store.Reports()
	switch {
	case combined != nil:
		c.JSON(http.StatusOK, gin.H{"type": "combined", "report": combined})
	case single != nil:
		c.JSON(http.StatusOK, gin.H{"type": "single", "result": single})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "No analysis results available"})
	}
}

// Export serializes the current report to a PDF download. A failed export
// leaves the on-screen results untouched.
func (a *API) Export(c *gin.Context) {
	single, combined := a.Store.Reports()

	var (
		doc []byte
		err error
	)
	switch {
	case combined != nil:
		doc, err = report.ExportCombined(combined)
	case single != nil:
		doc, err = report.ExportSingle(single)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "No analysis results to export"})
		return
	}
	if err != nil {
		a.Log.Error("report export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename()+`"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}
