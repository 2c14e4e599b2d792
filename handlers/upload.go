package handlers

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/Samartha120/Vechile-Damage-Detection/media"
)

// UploadMedia accepts one or more files under the "files" form field,
// classifies them and replaces the loaded media. An upload with no
// supported files changes nothing.
func (a *API) UploadMedia(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	headers := form.File["files"]
	files := make([]media.File, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = mime.TypeByExtension(filepath.Ext(header.Filename))
		}
		files = append(files, media.File{Name: header.Filename, MIME: mimeType, Data: data})
	}

	m, ok := media.Classify(files)
	if !ok {
		// Nothing qualified; prior media and results stay untouched.
		c.JSON(http.StatusOK, gin.H{"accepted": false})
		return
	}

	a.Store.Replace(m)
	a.Log.Info("media loaded", "kind", m.Kind, "items", len(m.Items))

	c.JSON(http.StatusOK, gin.H{
		"accepted": true,
		"kind":     m.Kind,
		"count":    len(m.Items),
	})
}
