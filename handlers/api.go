package handlers

import (
	"log/slog"

	"github.com/Samartha120/Vechile-Damage-Detection/batch"
	"github.com/Samartha120/Vechile-Damage-Detection/frames"
	"github.com/Samartha120/Vechile-Damage-Detection/media"
)

// API bundles the pipeline pieces behind the HTTP surface.
type API struct {
	Store        *media.Store
	Orchestrator *batch.Orchestrator
	Extractor    *frames.Extractor
	UploadDir    string
	Log          *slog.Logger
}

func New(store *media.Store, orch *batch.Orchestrator, ext *frames.Extractor, uploadDir string, log *slog.Logger) *API {
	return &API{
		Store:        store,
		Orchestrator: orch,
		Extractor:    ext,
		UploadDir:    uploadDir,
		Log:          log,
	}
}
