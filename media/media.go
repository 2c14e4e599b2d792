package media

import (
	"encoding/base64"
	"strings"
	"sync"

	"github.com/Samartha120/Vechile-Damage-Detection/models"
)

// Kind classifies an upload by what the analysis pipeline should do with it.
type Kind string

const (
	KindImage      Kind = "image"
	KindVideo      Kind = "video"
	KindMultiImage Kind = "multi-image"
)

// File is one uploaded file as received from the client.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Item is one accepted media item, ready for analysis.
type Item struct {
	Name    string `json:"name"`
	MIME    string `json:"mime"`
	DataURI string `json:"data_uri"`
	// Raw is kept for video items so the frame extractor can hand the
	// bytes to ffmpeg; image items only need the data URI.
	Raw []byte `json:"-"`
}

// Media is one classified upload.
type Media struct {
	Kind  Kind   `json:"kind"`
	Items []Item `json:"items"`
}

// EncodeDataURI builds a data URI for raw bytes of the given MIME type.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a data URI back into its MIME type and raw bytes.
func DecodeDataURI(uri string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, false
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return mime, data, true
}

// Classify applies the upload classification rule: a single file is typed by
// its MIME prefix as image or video; several files are filtered down to the
// images and treated as a multi-image upload. Non-image files in a multi-file
// upload are discarded. ok is false when nothing qualifies, in which case the
// upload is a no-op.
func Classify(files []File) (Media, bool) {
	if len(files) == 0 {
		return Media{}, false
	}

	if len(files) == 1 {
		f := files[0]
		switch {
		case strings.HasPrefix(f.MIME, "image/"):
			return Media{Kind: KindImage, Items: []Item{toItem(f, false)}}, true
		case strings.HasPrefix(f.MIME, "video/"):
			return Media{Kind: KindVideo, Items: []Item{toItem(f, true)}}, true
		default:
			return Media{}, false
		}
	}

	var items []Item
	for _, f := range files {
		if strings.HasPrefix(f.MIME, "image/") {
			items = append(items, toItem(f, false))
		}
	}
	if len(items) == 0 {
		return Media{}, false
	}
	return Media{Kind: KindMultiImage, Items: items}, true
}

func toItem(f File, keepRaw bool) Item {
	item := Item{
		Name:    f.Name,
		MIME:    f.MIME,
		DataURI: EncodeDataURI(f.MIME, f.Data),
	}
	if keepRaw {
		item.Raw = f.Data
	}
	return item
}

// Store holds the panel state for the single demo session: the currently
// loaded media and whatever report was last computed from it. Loading new
// media always invalidates prior results. Nothing here survives a restart.
type Store struct {
	mu       sync.Mutex
	media    *Media
	single   *models.UnitAnalysisResult
	combined *models.CombinedReport
}

func NewStore() *Store {
	return &Store{}
}

// Replace swaps in newly uploaded media and clears any prior results.
func (s *Store) Replace(m Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media = &m
	s.single = nil
	s.combined = nil
}

// Current returns the loaded media, or nil when nothing has been uploaded.
func (s *Store) Current() *Media {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media
}

func (s *Store) SetSingle(r *models.UnitAnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.single = r
	s.combined = nil
}

func (s *Store) SetCombined(r *models.CombinedReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.combined = r
	s.single = nil
}

// Reports returns whichever results are currently held.
func (s *Store) Reports() (*models.UnitAnalysisResult, *models.CombinedReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.single, s.combined
}
