package imagestore

import "time"

// Resolution is an image size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ExposureSettings records the lighting period and device parameters an
// image was captured with.
type ExposureSettings struct {
	Period   string `json:"period"`
	Exposure int    `json:"exposure"`
	Gain     int    `json:"gain"`
}

// Record describes one stored image. Records are immutable once saved.
type Record struct {
	ID          string            `json:"id"`
	Path        string            `json:"path"`
	CaptureTime time.Time         `json:"capture_time"`
	FileSize    int64             `json:"file_size"`
	Resolution  Resolution        `json:"resolution"`
	Settings    ExposureSettings  `json:"exposure_settings"`
	Weather     map[string]string `json:"weather_data,omitempty"`
	Astronomy   map[string]any    `json:"astronomy_data,omitempty"`
}

// Capture is the input to Save: encoded image bytes plus the context they
// were captured in.
type Capture struct {
	Data        []byte
	Format      string
	CaptureTime time.Time
	Resolution  Resolution
	Settings    ExposureSettings
	Weather     map[string]string
	Astronomy   map[string]any
}

// StorageStats is the storage statistics surface.
type StorageStats struct {
	CurrentFiles int     `json:"current_files"`
	CurrentSize  int64   `json:"current_size"`
	ArchiveFiles int     `json:"archive_files"`
	ArchiveSize  int64   `json:"archive_size"`
	Ceiling      int     `json:"ceiling"`
	UsagePercent float64 `json:"usage_percent"`
}

// Statistics summarizes the indexed corpus.
type Statistics struct {
	TotalImages int          `json:"total_images"`
	Recent24h   int          `json:"recent_24h"`
	Oldest      *time.Time   `json:"oldest,omitempty"`
	Newest      *time.Time   `json:"newest,omitempty"`
	Storage     StorageStats `json:"storage"`
}
