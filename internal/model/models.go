package model

import (
	"errors"
	"time"
)

// ErrNotFound is returned by storage lookups that match nothing.
var ErrNotFound = errors.New("not found")

// FieldSource records where a raw metadata field came from.
type FieldSource string

const (
	// SourceGeneration marks text written by the generating tool (PNG text chunks, JPEG COM).
	SourceGeneration FieldSource = "generation"
	// SourceExif marks values read from an EXIF IFD.
	SourceExif FieldSource = "exif"
	// SourceXMP marks values read from an XMP packet.
	SourceXMP FieldSource = "xmp"
)

// PromptType classifies a PromptRecord by which halves are present.
type PromptType string

const (
	// PromptPositive has only a positive prompt.
	PromptPositive PromptType = "positive"
	// PromptNegative has only a negative prompt.
	PromptNegative PromptType = "negative"
	// PromptFull has both.
	PromptFull PromptType = "full"
)

// TagCategory is the category a derived tag belongs to.
type TagCategory string

const (
	CategoryStyle     TagCategory = "style"
	CategorySubject   TagCategory = "subject"
	CategoryTechnique TagCategory = "technique"
	CategoryQuality   TagCategory = "quality"
	CategoryModel     TagCategory = "model"
	CategoryNegative  TagCategory = "negative"
)

// Provenance records how an image/tag link was produced.
type Provenance string

const (
	ProvenancePrompt   Provenance = "prompt"
	ProvenanceMetadata Provenance = "metadata"
	ProvenanceManual   Provenance = "manual"
)

// ImageRecord is one file seen on disk.
type ImageRecord struct {
	ID            int64     `json:"id"`
	Path          string    `json:"path"`
	FileName      string    `json:"fileName"`
	Size          int64     `json:"size"`
	Format        string    `json:"format"`
	Width         int       `json:"width,omitempty"`
	Height        int       `json:"height,omitempty"`
	Hash          string    `json:"hash"`
	CreatedAt     time.Time `json:"createdAt"`
	LastScannedAt time.Time `json:"lastScannedAt"`
}

// ExtractedField is a raw key/value pair pulled out of an image container.
type ExtractedField struct {
	Key    string      `json:"key"`
	Value  string      `json:"value"`
	Source FieldSource `json:"source"`
}

// PromptRecord holds the parsed prompt of an image. Settings carries the
// parsed generation settings; values are string, int64 or float64.
type PromptRecord struct {
	ID             int64          `json:"id,omitempty"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negativePrompt,omitempty"`
	Type           PromptType     `json:"type"`
	Settings       map[string]any `json:"settings,omitempty"`
}

// Tag is a normalized, categorized label.
type Tag struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Category TagCategory `json:"category"`
}

// TagLink attaches a tag (by name and category) to an image.
type TagLink struct {
	Name       string      `json:"name"`
	Category   TagCategory `json:"category"`
	Confidence float64     `json:"confidence"`
	Provenance Provenance  `json:"provenance"`
}

// Collection is a folder-backed group of images, identified by Path.
type Collection struct {
	ID       int64  `json:"id"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	ParentID int64  `json:"parentId,omitempty"`
}

// Folder is one link of the chain of directories between a scan root and a
// file, root-most first.
type Folder struct {
	Path string
	Name string
}

// Extraction is everything derived from an image's bytes. It is what a
// duplicate sighting copies instead of decoding again.
type Extraction struct {
	Fields []ExtractedField `json:"fields"`
	Prompt *PromptRecord    `json:"prompt,omitempty"`
	Tags   []TagLink        `json:"tags"`
}

// IngestUnit is the per-file atomic commit: the image, its extraction and its
// collection membership. Replace drops fields/prompt/tags previously stored for
// the same path before inserting, used when a known file's hash changed.
type IngestUnit struct {
	Image      ImageRecord
	Extraction Extraction
	Folders    []Folder
	Replace    bool
}
