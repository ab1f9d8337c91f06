package release

// Placement controls how an image is laid out in the rendered document.
type Placement string

const (
	PlacementInline    Placement = "inline"
	PlacementFullWidth Placement = "full_width"
)

// AttachmentType controls how an attachment is incorporated.
type AttachmentType string

const (
	AttachmentAppendix AttachmentType = "appendix"
	AttachmentEmbed    AttachmentType = "embed"
)

// Feature is a single new-feature entry.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Fix is a single bug-fix entry.
type Fix struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// BreakingChange is a single breaking-change entry. Migration is required:
// a breaking change without a migration note fails validation.
type BreakingChange struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Migration   string `json:"migration"`
}

// Link is a reference link entry.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Image is an illustration reference. ResolvedPath and SHA256 are populated
// during asset resolution and excluded from serialized output.
type Image struct {
	Path         string    `json:"path"`
	Caption      string    `json:"caption,omitempty"`
	WidthPercent int       `json:"width_percent"`
	Placement    Placement `json:"placement"`

	ResolvedPath string `json:"-"`
	SHA256       string `json:"-"`
}

// Attachment is a supplementary file reference. ResolvedPath and SHA256 are
// populated during asset resolution and excluded from serialized output.
type Attachment struct {
	Label string         `json:"label"`
	Path  string         `json:"path"`
	Type  AttachmentType `json:"type"`

	ResolvedPath string `json:"-"`
	SHA256       string `json:"-"`
}

// Document is the canonical validated release data model.
type Document struct {
	SchemaVersion   string           `json:"schema_version"`
	ProductName     string           `json:"product_name"`
	Version         string           `json:"version"`
	ReleaseDate     string           `json:"release_date"`
	Summary         string           `json:"summary"`
	Features        []Feature        `json:"features"`
	Fixes           []Fix            `json:"fixes"`
	BreakingChanges []BreakingChange `json:"breaking_changes"`
	Links           []Link           `json:"links"`
	Images          []Image          `json:"images"`
	Attachments     []Attachment     `json:"attachments"`
}

// HasAssets reports whether the document references any images or attachments.
func (d *Document) HasAssets() bool {
	return len(d.Images) > 0 || len(d.Attachments) > 0
}
