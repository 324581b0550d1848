package material

import (
	"time"

	"github.com/aulatech/aula/core"
)

// MaxUploadSize caps uploaded study material files.
const MaxUploadSize = 10 << 20 // 10MiB

// Material describes a study document attached to a course. The file bytes
// themselves live in the object store under ObjectKey; only metadata is
// persisted here.
type Material struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Name      string    `json:"nombre"`
	MediaType string    `json:"tipo"`
	Size      int64     `json:"size"`
	ObjectKey string    `json:"-"`
	URL       string    `json:"url,omitempty"`
	Topics    []string  `json:"topics,omitempty"`
	CreatedAt time.Time `json:"creado_en"` // UTC
}

// NewMaterial contains the metadata accompanying an upload.
type NewMaterial struct {
	CourseID  string   `json:"course_id" validate:"required"`
	Name      string   `json:"nombre" validate:"required"`
	MediaType string   `json:"tipo" validate:"required"`
	Topics    []string `json:"topics"`
}

func (nm *NewMaterial) Validate() error {
	nm.Name = core.CleanString(nm.Name)
	nm.MediaType = core.CleanString(nm.MediaType, true /* lower */)
	return core.Validate.Struct(nm)
}

// Activity is a recent-material feed entry surfaced on the student dashboard.
type Activity struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	Type  string    `json:"type"`
}
