package material

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/aulatech/aula/core"
)

var (
	// errors
	ErrNotFound = errors.New("material not found")
	ErrTooLarge = errors.New("file exceeds the maximum allowed size of 10MB")
)

type (
	// ObjectStore holds the uploaded file bytes, keyed by an opaque object key.
	ObjectStore interface {
		Put(ctx context.Context, key string, r io.Reader) (int64, error)
		Get(ctx context.Context, key string) (io.ReadCloser, error)
		Delete(ctx context.Context, key string) error
		// URL returns a client-resolvable locator for the object.
		URL(key string) string
	}

	Repository interface {
		CreateMaterial(ctx context.Context, mat Material) (Material, error)
		GetMaterialByID(ctx context.Context, id string) (Material, error)
		QueryCourseMaterials(ctx context.Context, courseID string) ([]Material, error)
		// QueryStudentMaterials returns materials of every course the student
		// is enrolled in, newest first, capped at limit (0 = no cap).
		QueryStudentMaterials(ctx context.Context, studentID string, limit int) ([]Material, error)
		DeleteMaterialsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Upload(ctx context.Context, nm NewMaterial, r io.Reader) (Material, error)
		GetByID(ctx context.Context, id string) (Material, error)
		Open(ctx context.Context, id string) (Material, io.ReadCloser, error)
		QueryByCourse(ctx context.Context, courseID string) ([]Material, error)
		QueryByStudent(ctx context.Context, studentID string) ([]Material, error)
		// RecentActivity returns the student's newest materials as feed entries.
		RecentActivity(ctx context.Context, studentID string) ([]Activity, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo  Repository
		store ObjectStore
	}
)

const recentActivityLimit = 5

var _ Service = (*service)(nil)

func NewService(repo Repository, store ObjectStore) Service {
	return &service{repo: repo, store: store}
}

// Upload streams the file to the object store and records its descriptor.
// Files over MaxUploadSize are rejected with a validation error.
func (svc *service) Upload(ctx context.Context, nm NewMaterial, r io.Reader) (Material, error) {
	key := nm.CourseID + "/" + uuid.New().String()

	// LimitReader by one extra byte so an oversized upload is detectable.
	size, err := svc.store.Put(ctx, key, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return Material{}, errors.Wrap(err, "storing object")
	}
	if size > MaxUploadSize {
		if derr := svc.store.Delete(ctx, key); derr != nil {
			return Material{}, errors.Wrap(derr, "removing oversized object")
		}
		return Material{}, core.NewValidationError(ErrTooLarge, core.FieldError{Field: "file", Error: ErrTooLarge.Error()})
	}

	mat := Material{
		CourseID:  nm.CourseID,
		Name:      nm.Name,
		MediaType: nm.MediaType,
		Size:      size,
		ObjectKey: key,
		URL:       svc.store.URL(key),
		Topics:    nm.Topics,
	}
	return svc.repo.CreateMaterial(ctx, mat)
}

func (svc *service) GetByID(ctx context.Context, id string) (Material, error) {
	return svc.repo.GetMaterialByID(ctx, id)
}

func (svc *service) Open(ctx context.Context, id string) (Material, io.ReadCloser, error) {
	mat, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return Material{}, nil, err
	}
	rc, err := svc.store.Get(ctx, mat.ObjectKey)
	if err != nil {
		return Material{}, nil, errors.Wrap(err, "opening object")
	}
	return mat, rc, nil
}

func (svc *service) QueryByCourse(ctx context.Context, courseID string) ([]Material, error) {
	return svc.repo.QueryCourseMaterials(ctx, courseID)
}

func (svc *service) QueryByStudent(ctx context.Context, studentID string) ([]Material, error) {
	return svc.repo.QueryStudentMaterials(ctx, studentID, 0)
}

func (svc *service) RecentActivity(ctx context.Context, studentID string) ([]Activity, error) {
	mats, err := svc.repo.QueryStudentMaterials(ctx, studentID, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	acts := make([]Activity, 0, len(mats))
	for _, mat := range mats {
		acts = append(acts, Activity{
			ID:    mat.ID,
			Title: mat.Name,
			Date:  mat.CreatedAt,
			Type:  mat.MediaType,
		})
	}
	return acts, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		mat, err := svc.repo.GetMaterialByID(ctx, id)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				continue
			}
			return err
		}
		if err := svc.store.Delete(ctx, mat.ObjectKey); err != nil {
			return errors.Wrap(err, "removing object")
		}
	}
	return svc.repo.DeleteMaterialsByID(ctx, ids...)
}
