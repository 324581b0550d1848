package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aulatech/aula/core/material"
)

type materialRepository struct {
	db *sqlx.DB
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *sqlx.DB) *materialRepository {
	return &materialRepository{db: db}
}

type materialRow struct {
	ID        string         `db:"id"`
	CourseID  string         `db:"course_id"`
	Name      string         `db:"name"`
	MediaType null.String    `db:"media_type"`
	Size      int64          `db:"size"`
	ObjectKey string         `db:"object_key"`
	URL       null.String    `db:"url"`
	Topics    pq.StringArray `db:"topics"`
	CreatedAt null.Time      `db:"created_at"`
}

func (repo materialRepository) unrow(row materialRow) material.Material {
	return material.Material{
		ID:        row.ID,
		CourseID:  row.CourseID,
		Name:      row.Name,
		MediaType: row.MediaType.String,
		Size:      row.Size,
		ObjectKey: row.ObjectKey,
		URL:       row.URL.String,
		Topics:    []string(row.Topics),
		CreatedAt: row.CreatedAt.Time,
	}
}

func (repo materialRepository) unrowSlice(rows []materialRow) []material.Material {
	mats := make([]material.Material, 0, len(rows))
	for _, row := range rows {
		mats = append(mats, repo.unrow(row))
	}
	return mats
}

func (repo materialRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return material.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

const materialColumns = `id, course_id, name, media_type, size, object_key, url, topics, created_at`

func (repo materialRepository) CreateMaterial(ctx context.Context, mat material.Material) (material.Material, error) {
	mat.ID = uuid.New().String()
	mat.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO material (` + materialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, query,
		mat.ID, mat.CourseID, mat.Name, mat.MediaType, mat.Size, mat.ObjectKey, mat.URL,
		pq.StringArray(mat.Topics), mat.CreatedAt)
	if err != nil {
		return material.Material{}, errors.Wrap(err, "inserting material")
	}
	return mat, nil
}

func (repo materialRepository) GetMaterialByID(ctx context.Context, id string) (material.Material, error) {
	if _, err := uuid.Parse(id); err != nil {
		return material.Material{}, material.ErrNotFound
	}
	var row materialRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+materialColumns+` FROM material WHERE id = $1`, id)
	if err != nil {
		return material.Material{}, repo.trapNoRowsErr(err, "finding material by ID")
	}
	return repo.unrow(row), nil
}

func (repo materialRepository) QueryCourseMaterials(ctx context.Context, courseID string) ([]material.Material, error) {
	var rows []materialRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+materialColumns+` FROM material WHERE course_id = $1 ORDER BY created_at DESC`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying course materials")
	}
	return repo.unrowSlice(rows), nil
}

func (repo materialRepository) QueryStudentMaterials(ctx context.Context, studentID string, limit int) ([]material.Material, error) {
	query := `
		SELECT ` + materialColumns + ` FROM material
		WHERE course_id IN (SELECT course_id FROM enrollment WHERE student_id = $1)
		ORDER BY created_at DESC`
	args := []interface{}{studentID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []materialRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying student materials")
	}
	return repo.unrowSlice(rows), nil
}

func (repo materialRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM material WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting materials")
	}
	return nil
}
