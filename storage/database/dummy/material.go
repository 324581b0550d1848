package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aulatech/aula/core/material"
)

type materialRepository struct {
	db      *materialTable
	courses *courseTable
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *DB) *materialRepository {
	return &materialRepository{db: db.material, courses: db.course}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, mat material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	mat.ID = uuid.New().String()
	mat.CreatedAt = time.Now().UTC()
	repo.db.table[mat.ID] = &mat
	return mat, nil
}

func (repo *materialRepository) GetMaterialByID(ctx context.Context, id string) (material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mat, ok := repo.db.table[id]; ok {
		return *mat, nil
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) QueryCourseMaterials(ctx context.Context, courseID string) ([]material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	mats := make([]material.Material, 0)
	for _, mat := range repo.db.table {
		if mat.CourseID == courseID {
			mats = append(mats, *mat)
		}
	}
	sort.Slice(mats, func(i, j int) bool { return mats[i].CreatedAt.After(mats[j].CreatedAt) })
	return mats, nil
}

func (repo *materialRepository) QueryStudentMaterials(ctx context.Context, studentID string, limit int) ([]material.Material, error) {
	repo.courses.RLock()
	enrolled := make(map[string]bool)
	for courseID, students := range repo.courses.enrollments {
		if students[studentID] {
			enrolled[courseID] = true
		}
	}
	repo.courses.RUnlock()

	repo.db.RLock()
	defer repo.db.RUnlock()

	mats := make([]material.Material, 0)
	for _, mat := range repo.db.table {
		if enrolled[mat.CourseID] {
			mats = append(mats, *mat)
		}
	}
	sort.Slice(mats, func(i, j int) bool { return mats[i].CreatedAt.After(mats[j].CreatedAt) })
	if limit > 0 && len(mats) > limit {
		mats = mats[:limit]
	}
	return mats, nil
}

func (repo *materialRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
