package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/aulatech/aula/core/course"
	"github.com/aulatech/aula/core/material"
	"github.com/aulatech/aula/core/tutor"
	"github.com/aulatech/aula/core/user"
)

// tutorDirectory adapts the user, course and material services to the
// read-only view the tutoring orchestrator needs.
type tutorDirectory struct {
	users     user.Service
	courses   course.Service
	materials material.Service
}

var _ tutor.Directory = (*tutorDirectory)(nil)

func (d *tutorDirectory) StudentSummary(ctx context.Context, studentID string) (tutor.StudentSummary, error) {
	usr, err := d.users.GetByID(ctx, studentID)
	if err != nil {
		return tutor.StudentSummary{}, errors.Wrap(err, "finding student")
	}

	courseName := "tus estudios"
	if courses, err := d.courses.QueryByStudent(ctx, studentID); err == nil && len(courses) > 0 {
		courseName = courses[0].Name
	}

	return tutor.StudentSummary{
		ID:         usr.ID,
		Name:       usr.Name,
		CourseName: courseName,
		Experience: usr.Experience,
	}, nil
}

func (d *tutorDirectory) Documents(ctx context.Context, studentID string) ([]tutor.Document, error) {
	mats, err := d.materials.QueryByStudent(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student materials")
	}

	docs := make([]tutor.Document, 0, len(mats))
	for _, mat := range mats {
		docs = append(docs, tutor.Document{
			ID:        mat.ID,
			Title:     mat.Name,
			Topics:    mat.Topics,
			MediaType: mat.MediaType,
			URL:       mat.URL,
		})
	}
	return docs, nil
}
