package dummydb

import (
	"sync"

	"github.com/aulatech/aula/core/course"
	"github.com/aulatech/aula/core/event"
	"github.com/aulatech/aula/core/material"
	"github.com/aulatech/aula/core/user"
)

type (
	DB struct {
		user     *userTable
		course   *courseTable
		material *materialTable
		event    *eventTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table       map[string]*course.Course
		enrollments map[string]map[string]bool // courseID -> studentID set
	}

	materialTable struct {
		sync.RWMutex
		table map[string]*material.Material
	}

	eventTable struct {
		sync.RWMutex
		table map[string]*event.Event
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			table:       make(map[string]*course.Course),
			enrollments: make(map[string]map[string]bool),
		},
		material: &materialTable{table: make(map[string]*material.Material)},
		event:    &eventTable{table: make(map[string]*event.Event)},
	}
	return db, nil
}
