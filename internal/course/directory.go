// Package course provides the in-memory course directory.
package course

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/capitalize-ai/coursechat/internal/model"
)

// ErrNotFound is returned when a course id does not resolve.
var ErrNotFound = errors.New("course not found")

// Directory is the list of courses, in insertion order.
type Directory struct {
	mu      sync.RWMutex
	courses []model.Course
}

// NewDirectory creates a directory holding courses.
func NewDirectory(courses ...model.Course) *Directory {
	d := &Directory{}
	for _, c := range courses {
		d.courses = append(d.courses, c.Clone())
	}
	return d
}

// NewSeededDirectory creates a directory holding the default catalogue.
func NewSeededDirectory() *Directory {
	return NewDirectory(SeedCourses()...)
}

// List returns every course whose name, code or department contains search,
// case-insensitively. An empty search returns all courses.
func (d *Directory) List(search string) []model.Course {
	d.mu.RLock()
	defer d.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(search))
	out := []model.Course{}
	for _, c := range d.courses {
		if term == "" ||
			strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.Code), term) ||
			strings.Contains(strings.ToLower(c.Department), term) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// ByProfessor returns the courses taught by the named professor.
func (d *Directory) ByProfessor(name string) []model.Course {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []model.Course{}
	for _, c := range d.courses {
		if strings.EqualFold(c.Professor, name) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Get looks up a course by id.
func (d *Directory) Get(id string) (model.Course, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if i := d.index(id); i >= 0 {
		return d.courses[i].Clone(), true
	}
	return model.Course{}, false
}

// Exists reports whether a course id resolves.
func (d *Directory) Exists(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index(id) >= 0
}

// Create adds a course under a freshly allocated id. Any id on c is ignored.
func (d *Directory) Create(c model.Course) model.Course {
	d.mu.Lock()
	defer d.mu.Unlock()

	created := c.Clone()
	created.ID = "course-" + uuid.Must(uuid.NewV7()).String()
	d.courses = append(d.courses, created)
	return created.Clone()
}

// Edit merges patch into a course and returns the updated record.
func (d *Directory) Edit(id string, patch model.CoursePatch) (model.Course, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.index(id)
	if i < 0 {
		return model.Course{}, ErrNotFound
	}
	d.courses[i] = patch.Apply(d.courses[i])
	return d.courses[i].Clone(), nil
}

// Delete removes a course. Reports whether it existed.
func (d *Directory) Delete(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.index(id)
	if i < 0 {
		return false
	}
	d.courses = append(d.courses[:i:i], d.courses[i+1:]...)
	return true
}

func (d *Directory) index(id string) int {
	for i := range d.courses {
		if d.courses[i].ID == id {
			return i
		}
	}
	return -1
}
