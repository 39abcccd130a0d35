package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/coursechat/internal/chat"
	"github.com/capitalize-ai/coursechat/internal/course"
	"github.com/capitalize-ai/coursechat/internal/model"
	"github.com/capitalize-ai/coursechat/internal/upload"
	"github.com/capitalize-ai/coursechat/pkg/logger"
	"github.com/capitalize-ai/coursechat/pkg/metrics"
)

// ErrInvalidCourse is returned when a course lacks a required field.
var ErrInvalidCourse = errors.New("invalid course")

// CatalogService handles the course directory and course materials.
type CatalogService struct {
	courses   *course.Directory
	uploads   *upload.Service
	publisher EventPublisher
	logger    *logger.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(courses *course.Directory, uploads *upload.Service, publisher EventPublisher, log *logger.Logger) *CatalogService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &CatalogService{
		courses:   courses,
		uploads:   uploads,
		publisher: publisher,
		logger:    log,
	}
}

// ListCourses lists courses matching search.
func (s *CatalogService) ListCourses(search string) *model.ListCoursesResponse {
	courses := s.courses.List(search)
	return &model.ListCoursesResponse{Courses: courses, Total: len(courses)}
}

// TeachingCourses lists the courses taught by a professor.
func (s *CatalogService) TeachingCourses(professor string) *model.ListCoursesResponse {
	courses := s.courses.ByProfessor(professor)
	return &model.ListCoursesResponse{Courses: courses, Total: len(courses)}
}

// GetCourse returns a course.
func (s *CatalogService) GetCourse(id string) (model.Course, error) {
	c, ok := s.courses.Get(id)
	if !ok {
		return model.Course{}, ErrCourseNotFound
	}
	return c, nil
}

// CreateCourse adds a course. The professor defaults to the caller.
func (s *CatalogService) CreateCourse(ctx context.Context, caller model.User, c model.Course) (model.Course, error) {
	if strings.TrimSpace(c.Code) == "" || strings.TrimSpace(c.Name) == "" {
		return model.Course{}, fmt.Errorf("%w: code and name are required", ErrInvalidCourse)
	}
	if c.Professor == "" {
		c.Professor = caller.Name
	}

	created := s.courses.Create(c)
	s.emit(ctx, caller.ID, created.ID, "created")
	return created, nil
}

// EditCourse applies a partial update to a course.
func (s *CatalogService) EditCourse(ctx context.Context, caller model.User, id string, patch model.CoursePatch) (model.Course, error) {
	updated, err := s.courses.Edit(id, patch)
	if errors.Is(err, course.ErrNotFound) {
		return model.Course{}, ErrCourseNotFound
	}
	if err != nil {
		return model.Course{}, err
	}

	s.emit(ctx, caller.ID, id, "updated")
	return updated, nil
}

// DeleteCourse removes a course from the directory.
func (s *CatalogService) DeleteCourse(ctx context.Context, caller model.User, id string) error {
	if !s.courses.Delete(id) {
		return ErrCourseNotFound
	}
	s.emit(ctx, caller.ID, id, "deleted")
	return nil
}

// Materials lists the materials of a course.
func (s *CatalogService) Materials(courseID string) (*model.ListFilesResponse, error) {
	if !s.courses.Exists(courseID) {
		return nil, ErrCourseNotFound
	}
	files := s.uploads.List(courseID)
	return &model.ListFilesResponse{Files: files, Total: len(files)}, nil
}

// UploadMaterials records uploaded files for a course.
func (s *CatalogService) UploadMaterials(
	ctx context.Context,
	caller model.User,
	courseID string,
	files []upload.File,
	meta upload.Meta,
	onProgress upload.ProgressFunc,
) ([]model.UploadedFile, error) {
	if !s.courses.Exists(courseID) {
		return nil, ErrCourseNotFound
	}

	uploaded, err := s.uploads.Upload(ctx, courseID, files, meta, onProgress)
	if err != nil {
		return nil, err
	}

	for _, f := range uploaded {
		metrics.RecordUpload(courseID, f.Size)
		s.publish(ctx, model.ChatEvent{
			Type:     model.EventMaterialUploaded,
			UserID:   caller.ID,
			CourseID: courseID,
			Metadata: map[string]string{"file_id": f.ID, "name": f.Name, "type": f.Type},
		})
	}
	s.logger.Info("materials uploaded",
		zap.String("course_id", courseID),
		zap.Int("files", len(uploaded)),
	)
	return uploaded, nil
}

func (s *CatalogService) emit(ctx context.Context, userID, courseID, action string) {
	s.publish(ctx, model.ChatEvent{
		Type:     model.EventCourseChanged,
		UserID:   userID,
		CourseID: courseID,
		Metadata: map[string]string{"action": action},
	})
}

func (s *CatalogService) publish(ctx context.Context, event model.ChatEvent) {
	event.ID = chat.NewID()
	event.CreatedAt = time.Now()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish catalog event",
			zap.String("type", string(event.Type)),
			zap.String("course_id", event.CourseID),
			zap.Error(err),
		)
	}
}
