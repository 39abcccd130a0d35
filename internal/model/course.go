package model

// Announcement is a dated course notice.
type Announcement struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

// Course is a course record in the directory.
type Course struct {
	ID            string         `json:"id"`
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	Department    string         `json:"department"`
	Professor     string         `json:"professor"`
	Semester      string         `json:"semester,omitempty"`
	Description   string         `json:"description,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	OfficeHours   string         `json:"office_hours,omitempty"`
	Textbooks     []string       `json:"textbooks,omitempty"`
	Announcements []Announcement `json:"announcements,omitempty"`
}

// Clone returns a copy of c that shares no slices with it.
func (c Course) Clone() Course {
	out := c
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if c.Textbooks != nil {
		out.Textbooks = append([]string(nil), c.Textbooks...)
	}
	if c.Announcements != nil {
		out.Announcements = append([]Announcement(nil), c.Announcements...)
	}
	return out
}

// CoursePatch is a partial update of a course. Nil fields are left untouched.
type CoursePatch struct {
	Code          *string         `json:"code,omitempty"`
	Name          *string         `json:"name,omitempty"`
	Department    *string         `json:"department,omitempty"`
	Professor     *string         `json:"professor,omitempty"`
	Semester      *string         `json:"semester,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Tags          *[]string       `json:"tags,omitempty"`
	OfficeHours   *string         `json:"office_hours,omitempty"`
	Textbooks     *[]string       `json:"textbooks,omitempty"`
	Announcements *[]Announcement `json:"announcements,omitempty"`
}

// Apply merges p into c and returns the result.
func (p CoursePatch) Apply(c Course) Course {
	out := c.Clone()
	if p.Code != nil {
		out.Code = *p.Code
	}
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Department != nil {
		out.Department = *p.Department
	}
	if p.Professor != nil {
		out.Professor = *p.Professor
	}
	if p.Semester != nil {
		out.Semester = *p.Semester
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.OfficeHours != nil {
		out.OfficeHours = *p.OfficeHours
	}
	if p.Textbooks != nil {
		out.Textbooks = append([]string(nil), (*p.Textbooks)...)
	}
	if p.Announcements != nil {
		out.Announcements = append([]Announcement(nil), (*p.Announcements)...)
	}
	return out
}

// ListCoursesResponse is the response for listing courses.
type ListCoursesResponse struct {
	Courses []Course `json:"courses"`
	Total   int      `json:"total"`
}
