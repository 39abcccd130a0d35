package course

import "github.com/capitalize-ai/coursechat/internal/model"

// SeedCourses returns the default course catalogue.
func SeedCourses() []model.Course {
	return []model.Course{
		{
			ID:          "csci-1100",
			Code:        "CSCI 1100",
			Name:        "Computer Science I",
			Department:  "Computer Science",
			Professor:   "Dr. Smith",
			Semester:    "Fall 2025",
			Description: "Introduction to computer programming and problem solving",
		},
		{
			ID:         "csci-2300",
			Code:       "CSCI 2300",
			Name:       "Data Structures & Algorithms",
			Department: "Computer Science",
			Professor:  "Dr. Johnson",
			Semester:   "Fall 2025",
		},
		{
			ID:         "math-1010",
			Code:       "MATH 1010",
			Name:       "Calculus I",
			Department: "Mathematical Sciences",
			Professor:  "Dr. Williams",
			Semester:   "Fall 2025",
		},
		{
			ID:         "phys-1100",
			Code:       "PHYS 1100",
			Name:       "Physics I",
			Department: "Physics, Applied Physics, and Astronomy",
			Professor:  "Dr. Brown",
			Semester:   "Fall 2025",
		},
		{
			ID:         "engr-1600",
			Code:       "ENGR 1600",
			Name:       "Introduction to Engineering",
			Department: "Mechanical, Aerospace, and Nuclear Engineering",
			Professor:  "Dr. Davis",
			Semester:   "Fall 2025",
		},
	}
}
