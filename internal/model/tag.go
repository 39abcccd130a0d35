package model

import (
	"fmt"
	"strings"
)

// Tag labels a message for filtering. The set is closed.
type Tag string

const (
	TagHomework   Tag = "homework"
	TagDefinition Tag = "definition"
	TagFormula    Tag = "formula"
	TagExam       Tag = "exam"
	TagImportant  Tag = "important"
)

// AllTags lists every valid tag in display order.
func AllTags() []Tag {
	return []Tag{TagHomework, TagDefinition, TagFormula, TagExam, TagImportant}
}

// Valid reports whether t belongs to the closed tag set.
func (t Tag) Valid() bool {
	switch t {
	case TagHomework, TagDefinition, TagFormula, TagExam, TagImportant:
		return true
	}
	return false
}

// ParseTag parses a tag name case-insensitively.
func ParseTag(s string) (Tag, error) {
	t := Tag(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tag %q", s)
	}
	return t, nil
}
