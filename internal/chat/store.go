// Package chat holds the per-session conversation state: the conversations of
// each course, the current selection, the streaming gate and the tag filter.
//
// Every Store method takes the store lock for its whole duration, so each call
// is atomic with respect to every other call. Reads return copies; callers can
// never reach into the store's own slices.
package chat

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/capitalize-ai/coursechat/internal/model"
)

// DefaultTitleLimit is the number of runes of the first user message used as
// the conversation title.
const DefaultTitleLimit = 50

// Result is the outcome of a message update.
type Result int

const (
	// Applied means the update was merged into the message.
	Applied Result = iota
	// NotFound means there was no current conversation or no such message.
	NotFound
	// Conflict means IfVersion did not match the message version.
	Conflict
	// Stale means the conversation was no longer the current one.
	Stale
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// MessagePatch is a partial update of a message. Nil fields are left untouched.
// Role is not patchable.
type MessagePatch struct {
	Content     *string
	Pinned      *bool
	Tags        *[]model.Tag
	Attachments *[]model.Attachment

	// IfVersion makes the update conditional on the message's current version.
	IfVersion *uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides identifier allocation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithTitleLimit sets how many runes of the first user message become the title.
func WithTitleLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.titleLimit = n
		}
	}
}

// Store is the conversation state of one session.
type Store struct {
	mu sync.Mutex

	// conversations maps course id to its conversations in creation order.
	conversations map[string][]*model.Conversation

	courseID       string
	conversationID string
	streaming      bool
	tagFilter      []model.Tag

	now        func() time.Time
	newID      func() string
	titleLimit int
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		conversations: make(map[string][]*model.Conversation),
		tagFilter:     []model.Tag{},
		now:           time.Now,
		newID:         NewID,
		titleLimit:    DefaultTitleLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID allocates a time-ordered UUIDv7 identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ListConversations returns the conversations of a course in creation order.
func (s *Store) ListConversations(courseID string) []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs := s.conversations[courseID]
	out := make([]model.Conversation, 0, len(convs))
	for _, c := range convs {
		out = append(out, c.Clone())
	}
	return out
}

// CreateConversation appends an empty conversation to the course and makes it
// the current conversation. An empty title becomes "New Chat".
func (s *Store) CreateConversation(courseID, title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if title == "" {
		title = model.DefaultConversationTitle
	}
	conv := &model.Conversation{
		ID:          s.newID(),
		Title:       title,
		CourseID:    courseID,
		LastMessage: s.now(),
		Messages:    []model.Message{},
	}
	s.conversations[courseID] = append(s.conversations[courseID], conv)
	s.conversationID = conv.ID
	return conv.ID
}

// Conversation looks up a conversation of the current course.
func (s *Store) Conversation(id string) (model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, conv := s.lookup(id)
	if conv == nil {
		return model.Conversation{}, false
	}
	return conv.Clone(), true
}

// RenameConversation sets the title of a conversation of the current course.
// Rejecting empty titles is the caller's job.
func (s *Store) RenameConversation(id, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, conv := s.lookup(id)
	if conv == nil {
		return false
	}
	conv.Title = title
	return true
}

// DeleteConversation removes a conversation of the current course. Deleting
// the current conversation clears the selection.
func (s *Store) DeleteConversation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, conv := s.lookup(id)
	if conv == nil {
		return false
	}
	convs := s.conversations[s.courseID]
	s.conversations[s.courseID] = append(convs[:idx:idx], convs[idx+1:]...)
	if s.conversationID == id {
		s.conversationID = ""
	}
	return true
}

// SetCurrentConversation changes the selection without validating that the
// conversation exists. An empty id selects nothing.
func (s *Store) SetCurrentConversation(id string) {
	s.mu.Lock()
	s.conversationID = id
	s.mu.Unlock()
}

// SetCurrentCourse changes the selected course.
func (s *Store) SetCurrentCourse(courseID string) {
	s.mu.Lock()
	s.courseID = courseID
	s.mu.Unlock()
}

// SetStreaming sets the busy flag.
func (s *Store) SetStreaming(streaming bool) {
	s.mu.Lock()
	s.streaming = streaming
	s.mu.Unlock()
}

// IsStreaming reports the busy flag.
func (s *Store) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// TryBeginStreaming sets the busy flag if it is clear and reports whether it did.
func (s *Store) TryBeginStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		return false
	}
	s.streaming = true
	return true
}

// SetTagFilter replaces the active tag filter. Repeated tags are collapsed.
// A filter holding an unknown tag is rejected and the active filter is kept.
func (s *Store) SetTagFilter(tags []model.Tag) bool {
	for _, t := range tags {
		if !t.Valid() {
			return false
		}
	}

	s.mu.Lock()
	s.tagFilter = normalizeTags(tags)
	s.mu.Unlock()
	return true
}

// TagFilter returns the active tag filter.
func (s *Store) TagFilter() []model.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Tag{}, s.tagFilter...)
}

// Snapshot returns the selection state.
func (s *Store) Snapshot() model.ChatState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.ChatState{
		CourseID:       s.courseID,
		ConversationID: s.conversationID,
		IsStreaming:    s.streaming,
		TagFilter:      append([]model.Tag{}, s.tagFilter...),
	}
}

// CurrentMessages returns the messages of the current conversation in
// insertion order. With a non-empty tag filter only messages carrying at least
// one of the filter tags are returned.
func (s *Store) CurrentMessages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentMessages()
}

// PinnedMessages returns the pinned subset of CurrentMessages.
func (s *Store) PinnedMessages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pinned []model.Message
	for _, m := range s.currentMessages() {
		if m.Pinned {
			pinned = append(pinned, m)
		}
	}
	if pinned == nil {
		pinned = []model.Message{}
	}
	return pinned
}

// Message returns a message of the current conversation, ignoring the tag filter.
func (s *Store) Message(id string) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.current()
	if conv == nil {
		return model.Message{}, false
	}
	idx := indexOfMessage(conv, id)
	if idx < 0 {
		return model.Message{}, false
	}
	return conv.Messages[idx].Clone(), true
}

// AddMessage appends msg to the current conversation and returns the stored
// copy. The first message of a conversation, when authored by the user, also
// becomes its title. Reports false when nothing is selected or the role is invalid.
func (s *Store) AddMessage(msg model.Message) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(s.current(), msg)
}

// AddMessageIfCurrent is AddMessage that only applies while conversationID is
// still the current conversation. Replies that resolve after the user moved
// on are dropped instead of landing in another conversation.
func (s *Store) AddMessageIfCurrent(conversationID string, msg model.Message) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversationID == "" || s.conversationID != conversationID {
		return model.Message{}, false
	}
	return s.add(s.current(), msg)
}

func (s *Store) add(conv *model.Conversation, msg model.Message) (model.Message, bool) {
	if conv == nil || !msg.Role.Valid() {
		return model.Message{}, false
	}

	now := s.now()
	stored := msg.Clone()
	if stored.ID == "" {
		stored.ID = s.newID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.Tags = normalizeTags(stored.Tags)
	stored.Version = 0

	if len(conv.Messages) == 0 && stored.Role == model.RoleUser {
		if title := truncate(stored.Content, s.titleLimit); strings.TrimSpace(title) != "" {
			conv.Title = title
		}
	}
	conv.Messages = append(conv.Messages, stored)
	conv.LastMessage = now
	return stored.Clone(), true
}

// UpdateMessage merges patch into a message of the current conversation.
func (s *Store) UpdateMessage(id string, patch MessagePatch) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(id, patch)
}

// UpdateMessageIfCurrent is UpdateMessage that only applies while
// conversationID is still the current conversation, and reports Stale otherwise.
func (s *Store) UpdateMessageIfCurrent(conversationID, id string, patch MessagePatch) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversationID == "" || s.conversationID != conversationID {
		return Stale
	}
	return s.update(id, patch)
}

func (s *Store) update(id string, patch MessagePatch) Result {
	msg := s.message(id)
	if msg == nil {
		return NotFound
	}
	if patch.IfVersion != nil && *patch.IfVersion != msg.Version {
		return Conflict
	}
	if patch.Content != nil {
		msg.Content = *patch.Content
	}
	if patch.Pinned != nil {
		msg.Pinned = *patch.Pinned
	}
	if patch.Tags != nil {
		msg.Tags = normalizeTags(*patch.Tags)
	}
	if patch.Attachments != nil {
		msg.Attachments = append([]model.Attachment(nil), (*patch.Attachments)...)
	}
	msg.Version++
	return Applied
}

// DeleteMessage removes a message from the current conversation.
func (s *Store) DeleteMessage(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.current()
	if conv == nil {
		return false
	}
	idx := indexOfMessage(conv, id)
	if idx < 0 {
		return false
	}
	conv.Messages = append(conv.Messages[:idx:idx], conv.Messages[idx+1:]...)
	return true
}

// TogglePinMessage flips the pinned flag of a message.
func (s *Store) TogglePinMessage(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.message(id)
	if msg == nil {
		return false
	}
	msg.Pinned = !msg.Pinned
	msg.Version++
	return true
}

// AddMessageTag adds tag to a message. Adding a tag already present changes nothing.
// Reports whether the message was found and the tag is valid.
func (s *Store) AddMessageTag(id string, tag model.Tag) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.message(id)
	if msg == nil || !tag.Valid() {
		return false
	}
	if !msg.HasTag(tag) {
		msg.Tags = append(msg.Tags, tag)
		msg.Version++
	}
	return true
}

// RemoveMessageTag removes tag from a message. Removing an absent tag changes nothing.
// Reports whether the message was found and the tag is valid.
func (s *Store) RemoveMessageTag(id string, tag model.Tag) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.message(id)
	if msg == nil || !tag.Valid() {
		return false
	}
	for i, t := range msg.Tags {
		if t == tag {
			msg.Tags = append(msg.Tags[:i:i], msg.Tags[i+1:]...)
			msg.Version++
			break
		}
	}
	return true
}

// lookup finds a conversation of the current course. Caller holds the lock.
func (s *Store) lookup(id string) (int, *model.Conversation) {
	for i, c := range s.conversations[s.courseID] {
		if c.ID == id {
			return i, c
		}
	}
	return -1, nil
}

// current resolves the current conversation. Caller holds the lock.
func (s *Store) current() *model.Conversation {
	if s.courseID == "" || s.conversationID == "" {
		return nil
	}
	_, conv := s.lookup(s.conversationID)
	return conv
}

// message resolves a message of the current conversation. Caller holds the lock.
func (s *Store) message(id string) *model.Message {
	conv := s.current()
	if conv == nil {
		return nil
	}
	idx := indexOfMessage(conv, id)
	if idx < 0 {
		return nil
	}
	return &conv.Messages[idx]
}

func (s *Store) currentMessages() []model.Message {
	out := []model.Message{}
	conv := s.current()
	if conv == nil {
		return out
	}
	for _, m := range conv.Messages {
		if len(s.tagFilter) > 0 && !m.HasAnyTag(s.tagFilter) {
			continue
		}
		out = append(out, m.Clone())
	}
	return out
}

func indexOfMessage(conv *model.Conversation, id string) int {
	for i := range conv.Messages {
		if conv.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

func normalizeTags(tags []model.Tag) []model.Tag {
	out := make([]model.Tag, 0, len(tags))
	for _, t := range tags {
		if !t.Valid() {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == t {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

// truncate returns the first limit runes of content.
func truncate(content string, limit int) string {
	if utf8.RuneCountInString(content) <= limit {
		return content
	}
	return string([]rune(content)[:limit])
}
