package chat

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/coursechat/internal/model"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	base := time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC)
	tick := 0
	seq := 0
	return NewStore(append([]Option{
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	}, opts...)...)
}

func userMsg(id, content string) model.Message {
	return model.Message{ID: id, Role: model.RoleUser, Content: content}
}

func assistantMsg(id, content string) model.Message {
	return model.Message{ID: id, Role: model.RoleAssistant, Content: content}
}

func messageIDs(msgs []model.Message) []string {
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids
}

func openConversation(t *testing.T, s *Store, courseID string) string {
	t.Helper()
	s.SetCurrentCourse(courseID)
	return s.CreateConversation(courseID, "")
}

func TestCreateConversation(t *testing.T) {
	s := newTestStore(t)
	s.SetCurrentCourse("csci-1100")

	id := s.CreateConversation("csci-1100", "")

	convs := s.ListConversations("csci-1100")
	require.Len(t, convs, 1)
	assert.Equal(t, id, convs[0].ID)
	assert.Equal(t, "New Chat", convs[0].Title)
	assert.Equal(t, "csci-1100", convs[0].CourseID)
	assert.Empty(t, convs[0].Messages)
	assert.False(t, convs[0].LastMessage.IsZero())
	assert.Equal(t, id, s.Snapshot().ConversationID)

	titled := s.CreateConversation("csci-1100", "Midterm Review Topics")
	conv, ok := s.Conversation(titled)
	require.True(t, ok)
	assert.Equal(t, "Midterm Review Topics", conv.Title)
	assert.Equal(t, titled, s.Snapshot().ConversationID)
	assert.Len(t, s.ListConversations("csci-1100"), 2)
}

func TestListConversationsScopedByCourse(t *testing.T) {
	s := newTestStore(t)

	s.CreateConversation("csci-1100", "a")
	s.CreateConversation("math-1010", "b")
	s.CreateConversation("csci-1100", "c")

	assert.Equal(t, []string{"a", "c"}, titles(s.ListConversations("csci-1100")))
	assert.Equal(t, []string{"b"}, titles(s.ListConversations("math-1010")))
	assert.Empty(t, s.ListConversations("phys-1100"))
	assert.NotNil(t, s.ListConversations("phys-1100"))
}

func titles(convs []model.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.Title
	}
	return out
}

func TestCreateThenDeleteRestoresList(t *testing.T) {
	s := newTestStore(t)
	s.SetCurrentCourse("csci-1100")
	s.CreateConversation("csci-1100", "keep")
	before := len(s.ListConversations("csci-1100"))

	id := s.CreateConversation("csci-1100", "")
	require.Equal(t, id, s.Snapshot().ConversationID)

	assert.True(t, s.DeleteConversation(id))
	assert.Len(t, s.ListConversations("csci-1100"), before)
	assert.Empty(t, s.Snapshot().ConversationID)
}

func TestDeleteCurrentConversationClearsSelection(t *testing.T) {
	s := newTestStore(t)
	id := openConversation(t, s, "csci-1100")
	_, ok := s.AddMessage(userMsg("m1", "hello"))
	require.True(t, ok)

	require.True(t, s.DeleteConversation(id))

	assert.Empty(t, s.Snapshot().ConversationID)
	assert.Empty(t, s.CurrentMessages())
}

func TestDeleteOtherConversationKeepsSelection(t *testing.T) {
	s := newTestStore(t)
	first := openConversation(t, s, "csci-1100")
	second := s.CreateConversation("csci-1100", "")

	require.True(t, s.DeleteConversation(first))
	assert.Equal(t, second, s.Snapshot().ConversationID)
}

func TestDeleteConversationMissing(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")

	assert.False(t, s.DeleteConversation("nope"))
	assert.Len(t, s.ListConversations("csci-1100"), 1)
}

func TestRenameAndDeleteScopedToCurrentCourse(t *testing.T) {
	s := newTestStore(t)
	other := s.CreateConversation("math-1010", "calc")
	s.SetCurrentCourse("csci-1100")

	assert.False(t, s.RenameConversation(other, "renamed"))
	assert.False(t, s.DeleteConversation(other))
	assert.Equal(t, []string{"calc"}, titles(s.ListConversations("math-1010")))
}

func TestRapidRenamesLastWins(t *testing.T) {
	s := newTestStore(t)
	id := openConversation(t, s, "csci-1100")

	require.True(t, s.RenameConversation(id, "A"))
	require.True(t, s.RenameConversation(id, "B"))

	conv, ok := s.Conversation(id)
	require.True(t, ok)
	assert.Equal(t, "B", conv.Title)
}

func TestRenameMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")

	assert.False(t, s.RenameConversation("missing", "x"))
	assert.Equal(t, []string{"New Chat"}, titles(s.ListConversations("csci-1100")))
}

func TestSetCurrentConversationUnknownYieldsEmptyView(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")
	s.AddMessage(userMsg("m1", "hi"))

	s.SetCurrentConversation("does-not-exist")

	assert.Equal(t, "does-not-exist", s.Snapshot().ConversationID)
	assert.Empty(t, s.CurrentMessages())
}

func TestCurrentMessagesWithoutSelection(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.CurrentMessages())

	s.SetCurrentCourse("csci-1100")
	assert.Empty(t, s.CurrentMessages())
	assert.Empty(t, s.PinnedMessages())
}

func TestAddMessagePreservesOrder(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")

	var want []string
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("m%d", i)
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		_, ok := s.AddMessage(model.Message{ID: id, Role: role, Content: id})
		require.True(t, ok)
		want = append(want, id)
	}

	if diff := cmp.Diff(want, messageIDs(s.CurrentMessages())); diff != "" {
		t.Errorf("message order mismatch (-want +got):\n%s", diff)
	}
}

func TestAddMessageWithoutSelectionIsNoop(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.AddMessage(userMsg("m1", "hello"))
	assert.False(t, ok)

	s.SetCurrentCourse("csci-1100")
	_, ok = s.AddMessage(userMsg("m1", "hello"))
	assert.False(t, ok)
}

func TestAddMessageRejectsUnknownRole(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")

	_, ok := s.AddMessage(model.Message{ID: "m1", Role: "system", Content: "x"})
	assert.False(t, ok)
	assert.Empty(t, s.CurrentMessages())
}

func TestAddMessageFillsDefaults(t *testing.T) {
	s := newTestStore(t)
	id := openConversation(t, s, "csci-1100")
	before, _ := s.Conversation(id)

	stored, ok := s.AddMessage(model.Message{
		Role:    model.RoleAssistant,
		Content: "hi",
		Tags:    []model.Tag{model.TagExam, model.TagExam, "bogus"},
		Version: 7,
	})
	require.True(t, ok)

	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, []model.Tag{model.TagExam}, stored.Tags)
	assert.Zero(t, stored.Version)

	after, _ := s.Conversation(id)
	assert.True(t, after.LastMessage.After(before.LastMessage))
}

func TestFirstUserMessageBecomesTitle(t *testing.T) {
	s := newTestStore(t)
	id := openConversation(t, s, "csci-1100")

	s.AddMessage(userMsg("m1", "What is a BST?"))
	s.AddMessage(assistantMsg("m2", "A BST is..."))

	conv, ok := s.Conversation(id)
	require.True(t, ok)
	assert.Equal(t, "What is a BST?", conv.Title)
	assert.Len(t, conv.Messages, 2)
}

func TestFirstUserMessageTitleTruncated(t *testing.T) {
	s := newTestStore(t)
	id := openConversation(t, s, "csci-1100")

	long := strings.Repeat("é", 80)
	s.AddMessage(userMsg("m1", long))

	conv, _ := s.Conversation(id)
	assert.Equal(t, strings.Repeat("é", DefaultTitleLimit), conv.Title)
}

func TestTitleIsPrefixOfContent(t *testing.T) {
	s := newTestStore(t, WithTitleLimit(8))
	id := openConversation(t, s, "csci-1100")

	s.AddMessage(userMsg("m1", "  What is recursion?"))

	conv, _ := s.Conversation(id)
	assert.Equal(t, "  What i", conv.Title)
}

func TestBlankFirstMessageKeepsTitle(t *testing.T) {
	s := newTestStore(t)
	id := openConversation(t, s, "csci-1100")

	s.AddMessage(model.Message{ID: "m1", Role: model.RoleUser, Content: "   ", Attachments: []model.Attachment{{Kind: model.AttachmentPDF, Ref: "r"}}})

	conv, _ := s.Conversation(id)
	assert.Equal(t, "New Chat", conv.Title)
}

func TestLaterMessagesDoNotRetitle(t *testing.T) {
	s := newTestStore(t)
	id := openConversation(t, s, "csci-1100")

	s.AddMessage(assistantMsg("m1", "Welcome"))
	s.AddMessage(userMsg("m2", "Second"))

	conv, _ := s.Conversation(id)
	assert.Equal(t, "New Chat", conv.Title)
}

func TestUpdateMessage(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")
	s.AddMessage(assistantMsg("m1", "old"))

	content := "new"
	assert.Equal(t, Applied, s.UpdateMessage("m1", MessagePatch{Content: &content}))

	msg, ok := s.Message("m1")
	require.True(t, ok)
	assert.Equal(t, "new", msg.Content)
	assert.Equal(t, model.RoleAssistant, msg.Role)
	assert.Equal(t, uint64(1), msg.Version)

	assert.Equal(t, NotFound, s.UpdateMessage("missing", MessagePatch{Content: &content}))
}

func TestUpdateMessageVersionConflict(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")
	s.AddMessage(assistantMsg("m1", "original"))

	seen, _ := s.Message("m1")
	improved := "improved"
	regenerated := "regenerated"

	require.Equal(t, Applied, s.UpdateMessage("m1", MessagePatch{Content: &improved, IfVersion: &seen.Version}))
	assert.Equal(t, Conflict, s.UpdateMessage("m1", MessagePatch{Content: &regenerated, IfVersion: &seen.Version}))

	msg, _ := s.Message("m1")
	assert.Equal(t, "improved", msg.Content)
}

func TestDeleteMessage(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")
	s.AddMessage(userMsg("m1", "a"))
	s.AddMessage(assistantMsg("m2", "b"))
	s.AddMessage(userMsg("m3", "c"))

	assert.True(t, s.DeleteMessage("m2"))
	assert.False(t, s.DeleteMessage("m2"))
	assert.Equal(t, []string{"m1", "m3"}, messageIDs(s.CurrentMessages()))
}

func TestTogglePinIsInvolution(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")
	s.AddMessage(assistantMsg("m1", "a"))

	require.True(t, s.TogglePinMessage("m1"))
	msg, _ := s.Message("m1")
	assert.True(t, msg.Pinned)

	require.True(t, s.TogglePinMessage("m1"))
	msg, _ = s.Message("m1")
	assert.False(t, msg.Pinned)

	assert.False(t, s.TogglePinMessage("missing"))
}

func TestAddMessageTagIdempotent(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")
	s.AddMessage(assistantMsg("m1", "a"))

	require.True(t, s.AddMessageTag("m1", model.TagExam))
	once, _ := s.Message("m1")
	require.True(t, s.AddMessageTag("m1", model.TagExam))
	twice, _ := s.Message("m1")

	assert.Equal(t, once.Tags, twice.Tags)
	assert.Equal(t, []model.Tag{model.TagExam}, twice.Tags)
	assert.Equal(t, once.Version, twice.Version)

	assert.False(t, s.AddMessageTag("m1", "bogus"))
	assert.False(t, s.AddMessageTag("missing", model.TagExam))
}

func TestRemoveMessageTag(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")
	s.AddMessage(model.Message{ID: "m1", Role: model.RoleAssistant, Tags: []model.Tag{model.TagFormula, model.TagExam}})

	require.True(t, s.RemoveMessageTag("m1", model.TagHomework))
	msg, _ := s.Message("m1")
	assert.Equal(t, []model.Tag{model.TagFormula, model.TagExam}, msg.Tags)
	assert.Zero(t, msg.Version)

	require.True(t, s.RemoveMessageTag("m1", model.TagFormula))
	msg, _ = s.Message("m1")
	assert.Equal(t, []model.Tag{model.TagExam}, msg.Tags)

	assert.False(t, s.RemoveMessageTag("m1", "bogus"))
	assert.False(t, s.RemoveMessageTag("missing", model.TagExam))
}

func TestTagFilter(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")
	s.AddMessage(model.Message{ID: "m1", Role: model.RoleUser, Tags: []model.Tag{model.TagHomework}})
	s.AddMessage(model.Message{ID: "m2", Role: model.RoleAssistant})
	s.AddMessage(model.Message{ID: "m3", Role: model.RoleAssistant, Tags: []model.Tag{model.TagExam, model.TagFormula}})
	s.AddMessage(model.Message{ID: "m4", Role: model.RoleUser, Tags: []model.Tag{model.TagDefinition}})

	tests := []struct {
		name   string
		filter []model.Tag
		want   []string
	}{
		{name: "empty filter shows all", filter: nil, want: []string{"m1", "m2", "m3", "m4"}},
		{name: "single tag", filter: []model.Tag{model.TagExam}, want: []string{"m3"}},
		{name: "any of several", filter: []model.Tag{model.TagDefinition, model.TagHomework}, want: []string{"m1", "m4"}},
		{name: "no match", filter: []model.Tag{model.TagImportant}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.SetTagFilter(tt.filter)
			assert.Equal(t, tt.want, messageIDs(s.CurrentMessages()))
		})
	}

	s.SetTagFilter([]model.Tag{model.TagExam})
	s.SetTagFilter(nil)
	assert.Len(t, s.CurrentMessages(), 4, "filter is replaced, not merged")
}

func TestTagFilterRejectsUnknownTags(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")
	s.AddMessage(model.Message{ID: "m1", Role: model.RoleUser, Tags: []model.Tag{model.TagExam}})
	s.AddMessage(model.Message{ID: "m2", Role: model.RoleAssistant})

	require.True(t, s.SetTagFilter([]model.Tag{model.TagExam, model.TagExam}))
	assert.Equal(t, []model.Tag{model.TagExam}, s.TagFilter())

	assert.False(t, s.SetTagFilter([]model.Tag{"bogus"}))
	assert.False(t, s.SetTagFilter([]model.Tag{model.TagHomework, "bogus"}))
	assert.Equal(t, []model.Tag{model.TagExam}, s.TagFilter())
	assert.Equal(t, []string{"m1"}, messageIDs(s.CurrentMessages()))
}

func TestTagFilterDoesNotMutateMessages(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")
	s.AddMessage(model.Message{ID: "m1", Role: model.RoleUser})
	s.AddMessage(model.Message{ID: "m2", Role: model.RoleAssistant, Tags: []model.Tag{model.TagExam}})

	s.SetTagFilter([]model.Tag{model.TagExam})
	filtered := s.CurrentMessages()
	filtered[0].Content = "tampered"

	s.SetTagFilter(nil)
	all := s.CurrentMessages()
	assert.Equal(t, []string{"m1", "m2"}, messageIDs(all))
	assert.Empty(t, all[1].Content)
}

func TestPinnedAndFilterScenario(t *testing.T) {
	s := newTestStore(t)
	openConversation(t, s, "csci-1100")
	s.AddMessage(userMsg("m1", "What is a BST?"))
	s.AddMessage(assistantMsg("m2", "A BST is..."))

	require.True(t, s.TogglePinMessage("m1"))
	require.True(t, s.AddMessageTag("m1", model.TagExam))

	assert.Equal(t, []string{"m1"}, messageIDs(s.PinnedMessages()))

	s.SetTagFilter([]model.Tag{model.TagExam})
	assert.Contains(t, messageIDs(s.CurrentMessages()), "m1")
	assert.Equal(t, []string{"m1"}, messageIDs(s.PinnedMessages()))

	s.SetTagFilter([]model.Tag{model.TagHomework})
	assert.Empty(t, s.PinnedMessages())
}

func TestStreamingGate(t *testing.T) {
	s := newTestStore(t)

	assert.True(t, s.TryBeginStreaming())
	assert.False(t, s.TryBeginStreaming())
	assert.True(t, s.IsStreaming())

	s.SetStreaming(false)
	assert.False(t, s.IsStreaming())
	assert.True(t, s.TryBeginStreaming())
}

func TestReadsReturnCopies(t *testing.T) {
	s := newTestStore(t)
	id := openConversation(t, s, "csci-1100")
	s.AddMessage(model.Message{ID: "m1", Role: model.RoleUser, Content: "a", Tags: []model.Tag{model.TagExam}})

	convs := s.ListConversations("csci-1100")
	convs[0].Title = "changed"
	convs[0].Messages[0].Tags[0] = model.TagHomework

	conv, _ := s.Conversation(id)
	assert.Equal(t, "a", conv.Title)
	assert.Equal(t, []model.Tag{model.TagExam}, conv.Messages[0].Tags)
}

func TestUpdateMessageIfCurrent(t *testing.T) {
	s := newTestStore(t)
	first := openConversation(t, s, "csci-1100")
	s.AddMessage(assistantMsg("m1", "old"))

	content := "new"
	s.CreateConversation("csci-1100", "")
	assert.Equal(t, Stale, s.UpdateMessageIfCurrent(first, "m1", MessagePatch{Content: &content}))
	assert.Equal(t, Stale, s.UpdateMessageIfCurrent("", "m1", MessagePatch{Content: &content}))

	s.SetCurrentConversation(first)
	msg, _ := s.Message("m1")
	assert.Equal(t, "old", msg.Content)

	assert.Equal(t, Applied, s.UpdateMessageIfCurrent(first, "m1", MessagePatch{Content: &content}))
	assert.Equal(t, NotFound, s.UpdateMessageIfCurrent(first, "missing", MessagePatch{Content: &content}))
	msg, _ = s.Message("m1")
	assert.Equal(t, "new", msg.Content)
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "conflict", Conflict.String())
	assert.Equal(t, "stale", Stale.String())
}

func TestSessionsScopeByUser(t *testing.T) {
	sessions := NewSessions()

	alice := sessions.Get("student-1")
	bob := sessions.Get("prof-1")
	require.NotSame(t, alice, bob)
	assert.Same(t, alice, sessions.Get("student-1"))
	assert.Equal(t, 2, sessions.Len())

	alice.SetCurrentCourse("csci-1100")
	alice.CreateConversation("csci-1100", "mine")

	assert.Len(t, alice.ListConversations("csci-1100"), 1)
	assert.Empty(t, bob.ListConversations("csci-1100"))
}

func TestAddMessageIfCurrent(t *testing.T) {
	s := newTestStore(t)
	first := openConversation(t, s, "csci-1100")

	_, ok := s.AddMessageIfCurrent(first, assistantMsg("m1", "reply"))
	require.True(t, ok)

	second := s.CreateConversation("csci-1100", "")
	_, ok = s.AddMessageIfCurrent(first, assistantMsg("m2", "late reply"))
	assert.False(t, ok)

	assert.Empty(t, s.CurrentMessages())
	s.SetCurrentConversation(first)
	assert.Equal(t, []string{"m1"}, messageIDs(s.CurrentMessages()))

	_, ok = s.AddMessageIfCurrent("", assistantMsg("m3", "x"))
	assert.False(t, ok)
	assert.NotEqual(t, first, second)
}
