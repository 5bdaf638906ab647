package terminal

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"course_chat_service/internal/chat/domain"
	"course_chat_service/internal/client/app"

	"github.com/stretchr/testify/assert"
)

func frame(n int) app.Frame {
	f := app.Frame{Course: "mathematik", UserID: "user1"}
	for i := 0; i < n; i++ {
		f.Messages = append(f.Messages, domain.Message{
			ID:                fmt.Sprintf("m%d", i+1),
			Text:              fmt.Sprintf("message %d", i+1),
			AuthorID:          "user2",
			AuthorDisplayName: "User Two",
			Timestamp:         time.Now().Add(-time.Hour),
		})
	}
	return f
}

func TestRenderMarksOwnDeletedAndEditing(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader(""), &out, 10)

	f := frame(3)
	f.Messages[0].AuthorID = "user1"
	f.Messages[1].SoftDelete()
	f.Messages[2].AuthorID = "user1"
	f.EditingID = "m3"
	term.Render(f)

	s := out.String()
	assert.Contains(t, s, "== mathematik ==")
	assert.Contains(t, s, "User Two: message 1  *")
	assert.Contains(t, s, "(Message deleted)")
	assert.NotContains(t, s, "message 2")
	assert.Contains(t, s, "message 3  [editing]")
	assert.Contains(t, s, "1 hour ago")
}

func TestScrollMetrics(t *testing.T) {
	term := New(strings.NewReader(""), &bytes.Buffer{}, 5)
	term.Render(frame(12))

	assert.Equal(t, app.Scroll{Top: 0, Height: 12, ClientHeight: 5}, term.Scroll())

	term.ScrollToBottom()
	assert.Equal(t, 7, term.Scroll().Top)

	term.SetScrollTop(100)
	assert.Equal(t, 7, term.Scroll().Top)

	term.ScrollBy(-3)
	assert.Equal(t, 4, term.Scroll().Top)

	term.SetScrollTop(-1)
	assert.Equal(t, 0, term.Scroll().Top)

	// fewer messages than the viewport always sit at the top
	term.Render(frame(2))
	term.ScrollToBottom()
	assert.Equal(t, 0, term.Scroll().Top)
}

func TestViewportWindow(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader(""), &out, 3)
	term.Render(frame(6))

	s := out.String()
	assert.Contains(t, s, "message 3")
	assert.NotContains(t, s, "message 4")
	assert.Contains(t, s, "-- 3 more below --")
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("y\nno\n"), &out, 5)

	assert.True(t, term.Confirm("Delete this message?"))
	assert.False(t, term.Confirm("Delete this message?"))
	assert.False(t, term.Confirm("Delete this message?"), "EOF declines")
	assert.Contains(t, out.String(), "Delete this message? [y/N]")
}

func TestMessageID(t *testing.T) {
	term := New(strings.NewReader(""), &bytes.Buffer{}, 5)
	term.Render(frame(2))

	id, ok := term.MessageID(2)
	assert.True(t, ok)
	assert.Equal(t, "m2", id)

	_, ok = term.MessageID(0)
	assert.False(t, ok)
	_, ok = term.MessageID(3)
	assert.False(t, ok)
}

func TestNotifyAndLoading(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader(""), &out, 5)

	term.SetLoading(true)
	term.SetLoading(true)
	term.SetLoading(false)
	term.Notify("Could not load messages")

	assert.Equal(t, 1, strings.Count(out.String(), "loading..."))
	assert.Contains(t, out.String(), "! Could not load messages")
}
