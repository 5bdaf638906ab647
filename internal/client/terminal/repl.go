package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"course_chat_service/internal/chat/domain"
	"course_chat_service/internal/client/app"
	"course_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// CourseLister course catalog source
type CourseLister interface {
	Courses(ctx context.Context) ([]domain.Course, error)
}

const helpText = `commands:
  <text>            send a message
  /edit <n>         edit your message number n, then type the new text (/cancel to abort)
  /delete <n>       delete your message number n
  /course <id>      switch course
  /courses          list courses
  /up, /down        scroll by one page
  /bottom           jump to the newest message
  /hide, /show      slow down or resume refreshing
  /help             this text
  /quit             leave`

// REPL reads commands from the terminal and drives a CourseView
type REPL struct {
	view    *app.CourseView
	term    *Terminal
	courses CourseLister
}

// NewREPL 建立 REPL
func NewREPL(view *app.CourseView, term *Terminal, courses CourseLister) *REPL {
	return &REPL{view: view, term: term, courses: courses}
}

// Run read until /quit, EOF or ctx is done
func (r *REPL) Run(ctx context.Context) error {
	r.term.ClearInput()
	for ctx.Err() == nil {
		line, err := r.term.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit := r.Handle(ctx, line)
		if quit {
			return nil
		}
		r.term.ClearInput()
	}
	return nil
}

// Handle one input line, true when the user asked to quit
func (r *REPL) Handle(ctx context.Context, line string) bool {
	if r.view.State() == app.StateEditing {
		if line == "/cancel" {
			r.view.CancelEdit()
			return false
		}
		// errors are already shown by the view
		_ = r.view.SaveEdit(ctx, line)
		return false
	}

	if !strings.HasPrefix(line, "/") {
		_ = r.view.Submit(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	page := r.term.Scroll().ClientHeight

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		r.term.Notify(helpText)
	case "/edit":
		id, ok := r.messageID(arg)
		if !ok {
			return false
		}
		if err := r.view.BeginEdit(id); err != nil {
			r.term.Notify("You can only edit your own messages")
			return false
		}
		text, _ := r.view.EditingText()
		r.term.Notify(fmt.Sprintf("editing: %s", text))
	case "/delete":
		id, ok := r.messageID(arg)
		if !ok {
			return false
		}
		_ = r.view.Delete(ctx, id)
	case "/course":
		if err := r.view.SwitchCourse(ctx, arg); err != nil {
			logger.Log.Debug("switch course", zap.String("course", arg), zap.Error(err))
		}
	case "/courses":
		r.listCourses(ctx)
	case "/up":
		r.term.ScrollBy(-page)
	case "/down":
		r.term.ScrollBy(page)
	case "/bottom":
		r.term.ScrollToBottom()
	case "/hide":
		r.view.SetVisible(false)
	case "/show":
		r.view.SetVisible(true)
	default:
		r.term.Notify("unknown command " + cmd + ", try /help")
	}
	return false
}

func (r *REPL) messageID(arg string) (string, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		r.term.Notify("expected a message number")
		return "", false
	}
	id, ok := r.term.MessageID(n)
	if !ok {
		r.term.Notify(fmt.Sprintf("no message %d", n))
	}
	return id, ok
}

func (r *REPL) listCourses(ctx context.Context) {
	if r.courses == nil {
		return
	}
	courses, err := r.courses.Courses(ctx)
	if err != nil {
		r.term.Notify("Could not load courses")
		return
	}
	var b strings.Builder
	for _, c := range courses {
		fmt.Fprintf(&b, "%-16s %s (%s)\n", c.ID, c.Name, c.Lecturer.Name)
	}
	r.term.Notify(strings.TrimRight(b.String(), "\n"))
}
