package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"course_chat_service/internal/chat/domain"
	errprocess "course_chat_service/pkg/err"
	"course_chat_service/pkg/logger"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
)

// API chat service operations used by the client
type API interface {
	ListMessages(ctx context.Context, courseID string) ([]domain.Message, error)
	CreateMessage(ctx context.Context, courseID, text string) (domain.Message, error)
	UpdateMessage(ctx context.Context, messageID string, patch domain.MessagePatch) (domain.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
	GetPreference(ctx context.Context) (domain.Preference, error)
	SetPreference(ctx context.Context, course string) error
}

// Scroll viewport metrics, in lines
type Scroll struct {
	Top          int
	Height       int
	ClientHeight int
}

// Frame everything a View needs to draw
type Frame struct {
	Course    string
	Messages  []domain.Message
	UserID    string
	EditingID string
}

// View display surface
type View interface {
	Render(f Frame)
	Scroll() Scroll
	SetScrollTop(top int)
	ScrollToBottom()
	SetLoading(loading bool)
	// Notify blocking notification
	Notify(msg string)
	// Confirm ask the user, false means declined
	Confirm(prompt string) bool
	ClearInput()
}

// State of a CourseView
type State int

const (
	// StateIdle nothing in flight
	StateIdle State = iota
	// StateLoading a user triggered request is running
	StateLoading
	// StateEditing a message is being edited, reconciliation paused
	StateEditing
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEditing:
		return "editing"
	default:
		return "idle"
	}
}

// Options CourseView settings
type Options struct {
	// UserID the current user, only own messages can be edited
	UserID string
	// Period refresh interval while visible, doubled when hidden
	Period time.Duration
	// BottomThreshold lines from the bottom that still count as pinned
	BottomThreshold int
	// ReloadAfterEdit reload the course after a successful edit instead of patching the cache
	ReloadAfterEdit bool
	DefaultCourse   string
}

// ErrNotEditable BeginEdit on a foreign, deleted or unknown message
var ErrNotEditable = errors.New("message cannot be edited")

// CourseView one chat session: the open course, its cached messages and the
// refresh loop. All state lives here.
type CourseView struct {
	api    API
	view   View
	opts   Options
	poller *Poller

	mu        sync.Mutex
	ctx       context.Context
	cached    []domain.Message
	course    string
	state     State
	editingID string
	visible   bool
	// generation bumps whenever in-flight refresh results become stale
	generation uint64
}

// NewCourseView 建立 CourseView
func NewCourseView(api API, view View, opts Options) *CourseView {
	if opts.Period <= 0 {
		opts.Period = 5 * time.Second
	}
	if opts.BottomThreshold <= 0 {
		opts.BottomThreshold = 5
	}
	if opts.DefaultCourse == "" {
		opts.DefaultCourse = domain.DefaultCourse
	}

	v := &CourseView{
		api:     api,
		view:    view,
		opts:    opts,
		ctx:     context.Background(),
		visible: true,
	}
	v.poller = NewPoller(opts.Period, v.Reconcile)
	return v
}

// Open load the preferred course and start refreshing
func (v *CourseView) Open(ctx context.Context) error {
	course := v.opts.DefaultCourse
	pref, err := v.api.GetPreference(ctx)
	if err != nil {
		logger.Log.Warn("load preference, using default course", zap.Error(err))
	} else if pref.SelectedCourse != "" {
		course = pref.SelectedCourse
	}

	v.mu.Lock()
	v.ctx = ctx
	v.course = course
	v.generation++
	v.mu.Unlock()

	err = v.load(ctx, false)
	v.render()
	v.view.ScrollToBottom()
	v.poller.Start(ctx)
	return err
}

// Course currently open course
func (v *CourseView) Course() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.course
}

// State current state
func (v *CourseView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Messages copy of the cached messages
func (v *CourseView) Messages() []domain.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.Message(nil), v.cached...)
}

// Reconcile one refresh: fetch, compare with the cache and re-render only on change
func (v *CourseView) Reconcile(ctx context.Context) {
	v.mu.Lock()
	if v.state == StateEditing {
		v.mu.Unlock()
		return
	}
	course, gen := v.course, v.generation
	v.mu.Unlock()

	msgs, err := v.api.ListMessages(ctx, course)
	if err != nil {
		logger.Log.Debug("silent refresh failed", zap.String("course", course), zap.Error(err))
		return
	}

	v.mu.Lock()
	if v.state == StateEditing || v.generation != gen || v.course != course {
		v.mu.Unlock()
		return
	}
	if cmp.Equal(v.cached, msgs, cmpopts.EquateEmpty()) {
		v.mu.Unlock()
		return
	}
	v.cached = msgs
	v.mu.Unlock()

	s := v.view.Scroll()
	v.render()
	if s.Height-s.ClientHeight <= s.Top+v.opts.BottomThreshold {
		v.view.ScrollToBottom()
	} else {
		v.view.SetScrollTop(s.Top)
	}
}

// Submit post text to the open course
func (v *CourseView) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	v.mu.Lock()
	if v.state != StateIdle {
		v.mu.Unlock()
		return nil
	}
	v.state = StateLoading
	course := v.course
	v.mu.Unlock()
	defer v.setState(StateIdle)

	v.view.SetLoading(true)
	_, err := v.api.CreateMessage(ctx, course, text)
	v.view.SetLoading(false)
	if err != nil {
		logger.Log.Error("send message", zap.String("course", course), zap.Error(err))
		v.view.Notify("Could not send message: " + errprocess.Message(err))
		return err
	}

	if err := v.load(ctx, true); err != nil {
		logger.Log.Warn("reload after send", zap.Error(err))
	}
	v.render()
	v.view.ClearInput()
	v.view.ScrollToBottom()
	return nil
}

// BeginEdit start editing an own, not deleted message
func (v *CourseView) BeginEdit(messageID string) error {
	v.mu.Lock()
	if v.state != StateIdle {
		v.mu.Unlock()
		return ErrNotEditable
	}
	msg, ok := v.findLocked(messageID)
	if !ok || msg.IsDeleted || msg.AuthorID != v.opts.UserID {
		v.mu.Unlock()
		return ErrNotEditable
	}
	v.state = StateEditing
	v.editingID = messageID
	v.generation++
	v.mu.Unlock()

	v.poller.Stop()
	v.render()
	return nil
}

// EditingText text of the message being edited
func (v *CourseView) EditingText() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateEditing {
		return "", false
	}
	msg, ok := v.findLocked(v.editingID)
	return msg.Text, ok
}

// SaveEdit store the new text of the message being edited. Empty text keeps
// the editor open.
func (v *CourseView) SaveEdit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	v.mu.Lock()
	if v.state != StateEditing || text == "" {
		v.mu.Unlock()
		return nil
	}
	id := v.editingID
	v.mu.Unlock()

	s := v.view.Scroll()
	updated, err := v.api.UpdateMessage(ctx, id, domain.MessagePatch{Text: &text})
	if err != nil {
		logger.Log.Error("edit message", zap.String("messageId", id), zap.Error(err))
		v.view.Notify("Could not edit message: " + errprocess.Message(err))
		v.finishEdit()
		return err
	}

	if v.opts.ReloadAfterEdit {
		v.finishEdit()
		if err := v.load(ctx, true); err != nil {
			logger.Log.Warn("reload after edit", zap.Error(err))
		}
		v.render()
	} else {
		v.mu.Lock()
		for i := range v.cached {
			if v.cached[i].ID == updated.ID {
				v.cached[i] = updated
			}
		}
		v.mu.Unlock()
		v.finishEdit()
	}
	v.view.SetScrollTop(s.Top)
	return nil
}

// CancelEdit leave the editor without saving
func (v *CourseView) CancelEdit() {
	v.mu.Lock()
	editing := v.state == StateEditing
	v.mu.Unlock()
	if editing {
		v.finishEdit()
	}
}

// finishEdit back to idle, prior rendering, refresh resumed
func (v *CourseView) finishEdit() {
	v.mu.Lock()
	v.state = StateIdle
	v.editingID = ""
	ctx := v.ctx
	v.mu.Unlock()

	v.render()
	v.poller.Start(ctx)
}

// Delete soft delete an own message after confirmation
func (v *CourseView) Delete(ctx context.Context, messageID string) error {
	v.mu.Lock()
	if v.state != StateIdle {
		v.mu.Unlock()
		return nil
	}
	v.state = StateLoading
	v.mu.Unlock()
	defer v.setState(StateIdle)

	if !v.view.Confirm("Delete this message?") {
		return nil
	}

	v.view.SetLoading(true)
	err := v.api.DeleteMessage(ctx, messageID)
	v.view.SetLoading(false)
	if err != nil {
		logger.Log.Error("delete message", zap.String("messageId", messageID), zap.Error(err))
		v.view.Notify("Could not delete message: " + errprocess.Message(err))
		return err
	}

	s := v.view.Scroll()
	if err := v.load(ctx, true); err != nil {
		logger.Log.Warn("reload after delete", zap.Error(err))
	}
	v.render()
	v.view.SetScrollTop(s.Top)
	return nil
}

// SwitchCourse open another course and remember the choice
func (v *CourseView) SwitchCourse(ctx context.Context, course string) error {
	course = strings.TrimSpace(course)
	if course == "" {
		return errprocess.Validation("CourseId is required")
	}

	v.poller.Stop()

	v.mu.Lock()
	v.course = course
	v.cached = nil
	v.state = StateIdle
	v.editingID = ""
	v.generation++
	base := v.ctx
	v.mu.Unlock()

	if err := v.api.SetPreference(ctx, course); err != nil {
		logger.Log.Warn("save preference", zap.String("course", course), zap.Error(err))
	}

	err := v.load(ctx, false)
	v.render()
	v.view.ScrollToBottom()
	v.poller.Start(base)
	return err
}

// SetVisible slow refresh down while the view is hidden
func (v *CourseView) SetVisible(visible bool) {
	v.mu.Lock()
	v.visible = visible
	v.mu.Unlock()

	period := v.opts.Period
	if !visible {
		period *= 2
	}
	v.poller.SetPeriod(period)
}

// Close stop refreshing and wait for a running refresh to return. Later
// edits or course switches do not restart the refresh.
func (v *CourseView) Close() {
	v.poller.Close()
}

// load fetch the open course into the cache. A failed load keeps the cache;
// only non-silent loads show the loading indicator and a notification.
func (v *CourseView) load(ctx context.Context, silent bool) error {
	v.mu.Lock()
	course, gen := v.course, v.generation
	v.mu.Unlock()

	if !silent {
		v.view.SetLoading(true)
		defer v.view.SetLoading(false)
	}

	msgs, err := v.api.ListMessages(ctx, course)
	if err != nil {
		logger.Log.Error("load messages", zap.String("course", course), zap.Error(err))
		if !silent {
			v.view.Notify("Could not load messages: " + errprocess.Message(err))
		}
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generation == gen && v.course == course {
		v.cached = msgs
	}
	return nil
}

func (v *CourseView) render() {
	v.mu.Lock()
	f := Frame{
		Course:    v.course,
		Messages:  append([]domain.Message(nil), v.cached...),
		UserID:    v.opts.UserID,
		EditingID: v.editingID,
	}
	v.mu.Unlock()
	v.view.Render(f)
}

func (v *CourseView) setState(s State) {
	v.mu.Lock()
	v.state = s
	v.mu.Unlock()
}

func (v *CourseView) findLocked(id string) (domain.Message, bool) {
	for _, m := range v.cached {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Message{}, false
}
