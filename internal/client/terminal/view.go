package terminal

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"course_chat_service/internal/chat/domain"
	"course_chat_service/internal/client/app"

	"github.com/dustin/go-humanize"
)

const clearScreen = "\033[H\033[2J"

// Terminal line based View. Messages are numbered so commands can refer to
// them; the viewport shows ClientHeight lines starting at the scroll top.
type Terminal struct {
	mu       sync.Mutex
	in       *bufio.Reader
	out      io.Writer
	ansi     bool
	viewport int

	frame   app.Frame
	lines   []string
	ids     []string // message id per number, 1-based in the UI
	top     int
	loading bool
}

// Option terminal option
type Option func(*Terminal)

// WithANSI clear the screen before each redraw
func WithANSI(enabled bool) Option {
	return func(t *Terminal) { t.ansi = enabled }
}

// New 建立 Terminal
func New(in io.Reader, out io.Writer, viewport int, opts ...Option) *Terminal {
	if viewport <= 0 {
		viewport = 20
	}
	t := &Terminal{in: bufio.NewReader(in), out: out, viewport: viewport}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Render replace the content and redraw
func (t *Terminal) Render(f app.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.frame = f
	t.lines = t.lines[:0]
	t.ids = t.ids[:0]
	for i, m := range f.Messages {
		t.ids = append(t.ids, m.ID)
		t.lines = append(t.lines, formatMessage(i+1, m, f.UserID, f.EditingID))
	}
	t.clampLocked()
	t.drawLocked()
}

func formatMessage(n int, m domain.Message, userID, editingID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%3d  %s  %s: ", n, humanize.Time(m.Timestamp), m.AuthorDisplayName)
	if m.IsDeleted {
		b.WriteString("(" + domain.DeletedText + ")")
	} else {
		b.WriteString(m.Text)
	}
	switch {
	case m.ID == editingID:
		b.WriteString("  [editing]")
	case m.AuthorID == userID && !m.IsDeleted:
		b.WriteString("  *")
	}
	return b.String()
}

// Scroll viewport metrics
func (t *Terminal) Scroll() app.Scroll {
	t.mu.Lock()
	defer t.mu.Unlock()
	return app.Scroll{Top: t.top, Height: len(t.lines), ClientHeight: t.viewport}
}

// SetScrollTop move the viewport
func (t *Terminal) SetScrollTop(top int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.top = top
	t.clampLocked()
	t.drawLocked()
}

// ScrollBy move the viewport by delta lines
func (t *Terminal) ScrollBy(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.top += delta
	t.clampLocked()
	t.drawLocked()
}

// ScrollToBottom show the newest messages
func (t *Terminal) ScrollToBottom() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.top = len(t.lines)
	t.clampLocked()
	t.drawLocked()
}

// SetLoading show or hide the loading marker
func (t *Terminal) SetLoading(loading bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loading == loading {
		return
	}
	t.loading = loading
	if loading {
		fmt.Fprintln(t.out, "loading...")
	}
}

// Notify print a notification
func (t *Terminal) Notify(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "! %s\n", msg)
}

// Confirm ask a yes/no question on the input
func (t *Terminal) Confirm(prompt string) bool {
	t.mu.Lock()
	fmt.Fprintf(t.out, "%s [y/N] ", prompt)
	t.mu.Unlock()

	line, err := t.ReadLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// ClearInput show a fresh prompt
func (t *Terminal) ClearInput() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, "> ")
}

// ReadLine one trimmed input line
func (t *Terminal) ReadLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// MessageID id of the message shown as number n
func (t *Terminal) MessageID(n int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 1 || n > len(t.ids) {
		return "", false
	}
	return t.ids[n-1], true
}

func (t *Terminal) clampLocked() {
	maxTop := len(t.lines) - t.viewport
	if maxTop < 0 {
		maxTop = 0
	}
	if t.top > maxTop {
		t.top = maxTop
	}
	if t.top < 0 {
		t.top = 0
	}
}

func (t *Terminal) drawLocked() {
	var b strings.Builder
	if t.ansi {
		b.WriteString(clearScreen)
	}
	fmt.Fprintf(&b, "== %s ==\n", t.frame.Course)
	if len(t.lines) == 0 {
		b.WriteString("(no messages yet)\n")
	}
	end := t.top + t.viewport
	if end > len(t.lines) {
		end = len(t.lines)
	}
	for _, l := range t.lines[t.top:end] {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if end < len(t.lines) {
		fmt.Fprintf(&b, "-- %d more below --\n", len(t.lines)-end)
	}
	fmt.Fprint(t.out, b.String())
}
