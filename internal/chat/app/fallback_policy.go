package app

import (
	"time"

	"course_chat_service/internal/chat/domain"
)

// FallbackPolicy builds the values substituted when the document store is
// unreachable. Every substitution goes through here so it can be counted.
type FallbackPolicy interface {
	// Messages stand-in for a course listing
	Messages(courseID string) []domain.Message
	// Preference stand-in for a missing or unreadable preference
	Preference(userID string) domain.Preference
	// StandIn message owned by caller, used when a lookup before update/delete fails
	StandIn(messageID string, caller domain.Author, text string) domain.Message
}

type defaultPolicy struct {
	since         time.Time
	defaultCourse string
	now           func() time.Time
}

// NewFallbackPolicy welcome messages carry since as timestamp so repeated
// listings are identical
func NewFallbackPolicy(since time.Time, defaultCourse string) FallbackPolicy {
	if defaultCourse == "" {
		defaultCourse = domain.DefaultCourse
	}
	return &defaultPolicy{since: since.UTC(), defaultCourse: defaultCourse, now: time.Now}
}

func (p *defaultPolicy) Messages(courseID string) []domain.Message {
	return []domain.Message{{
		ID:                "welcome-" + courseID,
		CourseID:          courseID,
		Text:              "Welcome to the chat for " + courseID,
		AuthorID:          domain.SystemID,
		AuthorDisplayName: domain.SystemName,
		Timestamp:         p.since,
	}}
}

func (p *defaultPolicy) Preference(userID string) domain.Preference {
	return domain.Preference{UserID: userID, SelectedCourse: p.defaultCourse}
}

func (p *defaultPolicy) StandIn(messageID string, caller domain.Author, text string) domain.Message {
	return domain.Message{
		ID:                messageID,
		Text:              text,
		AuthorID:          caller.ID,
		AuthorDisplayName: caller.DisplayName,
		Timestamp:         p.now().UTC(),
	}
}
