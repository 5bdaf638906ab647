package domain

import (
	"sort"
	"time"
)

const (
	// DeletedText replaces the text of a soft deleted message
	DeletedText = "Message deleted"
	// AnonymousID author id when no identity is known
	AnonymousID = "anonymous"
	// AnonymousName display name of AnonymousID
	AnonymousName = "Anonymous"
	// SystemID author id of synthetic messages
	SystemID = "system"
	// SystemName display name of SystemID
	SystemName = "System"
)

// Message 課程聊天訊息
type Message struct {
	ID                string    `bson:"id" json:"id"`
	CourseID          string    `bson:"courseId" json:"courseId"`
	Text              string    `bson:"text" json:"text"`
	AuthorID          string    `bson:"userId" json:"userId"`
	AuthorDisplayName string    `bson:"displayName" json:"displayName"`
	Timestamp         time.Time `bson:"timestamp" json:"timestamp"`
	IsDeleted         bool      `bson:"isDeleted" json:"isDeleted"`
	OriginalText      *string   `bson:"originalText,omitempty" json:"originalText,omitempty"`
}

// MessagePatch partial update, nil fields are left untouched. OriginalText is
// accepted from clients but never stored; SoftDelete records the real text.
type MessagePatch struct {
	Text         *string `json:"text,omitempty"`
	IsDeleted    *bool   `json:"isDeleted,omitempty"`
	OriginalText *string `json:"originalText,omitempty"`
}

// Empty report whether the patch changes nothing
func (p MessagePatch) Empty() bool {
	return p.Text == nil && p.IsDeleted == nil
}

// Author identity attached to new messages and checked on edit/delete
type Author struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Anonymous the identity used when nobody is logged in
func Anonymous() Author {
	return Author{ID: AnonymousID, DisplayName: AnonymousName}
}

// OwnedBy report whether author wrote m
func (m *Message) OwnedBy(authorID string) bool {
	return m.AuthorID == authorID
}

// SoftDelete redact the text, keeping the first original text
func (m *Message) SoftDelete() {
	if m.OriginalText == nil {
		original := m.Text
		m.OriginalText = &original
	}
	m.IsDeleted = true
	m.Text = DeletedText
}

// Apply return m with the patch fields applied
func (m Message) Apply(p MessagePatch) Message {
	// a deleting patch redacts; any text in it is ignored
	if p.IsDeleted != nil && *p.IsDeleted {
		m.SoftDelete()
		return m
	}
	if p.Text != nil {
		m.Text = *p.Text
	}
	return m
}

// SortByTimestamp order ascending by timestamp, keeping insertion order on ties
func SortByTimestamp(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
