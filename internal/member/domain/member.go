package domain

import (
	"time"

	"course_chat_service/pkg/encrypt"
)

// Member 可登入的使用者
type Member struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Password    string `json:"password"` // bcrypt hash once loaded
	DisplayName string `json:"displayName"`
}

// Profile public view of a member
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// MemberSession 用來表示使用者的 Session
type MemberSession struct {
	SessionID    string    `json:"SessionID"`
	MemberID     string    `json:"MemberID"`
	Username     string    `json:"Username"`
	DisplayName  string    `json:"DisplayName"`
	CreatedAt    time.Time `json:"CreatedAt"`
	LastActivity time.Time `json:"LastActivity"`
	ExpiredAt    time.Time `json:"ExpiredAt"`
}

// IsPasswordMatch 密碼驗證
func (m *Member) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(m.Password, inputPwd)
}

// Profile strip the password
func (m *Member) Profile() Profile {
	return Profile{ID: m.ID, Username: m.Username, DisplayName: m.DisplayName}
}

// IsExpired 檢查 Session 是否已過期
func (s *MemberSession) IsExpired() bool {
	return time.Now().After(s.ExpiredAt)
}

// Profile of the session owner
func (s *MemberSession) Profile() Profile {
	return Profile{ID: s.MemberID, Username: s.Username, DisplayName: s.DisplayName}
}

// DefaultMembers users written to a fresh users file
func DefaultMembers() []Member {
	return []Member{
		{ID: "user1", Username: "user1", Password: "password1", DisplayName: "User One"},
		{ID: "user2", Username: "user2", Password: "password2", DisplayName: "User Two"},
		{ID: "user3", Username: "user3", Password: "password3", DisplayName: "User Three"},
	}
}
