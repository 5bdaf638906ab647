package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"course_chat_service/internal/member/domain"
	"course_chat_service/pkg/encrypt"
	"course_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// MemberRepository definition member lookup
type MemberRepository interface {
	// FindByUsername nil, nil when unknown
	FindByUsername(ctx context.Context, username string) (*domain.Member, error)
}

type fileMemberRepository struct {
	mu      sync.RWMutex
	members map[string]domain.Member
}

// NewFileMemberRepository load members from a JSON users file. A missing file
// is created with domain.DefaultMembers. Plain passwords are hashed in memory.
func NewFileMemberRepository(path string) (MemberRepository, error) {
	members, err := readUsersFile(path)
	if errors.Is(err, os.ErrNotExist) {
		members = domain.DefaultMembers()
		if werr := writeUsersFile(path, members); werr != nil {
			logger.Log.Warn("could not write default users file", zap.String("path", path), zap.Error(werr))
		} else {
			logger.Log.Info("created default users file", zap.String("path", path))
		}
	} else if err != nil {
		return nil, err
	}

	return NewMemberRepository(members)
}

// NewMemberRepository in-memory repository over members
func NewMemberRepository(members []domain.Member) (MemberRepository, error) {
	r := &fileMemberRepository{members: make(map[string]domain.Member, len(members))}
	for _, m := range members {
		if m.Username == "" {
			return nil, errors.New("users file: member without username")
		}
		if m.ID == "" {
			m.ID = m.Username
		}
		if m.DisplayName == "" {
			m.DisplayName = m.Username
		}
		if !encrypt.IsHashed(m.Password) {
			hash, err := encrypt.HashPassword(m.Password)
			if err != nil {
				return nil, fmt.Errorf("users file: member %s: %w", m.Username, err)
			}
			m.Password = hash
		}
		r.members[m.Username] = m
	}
	return r, nil
}

func (r *fileMemberRepository) FindByUsername(_ context.Context, username string) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[username]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func readUsersFile(path string) ([]domain.Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var members []domain.Member
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("parse users file %s: %w", path, err)
	}
	return members, nil
}

func writeUsersFile(path string, members []domain.Member) error {
	data, err := json.MarshalIndent(members, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
