// Package file persists accounts and chat history as JSON files in a
// data directory, one file for users and one for all channel logs.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/voxly/voxly/internal/core"
	"github.com/voxly/voxly/internal/domain"
)

const (
	usersFile    = "users.json"
	messagesFile = "messages.json"
)

type userRecord struct {
	Password string `json:"password"`
}

// Store implements core.HistoryStore and core.CredentialStore over two
// JSON files. State lives in memory and every mutation writes through,
// so a crash loses at most the in-flight write.
type Store struct {
	dir string

	mu       sync.Mutex
	users    map[string]userRecord
	messages map[domain.ChannelName][]domain.Message
}

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{
		dir:      dir,
		users:    make(map[string]userRecord),
		messages: make(map[domain.ChannelName][]domain.Message),
	}
	if err := loadJSON(filepath.Join(dir, usersFile), &s.users); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if err := loadJSON(filepath.Join(dir, messagesFile), &s.messages); err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return s, nil
}

func (s *Store) Append(_ context.Context, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := append(s.messages[msg.Channel], msg)
	if len(log) > core.HistoryLimit {
		log = log[len(log)-core.HistoryLimit:]
	}
	s.messages[msg.Channel] = log
	return s.saveMessagesLocked()
}

func (s *Store) History(_ context.Context, channel domain.ChannelName) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages[channel]...), nil
}

func (s *Store) FindUser(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[name]
	return rec.Password, ok, nil
}

func (s *Store) PutUser(_ context.Context, name, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[name] = userRecord{Password: hash}
	return s.saveUsersLocked()
}

func (s *Store) saveUsersLocked() error {
	return saveJSON(filepath.Join(s.dir, usersFile), s.users)
}

func (s *Store) saveMessagesLocked() error {
	return saveJSON(filepath.Join(s.dir, messagesFile), s.messages)
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
