// Package session persists per-chat backend credentials. The file on disk
// is encrypted, playing the role the phone's secure storage plays for the
// mobile client.
package session

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/spendify/spendify-bot/internal/models"
)

// ErrNotSignedIn is returned for chats without a stored session.
var ErrNotSignedIn = errors.New("chat is not signed in")

// Store holds all chat sessions in memory and mirrors every change to the
// encrypted file. The file is loaded once, at construction.
type Store struct {
	path string
	aead cipher.AEAD

	mu       sync.RWMutex
	sessions map[int64]models.Session
}

// NewStore opens the session file at path, decrypting it with the 32-byte
// key. A missing file starts an empty store; a corrupt one is an error.
func NewStore(path string, key []byte) (*Store, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("invalid session key: %w", err)
	}

	s := &Store{
		path:     path,
		aead:     aead,
		sessions: make(map[int64]models.Session),
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the session for a chat, or ErrNotSignedIn.
func (s *Store) Get(chatID int64) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		return models.Session{}, ErrNotSignedIn
	}
	if sess.User != nil {
		user := *sess.User
		sess.User = &user
	}
	return sess, nil
}

// SignedIn reports whether the chat has a stored session.
func (s *Store) SignedIn(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[chatID]
	return ok
}

// SignIn stores credentials for a chat and persists them. Storage failures
// propagate to the caller; in-memory state is only updated on success.
func (s *Store) SignIn(chatID int64, token, refreshToken string, user *models.User) error {
	return s.put(chatID, models.Session{
		AccessToken:  token,
		RefreshToken: refreshToken,
		User:         user,
	})
}

// SignUp persists credentials for a freshly registered account. It is the
// same persistence path as SignIn.
func (s *Store) SignUp(chatID int64, token, refreshToken string, user *models.User) error {
	return s.SignIn(chatID, token, refreshToken, user)
}

// SignOut removes the chat's session from memory and disk.
func (s *Store) SignOut(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[chatID]; !ok {
		return nil
	}
	delete(s.sessions, chatID)
	return s.persistLocked()
}

// UpdateUser merges the non-zero fields of partial into the stored profile.
// A chat without a session or profile is left untouched.
func (s *Store) UpdateUser(chatID int64, partial models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok || sess.User == nil {
		return nil
	}

	user := *sess.User
	if partial.ID != 0 {
		user.ID = partial.ID
	}
	if partial.Email != "" {
		user.Email = partial.Email
	}
	sess.User = &user
	s.sessions[chatID] = sess
	return s.persistLocked()
}

// ChatIDs lists every signed-in chat.
func (s *Store) ChatIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) put(chatID int64, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.sessions[chatID]
	s.sessions[chatID] = sess
	if err := s.persistLocked(); err != nil {
		if existed {
			s.sessions[chatID] = previous
		} else {
			delete(s.sessions, chatID)
		}
		return err
	}
	return nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	if len(raw) < s.aead.NonceSize() {
		return errors.New("session file is truncated")
	}

	nonce, sealed := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return fmt.Errorf("failed to decrypt session file: %w", err)
	}

	if err := json.Unmarshal(plain, &s.sessions); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}
	return nil
}

func (s *Store) persistLocked() error {
	plain, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, plain, nil)

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
