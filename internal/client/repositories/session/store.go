// Package session persists the signed-in session between runs.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/client/repositories/metadata"
	"github.com/Nekos-API/Nekos.Land/internal/cryptox"
	"github.com/Nekos-API/Nekos.Land/internal/dbx"
)

// ErrUnreadable means a stored session exists but cannot be decrypted,
// usually because the secret changed.
var ErrUnreadable = errors.New("stored session unreadable")

// Store keeps at most one session. Load returns (nil, nil) when empty.
type Store interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}

// MemoryStore forgets the session when the process exits.
type MemoryStore struct {
	mu sync.Mutex
	s  *models.Session
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, nil
	}
	cp := *m.s
	return &cp, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

// EncryptedStore seals the session with a key derived from secret and a
// per-store salt, both kept in the metadata table.
type EncryptedStore struct {
	db     *sql.DB
	secret []byte
}

func NewEncryptedStore(db *sql.DB, secret []byte) *EncryptedStore {
	return &EncryptedStore{db: db, secret: secret}
}

func (e *EncryptedStore) Load(ctx context.Context) (*models.Session, error) {
	repo := metadata.NewSQLiteRepository(e.db)

	salt, err := repo.Get(ctx, metadata.KeySessionSalt)
	if err != nil {
		return nil, err
	}
	blob, err := repo.Get(ctx, metadata.KeySession)
	if err != nil {
		return nil, err
	}
	if salt == nil || blob == nil {
		return nil, nil
	}

	var s models.Session
	if err := cryptox.Open(blob, cryptox.DeriveKey(e.secret, salt), &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return &s, nil
}

func (e *EncryptedStore) Save(ctx context.Context, s *models.Session) error {
	return dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		salt, err := repo.Get(ctx, metadata.KeySessionSalt)
		if err != nil {
			return err
		}
		if salt == nil {
			if salt, err = cryptox.NewSalt(); err != nil {
				return err
			}
			if err := repo.Set(ctx, metadata.KeySessionSalt, salt); err != nil {
				return err
			}
		}

		blob, err := cryptox.Seal(s, cryptox.DeriveKey(e.secret, salt))
		if err != nil {
			return fmt.Errorf("seal session: %w", err)
		}
		return repo.Set(ctx, metadata.KeySession, blob)
	})
}

func (e *EncryptedStore) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(e.db).Delete(ctx, metadata.KeySession, metadata.KeySessionSalt)
}
