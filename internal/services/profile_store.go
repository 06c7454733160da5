package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/attestation/backend/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrProfileNotFound = errors.New("stored profile not found")
	ErrProfileCorrupt  = errors.New("stored profile cannot be decrypted")
)

// StoreHandle identifies one client's encrypted snapshot. The key is held by
// the client only.
type StoreHandle struct {
	ID  string
	Key []byte
}

// NewStoreHandle creates a fresh id and a random 256-bit key
func NewStoreHandle() (StoreHandle, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return StoreHandle{}, fmt.Errorf("generate store key: %w", err)
	}
	return StoreHandle{ID: uuid.New().String(), Key: key}, nil
}

// EncodedKey is the key in the form carried by the session token
func (h StoreHandle) EncodedKey() string {
	return base64.RawURLEncoding.EncodeToString(h.Key)
}

// ParseStoreHandle rebuilds a handle from session token claims
func ParseStoreHandle(id, encodedKey string) (StoreHandle, error) {
	if _, err := uuid.Parse(id); err != nil {
		return StoreHandle{}, fmt.Errorf("invalid store id: %w", err)
	}
	key, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil {
		return StoreHandle{}, fmt.Errorf("invalid store key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return StoreHandle{}, errors.New("invalid store key length")
	}
	return StoreHandle{ID: id, Key: key}, nil
}

// ProfileStore keeps form snapshots in redis, sealed with XChaCha20-Poly1305.
// Only ciphertext reaches redis.
type ProfileStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProfileStore(rdb *redis.Client, ttl time.Duration) *ProfileStore {
	return &ProfileStore{rdb: rdb, ttl: ttl}
}

func profileKey(id string) string {
	return fmt.Sprintf("profile:%s", id)
}

// Set seals and stores the snapshot, replacing any previous one
func (s *ProfileStore) Set(ctx context.Context, h StoreHandle, snapshot models.StoredProfile) error {
	plain, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	aead, err := chacha20poly1305.NewX(h.Key)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plain, []byte(h.ID))

	if err := s.rdb.Set(ctx, profileKey(h.ID), sealed, s.ttl).Err(); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	return nil
}

// Get loads and opens the snapshot. A blob that fails authentication is
// deleted and reported as ErrProfileCorrupt.
func (s *ProfileStore) Get(ctx context.Context, h StoreHandle) (*models.StoredProfile, error) {
	sealed, err := s.rdb.Get(ctx, profileKey(h.ID)).Bytes()
	if err == redis.Nil {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	aead, err := chacha20poly1305.NewX(h.Key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		_ = s.Clear(ctx, h.ID)
		return nil, ErrProfileCorrupt
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(h.ID))
	if err != nil {
		_ = s.Clear(ctx, h.ID)
		return nil, ErrProfileCorrupt
	}

	var snapshot models.StoredProfile
	if err := json.Unmarshal(plain, &snapshot); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &snapshot, nil
}

// Clear removes the snapshot. Clearing a missing entry is not an error.
func (s *ProfileStore) Clear(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, profileKey(id)).Err(); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}
