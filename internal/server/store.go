package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/gdstools/pkg/cache"
	"github.com/matzehuels/gdstools/pkg/design"
	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/pipeline"
)

// Build is a finished pipeline run kept addressable by the API.
type Build struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Hash      string            `json:"hash"`
	Summary   design.Summary    `json:"summary"`
	Stats     pipeline.Stats    `json:"stats"`
	Formats   []string          `json:"formats"`
	Cached    []string          `json:"cached,omitempty"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// IsExpired reports whether the build has outlived its TTL.
func (b *Build) IsExpired() bool {
	return time.Now().After(b.ExpiresAt)
}

// NewBuild records a pipeline result under a fresh random id.
func NewBuild(res *pipeline.Result, formats []string, ttl time.Duration) *Build {
	now := time.Now()
	return &Build{
		ID:        uuid.NewString(),
		Name:      res.Layout.Name,
		Hash:      res.DesignHash,
		Summary:   res.Summary,
		Stats:     res.Stats,
		Formats:   formats,
		Cached:    res.CacheInfo.Hits,
		Artifacts: res.Artifacts,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Store keeps builds in a cache backend as JSON documents.
type Store struct {
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewStore returns a store on c. A nil keyer uses the default keys and a
// non-positive ttl uses [cache.TTLBuild].
func NewStore(c cache.Cache, keyer cache.Keyer, ttl time.Duration) *Store {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = cache.TTLBuild
	}
	return &Store{cache: c, keyer: keyer, ttl: ttl}
}

// TTL is how long new builds stay addressable.
func (s *Store) TTL() time.Duration { return s.ttl }

// Get loads a build. Unknown, malformed and expired ids are NOT_FOUND.
func (s *Store) Get(ctx context.Context, id string) (*Build, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New(errors.ErrCodeNotFound, "build %q not found", id)
	}
	data, ok, err := s.cache.Get(ctx, s.keyer.BuildKey(id))
	if err != nil {
		return nil, fmt.Errorf("load build %s: %w", id, err)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "build %q not found", id)
	}
	var b Build
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse build %s: %w", id, err)
	}
	if b.IsExpired() {
		_ = s.cache.Delete(ctx, s.keyer.BuildKey(id))
		return nil, errors.New(errors.ErrCodeNotFound, "build %q expired", id)
	}
	return &b, nil
}

// Set stores a build until its expiry.
func (s *Store) Set(ctx context.Context, b *Build) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode build: %w", err)
	}
	ttl := time.Until(b.ExpiresAt)
	if ttl <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "build %s already expired", b.ID)
	}
	return s.cache.Set(ctx, s.keyer.BuildKey(b.ID), data, ttl)
}

// Delete removes a build.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, s.keyer.BuildKey(id))
}

// Close closes the backing cache.
func (s *Store) Close() error {
	return s.cache.Close()
}
