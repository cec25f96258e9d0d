package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

var ErrInvalidRef = errors.New("state: invalid ref")

// Ref identifies one persisted document snapshot.
type Ref struct {
	Domain string
	Name   string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

type Mutator[T any] func(*T) error

// Validator is checked by Mutate before a mutated snapshot is saved.
type Validator interface {
	Validate() error
}

// Identifier returns the canonical "domain/name" storage key.
func (r Ref) Identifier() (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	return r.Domain + "/" + r.Name, nil
}

func (r Ref) validate() error {
	if r.Domain == "" {
		return fmt.Errorf("%w: domain is required", ErrInvalidRef)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRef)
	}
	if strings.Contains(r.Domain, "/") || strings.Contains(r.Name, "/") {
		return fmt.Errorf("%w: %q/%q must not contain '/'", ErrInvalidRef, r.Domain, r.Name)
	}
	return nil
}

// ComputeETag returns the hex sha256 of payload.
func ComputeETag(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Mutate loads one snapshot, applies fn, validates, then saves. A non-empty
// meta.ETag must match the stored one.
func Mutate[T any](ctx context.Context, store Store[T], ref Ref, meta Meta, fn Mutator[T]) (T, Meta, error) {
	var zero T
	if store == nil {
		return zero, Meta{}, fmt.Errorf("state: store is required")
	}
	if err := ref.validate(); err != nil {
		return zero, Meta{}, err
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, loadedMeta, ok, err := store.Load(ctx, ref)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("state: load %q/%q: %w", ref.Domain, ref.Name, err)
	}
	if !ok {
		snapshot = zero
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return zero, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&snapshot); err != nil {
		return zero, loadedMeta, err
	}

	if v, ok := any(snapshot).(Validator); ok {
		if err := v.Validate(); err != nil {
			return zero, loadedMeta, err
		}
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	savedMeta, err := store.Save(ctx, ref, snapshot, saveMeta)
	if err != nil {
		return zero, loadedMeta, fmt.Errorf("state: save %q/%q: %w", ref.Domain, ref.Name, err)
	}
	return snapshot, savedMeta, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
