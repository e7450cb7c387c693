// Package snapshot persists the local cart across process restarts. A
// snapshot is a single durable record of variant quantities; the store
// distinguishes "no snapshot" from "snapshot present but unreadable" so the
// caller can recover from corruption without treating it as an empty cart.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// formatVersion is bumped when the record layout changes. A record carrying a
// different version is treated as corrupt rather than reinterpreted.
const formatVersion = 1

// Store persists and restores the local cart.
//
// Load returns apperrors.ErrNotFound when no snapshot exists, and
// apperrors.ErrStorageCorrupt when one exists but cannot be decoded into a
// valid cart.
type Store interface {
	Load(ctx context.Context) (domain.LocalCart, error)
	Save(ctx context.Context, cart domain.LocalCart) error
	Clear(ctx context.Context) error
}

type record struct {
	Version int            `json:"version"`
	Items   map[string]int `json:"items"`
	SavedAt time.Time      `json:"savedAt"`
}

func encode(cart domain.LocalCart) ([]byte, error) {
	rec := record{
		Version: formatVersion,
		Items:   cart,
		SavedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// decode parses a raw snapshot record. Any malformation, including quantities
// that are not positive integers, yields ErrStorageCorrupt: a snapshot that
// violates the cart invariants was not written by this code and cannot be
// trusted.
func decode(data []byte) (domain.LocalCart, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, apperrors.StorageCorrupt(err)
	}
	if rec.Version != formatVersion {
		return nil, apperrors.StorageCorrupt(fmt.Errorf("unsupported snapshot version %d", rec.Version))
	}

	cart := make(domain.LocalCart, len(rec.Items))
	for variantID, qty := range rec.Items {
		if variantID == "" {
			return nil, apperrors.StorageCorrupt(fmt.Errorf("snapshot entry with empty variant id"))
		}
		if qty <= 0 {
			return nil, apperrors.StorageCorrupt(fmt.Errorf("snapshot quantity %d for variant %s", qty, variantID))
		}
		cart[variantID] = qty
	}
	return cart, nil
}
