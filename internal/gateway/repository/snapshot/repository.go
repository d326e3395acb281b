// Package snapshot persists saved contracts so a session can be reloaded
// later, possibly by another gateway instance.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/xid"
)

var (
	ErrNotFound = errors.New("snapshot not found")
	ErrInvalid  = errors.New("snapshot is invalid")
)

// Snapshot is a named copy of a session's canonical contract text.
type Snapshot struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Name      string    `json:"name"`
	Contract  string    `json:"contract"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store defines operations for persisting snapshots.
type Store interface {
	Put(ctx context.Context, s Snapshot) error
	Get(ctx context.Context, id string) (Snapshot, error)
	// List returns every snapshot, newest first.
	List(ctx context.Context) ([]Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// New stamps a fresh snapshot with an id and creation time.
func New(sessionID, name, contract string) Snapshot {
	return Snapshot{
		ID:        xid.New().String(),
		SessionID: sessionID,
		Name:      strings.TrimSpace(name),
		Contract:  contract,
		CreatedAt: time.Now().UTC(),
	}
}

func validate(s Snapshot) error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	if strings.TrimSpace(s.Contract) == "" {
		return fmt.Errorf("%w: contract is required", ErrInvalid)
	}
	return nil
}

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: id is required", ErrInvalid)
	}
	return id, nil
}

func sortNewestFirst(list []Snapshot) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
}
