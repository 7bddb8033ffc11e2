// Package models defines server-side data models persisted in the database.
package models

import "time"

// SyncMeta carries the bookkeeping every syncable entity needs: identity,
// tenant scope, the optimistic-concurrency version and soft-delete state.
// Embed it anonymously.
//
// Version starts at 1 on creation and grows by exactly 1 on every accepted
// mutation. Deleted rows stay addressable so deletions propagate to other
// devices; they are only excluded from normal (non-sync) reads.
type SyncMeta struct {
	ID        string     `json:"id"`
	FamilyID  string     `json:"-"`
	Version   int64      `json:"version"`
	Deleted   bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// InitSync stamps a freshly created entity: version 1, not deleted.
func (m *SyncMeta) InitSync(id, familyID string, now time.Time) {
	m.ID = id
	m.FamilyID = familyID
	m.Version = 1
	m.Deleted = false
	m.DeletedAt = nil
	m.CreatedAt = now
	m.UpdatedAt = now
}

// Touch records an accepted mutation: version +1, updated_at refreshed.
func (m *SyncMeta) Touch(now time.Time) {
	m.Version++
	m.UpdatedAt = now
}

// MarkDeleted soft-deletes the entity. Counts as a mutation.
func (m *SyncMeta) MarkDeleted(now time.Time) {
	m.Deleted = true
	t := now
	m.DeletedAt = &t
	m.Touch(now)
}

func (m *SyncMeta) EntityID() string          { return m.ID }
func (m *SyncMeta) EntityVersion() int64      { return m.Version }
func (m *SyncMeta) EntityDeleted() bool       { return m.Deleted }
func (m *SyncMeta) EntityUpdatedAt() time.Time { return m.UpdatedAt }
