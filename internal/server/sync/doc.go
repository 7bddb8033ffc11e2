// Package sync implements the offline sync and conflict-resolution engine.
//
// A client that has been disconnected submits a batch of changes (creates,
// updates, deletes across accounts, categories, budgets and transactions)
// together with the watermark of its last successful sync. The engine applies
// the batch entity-kind by entity-kind in dependency order, detects lost
// updates with per-entity optimistic versions, computes the incremental pull
// since the watermark, and returns everything in one response. Push and pull
// run inside a single serializable database transaction: either the whole
// request takes effect or none of it does.
//
// Conflicts never abort the batch. A change whose clientVersion is stale is
// reported as a CONFLICT carrying the authoritative server entity, while the
// remaining changes still commit. The engine never merges fields; with money
// involved, surfacing the conflict beats guessing.
package sync
