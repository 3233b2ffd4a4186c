// Package history persists executed actions to SQLite.
//
// The repository backs two consumers:
//
//   - the pipeline records every executed action per user
//   - the context layer's "history" source reads recent actions back via
//     Fetch, shaped for merging (most-recent-last, capped at ten)
//
// Entries are stored as JSON blobs in the action_history table created by
// the embedded migrations. Pruning by age keeps the table bounded.
//
// Usage:
//
//	repo := history.NewRepository(db.DB)
//	repo.Record(ctx, "alice", map[string]any{"action": "turn_on", "device": "light-salon"})
//
//	manager.Register(situation.SourceHistory, situation.FetcherFunc(repo.Fetch))
package history
