// Package mongo registers MongoDB-backed storage for a session's tool
// permission memory (§3 always_allowed/blocked). Use clients/mongo to build
// the low-level client and pass it to NewStore to obtain a
// session.MemoryStore, separate from the RunMeta storage in
// features/session/mongo.
package mongo
