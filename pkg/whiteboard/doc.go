// Package whiteboard provides the shape model, wire types and backend adapters
// for Slate collaborative whiteboards.
//
// # Overview
//
// A whiteboard document is a single ordered shape set. Insertion order is z-order:
// later shapes are drawn on top. Shape sets are treated as immutable values; every
// mutation produces a new Set and leaves the previous one untouched, which keeps
// change detection, history snapshots and broadcast comparison trivial.
//
// # Core Concepts
//
// Shapes form a closed sum type. The Shape interface carries an unexported marker
// method, so the only variants are Rectangle, Path, Text and StickyNote. Code that
// switches over shapes handles all four and panics on anything else.
//
// Messages are the unit of realtime replication. Each message carries an event name,
// the sender's user id and a JSON payload. Receivers compare the sender tag with their
// own identity to discard their own echoes.
//
// Documents are the durable form of a board: the shape set with transient fields
// (IsEditing) stripped, plus the time of the last write.
//
// # Backends
//
// Client is the Redis backend. It implements both Transport (Pub/Sub channel per
// board) and DocumentStore (one hash per board). MemoryHub and MemoryStore are the
// in-process equivalents used by tests and single-node deployments.
//
// # Redis Schema
//
// All Redis keys and channels are namespaced by instance name:
//
// Documents: slate:{instance_name}:board:{document_id}
// Board events: slate:{instance_name}:board:{document_id}:events
//
// # Usage Example
//
//	client, err := whiteboard.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	rect := whiteboard.NewRectangle(whiteboard.NewID(), 10, 10)
//	doc := &whiteboard.Document{ID: "board-1", Content: whiteboard.Set{rect}}
//	if err := client.WriteDocument(ctx, doc); err != nil {
//		log.Fatal(err)
//	}
package whiteboard
