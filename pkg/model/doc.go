// Package model describes the objects persisted by modelstore.
//
// All persisted objects share one keyspace. Data objects and commits are content addressed:
// their key is "#" followed by the hex digest of their canonical serialization, computed with
// the identity field ("_id") blanked. Branch records are mutable and use the reserved "*" key prefix.
package model
