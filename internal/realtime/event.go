package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Table names the entity tables whose row changes flow through the pipeline.
type Table string

const (
	TableTodo Table = "todo"
	TableJar  Table = "jar"
	TableTag  Table = "tag"
	TableNote Table = "note"
)

// AllTables returns every change-captured table, in a fresh slice the caller
// may own.
func AllTables() []Table {
	return []Table{TableTodo, TableJar, TableTag, TableNote}
}

func ParseTable(s string) (Table, bool) {
	switch Table(s) {
	case TableTodo, TableJar, TableTag, TableNote:
		return Table(s), true
	}
	return "", false
}

type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

func ParseOperation(s string) (Operation, bool) {
	switch Operation(s) {
	case OpInsert, OpUpdate, OpDelete:
		return Operation(s), true
	}
	return "", false
}

// ChangeEvent is a normalized row-change notification. It exists only in
// transit: born when the database commit fires the capture trigger, gone once
// every active session has seen it.
type ChangeEvent struct {
	Table     Table     `json:"table"`
	Operation Operation `json:"operation"`
	UserID    uuid.UUID `json:"user_id"`
	EntityID  uuid.UUID `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TopicAll receives every published event; per-table topics receive only
// their own.
const TopicAll = "all"

func TopicFor(t Table) string {
	return "table:" + string(t)
}

// Publisher is where the capture listener hands parsed events: the in-process
// Bus directly, or a relay that crosses instance boundaries first.
type Publisher interface {
	PublishChange(ctx context.Context, ev ChangeEvent) error
}
