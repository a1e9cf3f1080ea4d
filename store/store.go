// Package store is the data-access seam to the document database. It knows
// collections, documents and filters; it knows nothing about accounts.
package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrUnavailable signals that the database cannot be reached.
	ErrUnavailable = errors.New("store: database unavailable")
	// ErrNotFound signals that no document matched the filter.
	ErrNotFound = errors.New("store: document not found")
	// ErrDuplicate signals that a unique index rejected the document.
	ErrDuplicate = errors.New("store: duplicate key")
)

// Filter selects documents by exact field equality. An "_id" given as a hex
// string is compared as an ObjectID.
type Filter map[string]any

// Store is implemented by every backend.
type Store interface {
	// Available reports whether a database connection was established.
	Available() bool
	// InsertOne stores doc in collection and returns the document id as hex.
	InsertOne(ctx context.Context, collection string, doc any) (string, error)
	// FindOne decodes the first document matching filter into out, or returns ErrNotFound.
	FindOne(ctx context.Context, collection string, filter Filter, out any) error
	ListCollections(ctx context.Context) ([]string, error)
	// EnsureUniqueIndex makes field unique within collection. Backends other
	// than MongoDB support one unique field per collection.
	EnsureUniqueIndex(ctx context.Context, collection, field string) error
	Close(ctx context.Context) error
}

// unavailable wraps cause so that errors.Is matches both ErrUnavailable and cause.
func unavailable(op string, cause error) error {
	return fmt.Errorf("store: %s: %w: %w", op, ErrUnavailable, cause)
}

// encoded is a document ready to be written by a non-Mongo backend.
type encoded struct {
	id     primitive.ObjectID
	body   []byte
	fields bson.M
}

// encode marshals doc to BSON, assigning a fresh ObjectID when doc has none.
func encode(doc any) (*encoded, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("store: marshal document: %w", err)
	}

	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("store: unmarshal document: %w", err)
	}

	var id primitive.ObjectID
	hasID := false
	for _, e := range d {
		if e.Key != "_id" {
			continue
		}
		oid, ok := e.Value.(primitive.ObjectID)
		if !ok {
			return nil, fmt.Errorf("store: unsupported _id type %T", e.Value)
		}
		id, hasID = oid, true
	}
	if !hasID {
		id = primitive.NewObjectID()
		d = append(bson.D{{Key: "_id", Value: id}}, d...)
		if raw, err = bson.Marshal(d); err != nil {
			return nil, fmt.Errorf("store: marshal document: %w", err)
		}
	}

	fields := make(bson.M, len(d))
	for _, e := range d {
		fields[e.Key] = e.Value
	}

	return &encoded{id: id, body: raw, fields: fields}, nil
}

// uniqueKey extracts the string value of field, or nil when absent or not a string.
func (e *encoded) uniqueKey(field string) *string {
	if field == "" {
		return nil
	}
	s, ok := e.fields[field].(string)
	if !ok {
		return nil
	}
	return &s
}

func normalizeFilter(f Filter) (Filter, error) {
	out := make(Filter, len(f))
	for k, v := range f {
		if k == "_id" {
			if s, ok := v.(string); ok {
				oid, err := primitive.ObjectIDFromHex(s)
				if err != nil {
					return nil, fmt.Errorf("store: invalid _id %q: %w", s, err)
				}
				v = oid
			}
		}
		out[k] = v
	}
	return out, nil
}

// matches reports whether the decoded document satisfies every filter field.
func matches(body []byte, f Filter) (bool, error) {
	if len(f) == 0 {
		return true, nil
	}

	var doc bson.M
	if err := bson.Unmarshal(body, &doc); err != nil {
		return false, fmt.Errorf("store: unmarshal document: %w", err)
	}

	for k, want := range f {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false, nil
		}
	}
	return true, nil
}

func decode(body []byte, out any) error {
	if err := bson.Unmarshal(body, out); err != nil {
		return fmt.Errorf("store: decode document: %w", err)
	}
	return nil
}

// encodedFromBody rebuilds the field view of an already stored document.
func encodedFromBody(body []byte) (*encoded, error) {
	var fields bson.M
	if err := bson.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("store: unmarshal document: %w", err)
	}
	id, _ := fields["_id"].(primitive.ObjectID)
	return &encoded{id: id, body: body, fields: fields}, nil
}

func objectIDHex(v any) (string, bool) {
	oid, ok := v.(primitive.ObjectID)
	if !ok {
		return "", false
	}
	return oid.Hex(), true
}
