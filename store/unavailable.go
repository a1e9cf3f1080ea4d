package store

import "context"

// Unavailable stands in for a database that could not be reached at startup.
// Every operation fails with ErrUnavailable.
type Unavailable struct {
	// Reason is the connection error, if any.
	Reason error
}

func (u Unavailable) Available() bool { return false }

func (u Unavailable) err(op string) error {
	if u.Reason != nil {
		return unavailable(op, u.Reason)
	}
	return ErrUnavailable
}

func (u Unavailable) InsertOne(context.Context, string, any) (string, error) {
	return "", u.err("insert")
}

func (u Unavailable) FindOne(context.Context, string, Filter, any) error {
	return u.err("find")
}

func (u Unavailable) ListCollections(context.Context) ([]string, error) {
	return nil, u.err("list collections")
}

func (u Unavailable) EnsureUniqueIndex(context.Context, string, string) error {
	return u.err("ensure index")
}

func (u Unavailable) Close(context.Context) error { return nil }
