package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// collectionRow registers a collection and its unique field.
type collectionRow struct {
	Name        string `gorm:"primaryKey"`
	UniqueField string
	CreatedAt   time.Time
}

func (collectionRow) TableName() string { return "collections" }

// documentRow holds one BSON-encoded document. UniqueKey mirrors the value of
// the collection's unique field and is NULL when the collection has none.
type documentRow struct {
	ID         string  `gorm:"primaryKey;size:24"`
	Collection string  `gorm:"not null;uniqueIndex:idx_documents_collection_key,priority:1"`
	UniqueKey  *string `gorm:"uniqueIndex:idx_documents_collection_key,priority:2"`
	Body       []byte  `gorm:"not null"`
	CreatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

// SQLite stores documents in an embedded SQLite database through gorm.
type SQLite struct {
	db *gorm.DB
}

// NewSQLite opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway database.
func NewSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, unavailable("sqlite open", err)
	}

	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("store: sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&collectionRow{}, &documentRow{}); err != nil {
		return nil, fmt.Errorf("store: sqlite migrate: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Available() bool { return true }

func (s *SQLite) InsertOne(ctx context.Context, collection string, doc any) (string, error) {
	enc, err := encode(doc)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		coll := collectionRow{Name: collection}
		if err := tx.Where(collectionRow{Name: collection}).FirstOrCreate(&coll).Error; err != nil {
			return err
		}
		return tx.Create(&documentRow{
			ID:         enc.id.Hex(),
			Collection: collection,
			UniqueKey:  enc.uniqueKey(coll.UniqueField),
			Body:       enc.body,
		}).Error
	})
	if err != nil {
		return "", sqliteError("insert into "+collection, err)
	}

	return enc.id.Hex(), nil
}

func (s *SQLite) FindOne(ctx context.Context, collection string, filter Filter, out any) error {
	f, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	var coll collectionRow
	if err := s.db.WithContext(ctx).First(&coll, "name = ?", collection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return sqliteError("find in "+collection, err)
	}

	query := s.db.WithContext(ctx).Where("collection = ?", collection)
	if v, ok := f["_id"]; ok {
		if oid, ok := objectIDHex(v); ok {
			query = query.Where("id = ?", oid)
		}
	}
	if coll.UniqueField != "" {
		if v, ok := f[coll.UniqueField].(string); ok {
			query = query.Where("unique_key = ?", v)
		}
	}

	var rows []documentRow
	if err := query.Order("created_at").Find(&rows).Error; err != nil {
		return sqliteError("find in "+collection, err)
	}

	for _, row := range rows {
		ok, err := matches(row.Body, f)
		if err != nil {
			return err
		}
		if ok {
			return decode(row.Body, out)
		}
	}
	return ErrNotFound
}

func (s *SQLite) ListCollections(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := s.db.WithContext(ctx).Model(&collectionRow{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, sqliteError("list collections", err)
	}
	return names, nil
}

func (s *SQLite) EnsureUniqueIndex(ctx context.Context, collection, field string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		coll := collectionRow{Name: collection}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&coll).Error; err != nil {
			return err
		}
		if err := tx.First(&coll, "name = ?", collection).Error; err != nil {
			return err
		}
		if coll.UniqueField == field {
			return nil
		}
		if coll.UniqueField != "" {
			return fmt.Errorf("store: %s already unique on %q", collection, coll.UniqueField)
		}

		var rows []documentRow
		if err := tx.Where("collection = ?", collection).Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			enc, err := encodedFromBody(row.Body)
			if err != nil {
				return err
			}
			if err := tx.Model(&documentRow{}).Where("id = ?", row.ID).
				Update("unique_key", enc.uniqueKey(field)).Error; err != nil {
				return err
			}
		}

		return tx.Model(&collectionRow{}).Where("name = ?", collection).Update("unique_field", field).Error
	})
	if err != nil {
		return sqliteError("ensure index "+collection+"."+field, err)
	}
	return nil
}

func (s *SQLite) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sqliteError(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("store: %s: %w", op, ErrDuplicate)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return unavailable(op, err)
	default:
		return fmt.Errorf("store: %s: %w", op, err)
	}
}
