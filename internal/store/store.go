package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-admin-server/internal/logger"
)

// DataAccess is the generic record store the services depend on.
type DataAccess interface {
	Create(ctx context.Context, coll Collection, rec Record) error
	Read(ctx context.Context, coll Collection, filters Filters) ([]Record, error)
	Update(ctx context.Context, coll Collection, businessID, idField string, changes Record) error
	UpdateIf(ctx context.Context, coll Collection, businessID, idField string, expect Filters, changes Record) error
	Delete(ctx context.Context, coll Collection, businessID, idField string) error
	NextID(ctx context.Context, coll Collection, prefix string) (string, error)
	CreateWithNextID(ctx context.Context, coll Collection, prefix string, build func(id string) (Record, error)) (string, error)
	Deactivate(ctx context.Context, coll Collection, businessID string) error
	Purge(ctx context.Context, coll Collection, businessID string) error
	Count(ctx context.Context, coll Collection, filters Filters) (int64, error)
}

// Store implements DataAccess on top of gorm. All writes are serialized
// by one mutex; reads run unlocked.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
	mu  sync.Mutex
}

var _ DataAccess = (*Store)(nil)

// New creates a store over an opened and migrated database.
func New(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: log}
}

// timed runs fn, wraps its error and logs the call.
func (s *Store) timed(op string, coll Collection, fn func() (int64, error)) error {
	start := time.Now()
	rows, err := fn()
	err = newError(op, coll, err)
	s.log.DatabaseOperation(op, string(coll), time.Since(start).Milliseconds(), rows, err)
	return err
}

func (s *Store) Create(ctx context.Context, coll Collection, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.timed("create", coll, func() (int64, error) {
		return s.insert(ctx, coll, rec)
	})
}

func (s *Store) insert(ctx context.Context, coll Collection, rec Record) (int64, error) {
	info, err := lookup(coll)
	if err != nil {
		return 0, err
	}
	if id, _ := rec[info.idField].(string); id == "" {
		return 0, ErrMissingID
	}
	model, err := toModel(ctx, info, rec)
	if err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Create(model.Interface())
	return res.RowsAffected, res.Error
}

func (s *Store) Read(ctx context.Context, coll Collection, filters Filters) ([]Record, error) {
	var out []Record
	err := s.timed("read", coll, func() (int64, error) {
		info, err := lookup(coll)
		if err != nil {
			return 0, err
		}
		if err := checkFilters(info, filters); err != nil {
			return 0, err
		}
		sch, err := schemaOf(info.model)
		if err != nil {
			return 0, err
		}

		rows := reflect.New(reflect.SliceOf(info.model))
		q := where(s.db.WithContext(ctx), filters)
		if err := q.Order("id ASC").Find(rows.Interface()).Error; err != nil {
			return 0, err
		}

		list := rows.Elem()
		out = make([]Record, 0, list.Len())
		for i := 0; i < list.Len(); i++ {
			out = append(out, fromModel(ctx, sch, list.Index(i)))
		}
		return int64(len(out)), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, coll Collection, businessID, idField string, changes Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.timed("update", coll, func() (int64, error) {
		return s.update(ctx, coll, businessID, idField, nil, changes)
	})
}

// UpdateIf applies changes only while the row still matches every entry of
// expect. A row that exists but no longer matches fails with ErrStale.
func (s *Store) UpdateIf(ctx context.Context, coll Collection, businessID, idField string, expect Filters, changes Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.timed("update", coll, func() (int64, error) {
		return s.update(ctx, coll, businessID, idField, expect, changes)
	})
}

func (s *Store) update(ctx context.Context, coll Collection, businessID, idField string, expect Filters, changes Record) (int64, error) {
	info, err := lookup(coll)
	if err != nil {
		return 0, err
	}
	if idField != info.idField {
		return 0, fmt.Errorf("%w: %s", ErrUnknownField, idField)
	}
	if v, ok := changes[idField]; ok {
		if id, _ := v.(string); id != businessID {
			return 0, ErrImmutableID
		}
	}
	if err := checkFilters(info, expect); err != nil {
		return 0, err
	}
	values, err := normalize(ctx, info, changes)
	if err != nil {
		return 0, err
	}

	var rows int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(reflect.New(info.model).Interface()).Where(byID(idField, businessID)).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		if len(expect) > 0 {
			matching := where(tx.Model(reflect.New(info.model).Interface()).Where(byID(idField, businessID)), expect)
			if err := matching.Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrStale
			}
		}
		if len(values) == 0 {
			return nil
		}
		res := tx.Model(reflect.New(info.model).Interface()).Where(byID(idField, businessID)).Updates(values)
		rows = res.RowsAffected
		return res.Error
	})
	return rows, err
}

func (s *Store) Delete(ctx context.Context, coll Collection, businessID, idField string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.timed("delete", coll, func() (int64, error) {
		return s.delete(ctx, coll, businessID, idField)
	})
}

func (s *Store) delete(ctx context.Context, coll Collection, businessID, idField string) (int64, error) {
	info, err := lookup(coll)
	if err != nil {
		return 0, err
	}
	if idField != info.idField {
		return 0, fmt.Errorf("%w: %s", ErrUnknownField, idField)
	}
	res := s.db.WithContext(ctx).Where(byID(idField, businessID)).Delete(reflect.New(info.model).Interface())
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return res.RowsAffected, nil
}

// NextID returns prefix followed by the highest numeric suffix in use plus
// one, zero padded to three digits.
func (s *Store) NextID(ctx context.Context, coll Collection, prefix string) (string, error) {
	var id string
	err := s.timed("next_id", coll, func() (int64, error) {
		var err error
		id, err = s.nextID(ctx, coll, prefix)
		return 0, err
	})
	return id, err
}

func (s *Store) nextID(ctx context.Context, coll Collection, prefix string) (string, error) {
	info, err := lookup(coll)
	if err != nil {
		return "", err
	}

	var ids []string
	err = s.db.WithContext(ctx).
		Model(reflect.New(info.model).Interface()).
		Where(clause.Like{Column: clause.Column{Name: info.idField}, Value: prefix + "%"}).
		Pluck(info.idField, &ids).Error
	if err != nil {
		return "", err
	}

	highest := 0
	for _, id := range ids {
		// LIKE is case-insensitive on some engines
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if n, ok := sequence(id[len(prefix):]); ok && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1), nil
}

func sequence(suffix string) (int, bool) {
	if suffix == "" {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(suffix)
	return n, err == nil
}

// CreateWithNextID allocates the next id and inserts the record built for
// it while holding the write lock. build's error is returned unchanged.
func (s *Store) CreateWithNextID(ctx context.Context, coll Collection, prefix string, build func(id string) (Record, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		id       string
		buildErr error
	)
	err := s.timed("create", coll, func() (int64, error) {
		info, err := lookup(coll)
		if err != nil {
			return 0, err
		}
		next, err := s.nextID(ctx, coll, prefix)
		if err != nil {
			return 0, err
		}
		rec, err := build(next)
		if err != nil {
			buildErr = err
			return 0, nil
		}
		if rec == nil {
			rec = Record{}
		}
		rec[info.idField] = next

		rows, err := s.insert(ctx, coll, rec)
		if err == nil {
			id = next
		}
		return rows, err
	})
	if buildErr != nil {
		return "", buildErr
	}
	return id, err
}

// Deactivate clears is_active on accounts and patients.
func (s *Store) Deactivate(ctx context.Context, coll Collection, businessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.timed("deactivate", coll, func() (int64, error) {
		info, err := lookup(coll)
		if err != nil {
			return 0, err
		}
		if !info.hasActive {
			return 0, fmt.Errorf("%w: is_active", ErrUnknownField)
		}
		return s.update(ctx, coll, businessID, info.idField, nil, Record{"is_active": false})
	})
}

// Purge removes the row for good.
func (s *Store) Purge(ctx context.Context, coll Collection, businessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.timed("purge", coll, func() (int64, error) {
		info, err := lookup(coll)
		if err != nil {
			return 0, err
		}
		return s.delete(ctx, coll, businessID, info.idField)
	})
}

func (s *Store) Count(ctx context.Context, coll Collection, filters Filters) (int64, error) {
	var n int64
	err := s.timed("count", coll, func() (int64, error) {
		info, err := lookup(coll)
		if err != nil {
			return 0, err
		}
		if err := checkFilters(info, filters); err != nil {
			return 0, err
		}
		return 0, where(s.db.WithContext(ctx).Model(reflect.New(info.model).Interface()), filters).Count(&n).Error
	})
	return n, err
}

// IsStale reports whether a conditional update lost to another write.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}

// IsNotFound reports whether err is a missing-row failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConstraint reports whether err is a unique or integrity violation.
func IsConstraint(err error) bool {
	return errors.Is(err, ErrConstraint)
}
