package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Record is one row keyed by column name.
type Record map[string]any

// Filters selects rows by column equality. All entries must match.
type Filters map[string]any

var schemaCache sync.Map

func schemaOf(t reflect.Type) (*schema.Schema, error) {
	return schema.Parse(reflect.New(t).Interface(), &schemaCache, schema.NamingStrategy{})
}

func field(sch *schema.Schema, name string) (*schema.Field, error) {
	f, ok := sch.FieldsByDBName[name]
	if !ok || f.PrimaryKey {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return f, nil
}

// toModel builds a pointer to a fresh model of info.model with rec applied.
func toModel(ctx context.Context, info collectionInfo, rec Record) (reflect.Value, error) {
	sch, err := schemaOf(info.model)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(info.model)
	for name, v := range rec {
		f, err := field(sch, name)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := f.Set(ctx, ptr.Elem(), v); err != nil {
			return reflect.Value{}, fmt.Errorf("field %s: %w", name, err)
		}
	}
	return ptr, nil
}

func fromModel(ctx context.Context, sch *schema.Schema, rv reflect.Value) Record {
	rec := make(Record, len(sch.DBNames))
	for _, name := range sch.DBNames {
		f := sch.FieldsByDBName[name]
		if f.PrimaryKey {
			continue
		}
		v, _ := f.ValueOf(ctx, rv)
		rec[name] = v
	}
	return rec
}

// normalize converts change values to the column types of the model,
// so "services" may be given either as line items or as JSON text.
func normalize(ctx context.Context, info collectionInfo, changes Record) (map[string]interface{}, error) {
	ptr, err := toModel(ctx, info, changes)
	if err != nil {
		return nil, err
	}
	sch, err := schemaOf(info.model)
	if err != nil {
		return nil, err
	}
	values := make(map[string]interface{}, len(changes))
	for name := range changes {
		v, _ := sch.FieldsByDBName[name].ValueOf(ctx, ptr.Elem())
		values[name] = v
	}
	return values, nil
}

func checkFilters(info collectionInfo, filters Filters) error {
	sch, err := schemaOf(info.model)
	if err != nil {
		return err
	}
	for name := range filters {
		if _, err := field(sch, name); err != nil {
			return err
		}
	}
	return nil
}

func where(q *gorm.DB, filters Filters) *gorm.DB {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		q = q.Where(clause.Eq{Column: clause.Column{Name: name}, Value: filters[name]})
	}
	return q
}

func byID(idField, id string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: idField}, Value: id}
}
