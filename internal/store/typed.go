package store

import (
	"context"
	"reflect"

	"hospital-admin-server/internal/models"
)

// CollectionFor returns the collection holding entities of type T.
func CollectionFor[T models.Entity]() (Collection, error) {
	var zero T
	coll, ok := collectionOf(reflect.TypeOf(zero))
	if !ok {
		return "", ErrUnknownCollection
	}
	return coll, nil
}

// Encode turns an entity into a record.
func Encode(ctx context.Context, e models.Entity) (Record, error) {
	rv := reflect.ValueOf(e)
	if _, ok := collectionOf(rv.Type()); !ok {
		return nil, ErrUnknownCollection
	}
	sch, err := schemaOf(rv.Type())
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	return fromModel(ctx, sch, ptr.Elem()), nil
}

// Decode turns a record read from coll back into its entity.
func Decode[T models.Entity](ctx context.Context, rec Record) (T, error) {
	var zero T
	coll, err := CollectionFor[T]()
	if err != nil {
		return zero, err
	}
	ptr, err := toModel(ctx, collections[coll], rec)
	if err != nil {
		return zero, newError("decode", coll, err)
	}
	return ptr.Elem().Interface().(T), nil
}

// ReadAs reads matching rows as entities.
func ReadAs[T models.Entity](ctx context.Context, da DataAccess, filters Filters) ([]T, error) {
	coll, err := CollectionFor[T]()
	if err != nil {
		return nil, err
	}
	recs, err := da.Read(ctx, coll, filters)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		e, err := Decode[T](ctx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// FindOne reads the entity with the given business id.
func FindOne[T models.Entity](ctx context.Context, da DataAccess, id string) (T, error) {
	var zero T
	coll, err := CollectionFor[T]()
	if err != nil {
		return zero, err
	}
	found, err := ReadAs[T](ctx, da, Filters{collections[coll].idField: id})
	if err != nil {
		return zero, err
	}
	if len(found) == 0 {
		return zero, &StorageError{Op: "read", Collection: coll, Err: ErrNotFound}
	}
	return found[0], nil
}

// CreateNext inserts the entity built for the next id under prefix and
// returns it as stored.
func CreateNext[T models.Entity](ctx context.Context, da DataAccess, prefix string, build func(id string) T) (T, error) {
	var zero T
	coll, err := CollectionFor[T]()
	if err != nil {
		return zero, err
	}
	id, err := da.CreateWithNextID(ctx, coll, prefix, func(id string) (Record, error) {
		return Encode(ctx, build(id))
	})
	if err != nil {
		return zero, err
	}
	return FindOne[T](ctx, da, id)
}
