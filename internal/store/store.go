// Package store holds the error taxonomy and the small helpers shared by the
// packages that read and write signalbox entities.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors. Callers match them with errors.Is; every package wraps
// them with its own prefix.
var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("constraint violation")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("validation error")
)

// Translate maps gorm and driver errors onto the sentinel taxonomy. Errors it
// does not recognise are returned unchanged.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict),
		errors.Is(err, ErrForbidden), errors.Is(err, ErrInvalid):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// Exists reports whether a row of model's table has the given primary key id.
func Exists(db *gorm.DB, model interface{}, id string) (bool, error) {
	var n int64
	if err := db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Require returns an ErrConflict naming what when the referenced row is
// missing. It is used for foreign references supplied on create.
func Require(db *gorm.DB, model interface{}, what, id string) error {
	ok, err := Exists(db, model, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %s does not exist", ErrConflict, what, id)
	}
	return nil
}
