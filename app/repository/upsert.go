package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertByKey looks up the row of type T whose natural-key column equals key.
//
// When no row exists, build is called for a fresh row; a nil result means the
// row must not be created and upsertByKey returns (nil, false, nil). apply, if
// given, then mutates the row (created reports whether it is new) before it is
// written. Associations are never written implicitly: owned sub-rows go through
// their own upsertByKey call.
func upsertByKey[T any](db *gorm.DB, column string, key any, build func() *T, apply func(row *T, created bool)) (*T, bool, error) {
	var row T
	err := db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: key}).First(&row).Error

	created := false
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		fresh := build()
		if fresh == nil {
			return nil, false, nil
		}
		row = *fresh
		created = true
	default:
		return nil, false, err
	}

	if apply == nil && !created {
		return &row, false, nil
	}
	if apply != nil {
		apply(&row, created)
	}

	if created {
		err = db.Omit(clause.Associations).Create(&row).Error
	} else {
		err = db.Omit(clause.Associations).Save(&row).Error
	}
	if err != nil {
		return nil, false, err
	}
	return &row, created, nil
}

// findByKey returns the row whose column equals key, or nil when there is none.
func findByKey[T any](db *gorm.DB, column string, key any) (*T, error) {
	var row T
	err := db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
