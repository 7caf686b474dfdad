package persistence

import (
	"errors"

	"github.com/erp/ledger-engine/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds SELECT ... FOR UPDATE. Dialects without row locks (SQLite)
// drop the clause and rely on the single writer instead.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// paginate applies page/page size and a whitelisted ordering
func paginate(query *gorm.DB, filter shared.Filter, spec sortSpec) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return spec.apply(query, filter.OrderBy, filter.OrderDir)
}

// mapNotFound turns gorm.ErrRecordNotFound into the given domain error
func mapNotFound(err error, notFound *shared.DomainError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// isDuplicateKey reports a unique constraint violation. The database must be
// opened with TranslateError so drivers map their native codes.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// versionConflict builds the optimistic locking error for a stale save
func versionConflict(entity string) error {
	return shared.ErrConcurrencyConflict.Errorf("%s was modified by another transaction", entity)
}
