package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (h *SharedHelpers) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return h.db
}

// useCache reports whether reads may go through the cache. Reads inside a
// transaction must see uncommitted writes, so they always hit the store.
func (h *SharedHelpers) useCache(tx *gorm.DB) bool {
	return tx == nil && !inTransaction(h.db)
}

func inTransaction(db *gorm.DB) bool {
	if db == nil || db.Statement == nil {
		return false
	}
	_, ok := db.Statement.ConnPool.(gorm.TxCommitter)
	return ok
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"title":      true,
		"name":       true,
		"email":      true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder).Order("id " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}

// nextPosition returns max(position)+1 for rows matching the scope, or 0 when none exist
func (h *SharedHelpers) nextPosition(ctx context.Context, db *gorm.DB, model interface{}, column string, id uint) (int, error) {
	var maxPos sql.NullInt64
	err := db.WithContext(ctx).
		Model(model).
		Where(column+" = ?", id).
		Select("MAX(position)").
		Row().
		Scan(&maxPos)
	if err != nil {
		return 0, fmt.Errorf("failed to get max position: %w", err)
	}
	if !maxPos.Valid {
		return 0, nil
	}
	return int(maxPos.Int64) + 1, nil
}

// renumber rewrites position to 0..n-1 for rows in the scope, keeping their relative order
func (h *SharedHelpers) renumber(ctx context.Context, db *gorm.DB, model interface{}, column string, id uint) error {
	var ids []uint
	if err := db.WithContext(ctx).
		Model(model).
		Where(column+" = ?", id).
		Order("position ASC").
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}

	for position, rowID := range ids {
		if err := db.WithContext(ctx).
			Model(model).
			Where("id = ?", rowID).
			Update("position", position).Error; err != nil {
			return fmt.Errorf("failed to renumber row %d: %w", rowID, err)
		}
	}
	return nil
}

// deleteLessonsWhere removes lessons matching the condition together with their progress records
func (h *SharedHelpers) deleteLessonsWhere(ctx context.Context, db *gorm.DB, query string, args ...interface{}) error {
	lessonIDs := db.Model(&models.Lesson{}).Select("id").Where(query, args...)
	if err := db.WithContext(ctx).
		Where("lesson_id IN (?)", lessonIDs).
		Delete(&models.Progress{}).Error; err != nil {
		return fmt.Errorf("failed to delete lesson progress: %w", err)
	}
	if err := db.WithContext(ctx).
		Where(query, args...).
		Delete(&models.Lesson{}).Error; err != nil {
		return fmt.Errorf("failed to delete lessons: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction unless db already is one
func (h *SharedHelpers) inTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if inTransaction(db) {
		return fn(db)
	}
	return db.WithContext(ctx).Transaction(fn)
}
