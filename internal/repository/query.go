// Package repository provides the GORM-backed persistence of comments,
// reviews, reports and votes.
package repository

import (
	"errors"
	"strings"
	"time"

	"engagement/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("repository: duplicate key")

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func translate(err error) error {
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

var sortColumns = map[models.SortField]string{
	models.SortByCreateTime: "created_at",
	models.SortByLikeCnt:    "like_cnt",
}

// paginate orders and windows q according to req. Ties are broken by id so
// pages are stable across identical timestamps.
func paginate(q *gorm.DB, req models.PageRequest) *gorm.DB {
	req = req.Normalize()
	col, ok := sortColumns[req.Sort]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if req.Order == models.SortAsc {
		dir = "ASC"
	}
	return q.Order(col + " " + dir).Order("id " + dir).Offset(req.Offset()).Limit(req.Size)
}

// containsKeyword is a portable case-insensitive substring match.
func containsKeyword(q *gorm.DB, column, keyword string) *gorm.DB {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return q
	}
	return q.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(keyword))+"%")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// findPage counts the filtered rows and loads one page of them.
func findPage[T any](q *gorm.DB, req models.PageRequest) ([]T, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]T, 0)
	if total == 0 {
		return items, 0, nil
	}
	if err := paginate(q, req).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func hoursAgo(hours int) time.Time {
	return time.Now().Add(-time.Duration(hours) * time.Hour)
}
