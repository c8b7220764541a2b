package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// slugScopes maps tables with per-parent slugs to their parent column.
// Table names never come from user input, the map also guards that.
var slugScopes = map[string]string{
	"certifying_organisations": "project_id",
	"training_centers":         "organisation_id",
	"course_types":             "organisation_id",
	"courses":                  "organisation_id",
	"sponsors":                 "project_id",
	"sponsorship_levels":       "project_id",
	"sponsorship_periods":      "project_id",
	"versions":                 "project_id",
	"changelog_categories":     "project_id",
}

func slugQuery(ctx context.Context, db *gorm.DB, table string, parentID uuid.UUID) (*gorm.DB, error) {
	column, ok := slugScopes[table]
	if !ok {
		return nil, fmt.Errorf("persistence: no slug scope for table %q", table)
	}
	return db.WithContext(ctx).Table(table).Where(column+" = ?", parentID), nil
}

func scopedSlugExists(ctx context.Context, db *gorm.DB, table string, parentID uuid.UUID, slug string) (bool, error) {
	q, err := slugQuery(ctx, db, table, parentID)
	if err != nil {
		return false, err
	}
	var count int64
	if err := q.Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func scopedSlugCount(ctx context.Context, db *gorm.DB, table string, parentID uuid.UUID, base string) (int64, error) {
	q, err := slugQuery(ctx, db, table, parentID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = q.Where("slug = ? OR slug LIKE ? ESCAPE '\\'", base, escapeLike(base)+"-%").Count(&count).Error
	return count, err
}

// escapeLike escapes LIKE wildcards. Slugs only contain [a-z0-9-] but the
// base may be passed through unchanged from other callers.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
