package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

// BulkUpsert inserts all rows into table in a single multi-row statement.
// Rows colliding on conflictCols are updated in place, each update column
// taking the incoming value via EXCLUDED. Returns the number of affected
// rows. The table, row set, conflict set and update set must all be
// non-empty; callers that want conflict rows skipped use BulkInsert.
func BulkUpsert(ctx context.Context, ext sqlx.ExtContext, table string, insertCols []string, rows [][]interface{}, conflictCols, updateCols []string) (int64, error) {
	if len(rows) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "bulk upsert requires at least one row")
	}
	if len(conflictCols) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "bulk upsert requires conflict columns")
	}
	if len(updateCols) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "bulk upsert requires update columns")
	}
	return bulkWrite(ctx, ext, table, insertCols, rows, conflictCols, updateCols)
}

// BulkInsert inserts all rows in a single statement, skipping rows that
// collide on conflictCols. Used for mapping tables where duplicates carry
// no updatable payload. An empty row set is a no-op so that replace-style
// writes can legitimately leave zero children.
func BulkInsert(ctx context.Context, ext sqlx.ExtContext, table string, insertCols []string, rows [][]interface{}, conflictCols []string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	return bulkWrite(ctx, ext, table, insertCols, rows, conflictCols, nil)
}

func bulkWrite(ctx context.Context, ext sqlx.ExtContext, table string, insertCols []string, rows [][]interface{}, conflictCols, updateCols []string) (int64, error) {
	if table == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "bulk write requires a table")
	}
	if len(insertCols) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "bulk write requires at least one column")
	}
	for i, row := range rows {
		if len(row) != len(insertCols) {
			return 0, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("bulk write row %d has %d values, expected %d", i, len(row), len(insertCols)))
		}
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(insertCols, ", "))
	sb.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(rows)*len(insertCols))
	placeholders := make([]string, len(insertCols))
	for i, row := range rows {
		for j := range insertCols {
			placeholders[j] = fmt.Sprintf("$%d", len(args)+j+1)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		sb.WriteString(strings.Join(placeholders, ", "))
		sb.WriteString(")")
		args = append(args, row...)
	}

	if len(conflictCols) > 0 {
		sb.WriteString(" ON CONFLICT (")
		sb.WriteString(strings.Join(conflictCols, ", "))
		if len(updateCols) == 0 {
			sb.WriteString(") DO NOTHING")
		} else {
			sb.WriteString(") DO UPDATE SET ")
			for i, col := range updateCols {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(col)
				sb.WriteString(" = EXCLUDED.")
				sb.WriteString(col)
			}
		}
	}

	res, err := ext.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk write %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk write %s rows affected: %w", table, err)
	}
	return affected, nil
}
