package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/repository"
)

var _ repository.LinkRepository = (*DB)(nil)

// LinkTool records that the tool is an alternative to alternativeID.
// Linking an already linked pair is a no-op.
func (db *DB) LinkTool(ctx context.Context, alternativeID, toolID string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, tx, "alternative", "Alternative", alternativeID); err != nil {
			return err
		}
		if err := mustExist(ctx, tx, "tool", "Tool", toolID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO alternatives_to_tools (alternative_id, tool_id) VALUES (?, ?)`,
			alternativeID, toolID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: linking tool %s to alternative %s: %w", toolID, alternativeID, err)
		}
		return nil
	})
}

func (db *DB) UnlinkTool(ctx context.Context, alternativeID, toolID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM alternatives_to_tools WHERE alternative_id = ? AND tool_id = ?`,
		alternativeID, toolID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: unlinking tool %s from alternative %s: %w", toolID, alternativeID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Link", "id", alternativeID+"/"+toolID)
	}
	return nil
}

// mustExist returns NotFound unless table has a row with the given id.
func mustExist(ctx context.Context, q querier, table, resource, id string) error {
	var found int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&found)
	if err != nil {
		return fmt.Errorf("sqlite: checking %s %s: %w", table, id, err)
	}
	if found == 0 {
		return apperror.NotFound(resource, "id", id)
	}
	return nil
}
