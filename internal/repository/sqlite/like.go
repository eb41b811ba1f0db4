package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/repository"
)

var _ repository.LikeRepository = (*DB)(nil)

// LikeTool records a like. A second like of the same tool by the same
// account is a Conflict.
func (db *DB) LikeTool(ctx context.Context, accountID, toolID string) (*model.Like, error) {
	now := time.Now().UTC()
	like := &model.Like{
		ID:        xid.New().String(),
		AccountID: accountID,
		ToolID:    toolID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, tx, "tool", "Tool", toolID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO likes (id, account_id, tool_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			like.ID, like.AccountID, like.ToolID, like.CreatedAt, like.UpdatedAt,
		)
		if err != nil {
			if cerr := constraintError(err, constraint{resource: "Like", key: "toolId", value: toolID, refField: "accountId"}); cerr != nil {
				return cerr
			}
			return fmt.Errorf("sqlite: liking tool %s: %w", toolID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return like, nil
}

func (db *DB) UnlikeTool(ctx context.Context, accountID, toolID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM likes WHERE account_id = ? AND tool_id = ?`, accountID, toolID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: unliking tool %s: %w", toolID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Like", "toolId", toolID)
	}
	return nil
}

func (db *DB) CountToolLikes(ctx context.Context, toolID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE tool_id = ?`, toolID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting likes of tool %s: %w", toolID, err)
	}
	return n, nil
}
