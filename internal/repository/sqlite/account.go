package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/repository"
)

// compile-time check that *DB implements repository.AccountRepository
var _ repository.AccountRepository = (*DB)(nil)

const accountColumns = `id, user_id, name, email, image, role, created_at, updated_at`

func scanAccount(s scanner) (model.Account, error) {
	var a model.Account
	err := s.Scan(&a.ID, &a.UserID, &a.Name, &a.Email, &a.Image, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// CreateAccount inserts a new account and fills in its ID, role default and
// timestamps in place.
func (db *DB) CreateAccount(ctx context.Context, account *model.Account) error {
	return insertAccount(ctx, db.conn, account)
}

func insertAccount(ctx context.Context, q querier, account *model.Account) error {
	now := time.Now().UTC()
	account.ID = xid.New().String()
	if account.Role == "" {
		account.Role = model.RoleUser
	}
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := q.ExecContext(ctx,
		`INSERT INTO account (id, user_id, name, email, image, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.UserID, account.Name, account.Email, account.Image,
		account.Role, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError(err, constraint{resource: "Account", key: "userId", value: account.UserID}); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: inserting account (userID=%s): %w", account.UserID, err)
	}
	return nil
}

func (db *DB) FindAccount(ctx context.Context, id string) (*model.Account, error) {
	return findAccount(ctx, db.conn, "id", id)
}

func (db *DB) FindAccountByUserID(ctx context.Context, userID string) (*model.Account, error) {
	return findAccount(ctx, db.conn, "user_id", userID)
}

func findAccount(ctx context.Context, q querier, col, value string) (*model.Account, error) {
	row := q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM account WHERE `+col+` = ?`, value)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting account by %s %s: %w", col, value, err)
	}
	return &a, nil
}

// UpdateAccountByUserID patches the account owned by the identity provider
// subject userID.
func (db *DB) UpdateAccountByUserID(ctx context.Context, userID string, patch model.AccountPatch) (*model.Account, error) {
	var set setList
	set.addString("name", patch.Name)
	set.addString("email", patch.Email)
	set.addString("image", patch.Image)
	set.addString("role", patch.Role)
	set.add("updated_at", time.Now().UTC())

	var updated *model.Account
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		query := "UPDATE account SET " + set.joined() + " WHERE user_id = ?"
		res, err := tx.ExecContext(ctx, query, append(set.args, userID)...)
		if err != nil {
			return fmt.Errorf("sqlite: updating account %s: %w", userID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("User", "id", userID)
		}
		updated, err = findAccount(ctx, tx, "user_id", userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetAccountRole changes the role of the account owned by userID.
func (db *DB) SetAccountRole(ctx context.Context, userID, role string) (*model.Account, error) {
	return db.UpdateAccountByUserID(ctx, userID, model.AccountPatch{Role: &role})
}

// UpsertAccount inserts or refreshes an account keyed by UserID.
//
// An existing row keeps its internal ID and role: only the profile fields
// (name, email, image) are overwritten. The account is updated in place with
// the stored ID, role and timestamps.
func (db *DB) UpsertAccount(ctx context.Context, account *model.Account) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := findAccount(ctx, tx, "user_id", account.UserID)
		if err != nil {
			return err
		}
		if existing == nil {
			return insertAccount(ctx, tx, account)
		}

		account.ID = existing.ID
		account.Role = existing.Role
		account.CreatedAt = existing.CreatedAt
		account.UpdatedAt = time.Now().UTC()
		_, err = tx.ExecContext(ctx,
			`UPDATE account SET name = ?, email = ?, image = ?, updated_at = ? WHERE id = ?`,
			account.Name, account.Email, account.Image, account.UpdatedAt, account.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating account %s: %w", account.ID, err)
		}
		return nil
	})
}
