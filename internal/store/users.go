package store

import (
	"context"

	"github.com/uptrace/bun"

	"lidercheck/internal/apperr"
	"lidercheck/internal/checklist"
)

// Users returns every user ordered by name. Password hashes stay in the
// store.
func (s *Store) Users(ctx context.Context) ([]checklist.User, error) {
	var recs []userRecord
	if err := s.db.NewSelect().Model(&recs).OrderExpr("name ASC").Scan(ctx); err != nil {
		return nil, storageError(err, "list users")
	}
	out := make([]checklist.User, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toUser(rec))
	}
	return out, nil
}

// User returns one user together with the stored password hash.
func (s *Store) User(ctx context.Context, matricula string) (checklist.User, string, error) {
	rec := new(userRecord)
	err := s.db.NewSelect().Model(rec).Where("matricula = ?", matricula).Scan(ctx)
	if isNoRows(err) {
		return checklist.User{}, "", apperr.NotFound("user %s not found", matricula)
	}
	if err != nil {
		return checklist.User{}, "", storageError(err, "get user")
	}
	return toUser(*rec), rec.PasswordHash, nil
}

// CreateUser inserts a user. An existing matricula is a conflict.
func (s *Store) CreateUser(ctx context.Context, u checklist.User, passwordHash string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*userRecord)(nil)).
			Where("matricula = ?", u.Matricula).
			Exists(ctx)
		if err != nil {
			return storageError(err, "check user")
		}
		if exists {
			return apperr.Conflict("matricula %s already exists", u.Matricula)
		}
		rec := fromUser(u, passwordHash)
		if _, err := tx.NewInsert().Model(&rec).Exec(ctx); err != nil {
			return storageError(err, "create user")
		}
		return nil
	})
}

// UpdateUser rewrites the user stored under original, which may be renamed
// to u.Matricula. An empty passwordHash keeps the stored one.
func (s *Store) UpdateUser(ctx context.Context, original string, u checklist.User, passwordHash string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current := new(userRecord)
		err := tx.NewSelect().Model(current).Where("matricula = ?", original).Scan(ctx)
		if isNoRows(err) {
			return apperr.NotFound("user %s not found", original)
		}
		if err != nil {
			return storageError(err, "get user")
		}

		if u.Matricula != original {
			exists, err := tx.NewSelect().
				Model((*userRecord)(nil)).
				Where("matricula = ?", u.Matricula).
				Exists(ctx)
			if err != nil {
				return storageError(err, "check user")
			}
			if exists {
				return apperr.Conflict("matricula %s already exists", u.Matricula)
			}
		}

		if passwordHash == "" {
			passwordHash = current.PasswordHash
		}
		rec := fromUser(u, passwordHash)
		_, err = tx.NewUpdate().
			Model(&rec).
			Column("matricula", "name", "role", "shift", "email", "password_hash", "is_admin").
			Where("matricula = ?", original).
			Exec(ctx)
		return storageError(err, "update user")
	})
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(ctx context.Context, matricula string) error {
	res, err := s.db.NewDelete().
		Model((*userRecord)(nil)).
		Where("matricula = ?", matricula).
		Exec(ctx)
	if err != nil {
		return storageError(err, "delete user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user %s not found", matricula)
	}
	return nil
}

func toUser(rec userRecord) checklist.User {
	return checklist.User{
		Matricula: rec.Matricula,
		Name:      rec.Name,
		Role:      rec.Role,
		Shift:     rec.Shift,
		Email:     rec.Email,
		IsAdmin:   rec.IsAdmin,
	}
}

func fromUser(u checklist.User, passwordHash string) userRecord {
	return userRecord{
		Matricula:    u.Matricula,
		Name:         u.Name,
		Role:         u.Role,
		Shift:        u.Shift,
		Email:        u.Email,
		PasswordHash: passwordHash,
		IsAdmin:      u.IsAdmin,
	}
}
