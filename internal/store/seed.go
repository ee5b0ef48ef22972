package store

import (
	"context"

	"github.com/uptrace/bun"

	"lidercheck/internal/checklist"
)

// Defaults is the initial content written into an empty database.
type Defaults struct {
	Lines []string
	Roles []string
	Admin checklist.User
	// AdminPasswordHash is the bcrypt hash for Admin.
	AdminPasswordHash string
}

// Seed fills each empty table from d. Tables that already hold rows are
// left alone.
func (s *Store) Seed(ctx context.Context, d Defaults) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := seedNames(ctx, tx, (*lineRecord)(nil), d.Lines, func(i int, n string) any {
			return &lineRecord{Name: n, Position: i}
		}); err != nil {
			return err
		}
		if err := seedNames(ctx, tx, (*roleRecord)(nil), d.Roles, func(i int, n string) any {
			return &roleRecord{Name: n, Position: i}
		}); err != nil {
			return err
		}

		if d.Admin.Matricula == "" {
			return nil
		}
		exists, err := tx.NewSelect().
			Model((*userRecord)(nil)).
			Where("matricula = ?", d.Admin.Matricula).
			Exists(ctx)
		if err != nil {
			return storageError(err, "check admin")
		}
		if exists {
			return nil
		}
		rec := fromUser(d.Admin, d.AdminPasswordHash)
		if _, err := tx.NewInsert().Model(&rec).Exec(ctx); err != nil {
			return storageError(err, "seed admin")
		}
		return nil
	})
}

func seedNames(ctx context.Context, tx bun.Tx, model any, names []string, row func(int, string) any) error {
	n, err := tx.NewSelect().Model(model).Count(ctx)
	if err != nil {
		return storageError(err, "count seed table")
	}
	if n > 0 {
		return nil
	}
	for i, name := range dedupe(names) {
		if _, err := tx.NewInsert().Model(row(i, name)).Exec(ctx); err != nil {
			return storageError(err, "seed")
		}
	}
	return nil
}
