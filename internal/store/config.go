package store

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"lidercheck/internal/apperr"
	"lidercheck/internal/checklist"
	"lidercheck/internal/permission"
)

// Config table names, also the keys of config_versions.
const (
	KindItems       = "items"
	KindLines       = "lines"
	KindRoles       = "roles"
	KindPermissions = "permissions"
)

// ReplaceOption tunes a bulk replace.
type ReplaceOption func(*replaceOptions)

type replaceOptions struct {
	expect *int64
}

// IfVersion makes a replace fail with a conflict unless the table is still
// at version v.
func IfVersion(v int64) ReplaceOption {
	return func(o *replaceOptions) {
		o.expect = &v
	}
}

// Version returns the current version token of a config table.
func (s *Store) Version(ctx context.Context, kind string) (int64, error) {
	rec := new(versionRecord)
	err := s.db.NewSelect().Model(rec).Where("name = ?", kind).Scan(ctx)
	if isNoRows(err) {
		return 0, apperr.NotFound("config %s not found", kind)
	}
	if err != nil {
		return 0, storageError(err, "get version")
	}
	return rec.Version, nil
}

// replaceAll bumps the version of kind and runs fn in the same transaction.
// Without IfVersion the last writer wins.
func (s *Store) replaceAll(ctx context.Context, kind string, opts []ReplaceOption, fn func(ctx context.Context, tx bun.Tx) error) (int64, error) {
	var o replaceOptions
	for _, opt := range opts {
		opt(&o)
	}

	var version int64
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().
			Model((*versionRecord)(nil)).
			Set("version = version + 1").
			Where("name = ?", kind)
		if o.expect != nil {
			q = q.Where("version = ?", *o.expect)
		}
		res, err := q.Exec(ctx)
		if err != nil {
			return storageError(err, "bump "+kind+" version")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.Conflict("%s were changed by someone else, reload and retry", kind)
		}

		if err := fn(ctx, tx); err != nil {
			return err
		}

		rec := new(versionRecord)
		if err := tx.NewSelect().Model(rec).Where("name = ?", kind).Scan(ctx); err != nil {
			return storageError(err, "read "+kind+" version")
		}
		version = rec.Version
		return nil
	})
	return version, err
}

// Items returns configured items of one type in stored order. An empty
// type returns every item.
func (s *Store) Items(ctx context.Context, t checklist.ItemType) ([]checklist.Item, error) {
	var recs []itemRecord
	q := s.db.NewSelect().Model(&recs)
	if t != "" {
		q = q.Where("type = ?", t.Normalize())
	}
	if err := q.OrderExpr("position ASC").Scan(ctx); err != nil {
		return nil, storageError(err, "list items")
	}
	out := make([]checklist.Item, 0, len(recs))
	for _, rec := range recs {
		out = append(out, checklist.Item{
			ID:       rec.ID,
			Category: rec.Category,
			Text:     rec.Text,
			Evidence: rec.Evidence,
			ImageURL: rec.ImageURL,
			Type:     checklist.ItemType(rec.Type).Normalize(),
		})
	}
	return out, nil
}

// MaintenanceItems returns the MAINTENANCE items whose category names the
// target, compared case-insensitively.
func (s *Store) MaintenanceItems(ctx context.Context, target string) ([]checklist.Item, error) {
	items, err := s.Items(ctx, checklist.ItemMaintenance)
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, it := range items {
		if strings.EqualFold(strings.TrimSpace(it.Category), strings.TrimSpace(target)) {
			out = append(out, it)
		}
	}
	return out, nil
}

// ReplaceItems replaces the whole item table, across types.
func (s *Store) ReplaceItems(ctx context.Context, items []checklist.Item, opts ...ReplaceOption) (int64, error) {
	return s.replaceAll(ctx, KindItems, opts, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*itemRecord)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return storageError(err, "clear items")
		}
		return insertItems(ctx, tx, items)
	})
}

// ReplaceItemsOfType replaces the items of one type and keeps the others.
// The stored order becomes the kept items followed by the new ones.
func (s *Store) ReplaceItemsOfType(ctx context.Context, t checklist.ItemType, items []checklist.Item, opts ...ReplaceOption) (int64, error) {
	t = t.Normalize()
	return s.replaceAll(ctx, KindItems, opts, func(ctx context.Context, tx bun.Tx) error {
		var kept []itemRecord
		if err := tx.NewSelect().
			Model(&kept).
			Where("type <> ?", t).
			OrderExpr("position ASC").
			Scan(ctx); err != nil {
			return storageError(err, "list items")
		}
		if _, err := tx.NewDelete().Model((*itemRecord)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return storageError(err, "clear items")
		}

		merged := make([]checklist.Item, 0, len(kept)+len(items))
		for _, rec := range kept {
			merged = append(merged, checklist.Item{
				ID:       rec.ID,
				Category: rec.Category,
				Text:     rec.Text,
				Evidence: rec.Evidence,
				ImageURL: rec.ImageURL,
				Type:     checklist.ItemType(rec.Type),
			})
		}
		for _, it := range items {
			it.Type = t
			merged = append(merged, it)
		}
		return insertItems(ctx, tx, merged)
	})
}

func insertItems(ctx context.Context, tx bun.Tx, items []checklist.Item) error {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	recs := make([]itemRecord, 0, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			return apperr.Validation("item %d has no id", i+1)
		}
		if seen[it.ID] {
			return apperr.Validation("duplicate item id %s", it.ID)
		}
		seen[it.ID] = true
		recs = append(recs, itemRecord{
			ID:       it.ID,
			Position: i,
			Category: it.Category,
			Text:     it.Text,
			Evidence: it.Evidence,
			ImageURL: it.ImageURL,
			Type:     string(it.Type.Normalize()),
		})
	}
	if _, err := tx.NewInsert().Model(&recs).Exec(ctx); err != nil {
		return storageError(err, "insert items")
	}
	return nil
}

// Lines returns the configured production lines in order.
func (s *Store) Lines(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.NewSelect().
		Model((*lineRecord)(nil)).
		Column("name").
		OrderExpr("position ASC").
		Scan(ctx, &names); err != nil {
		return nil, storageError(err, "list lines")
	}
	return names, nil
}

// ReplaceLines replaces the production line list.
func (s *Store) ReplaceLines(ctx context.Context, lines []string, opts ...ReplaceOption) (int64, error) {
	return s.replaceAll(ctx, KindLines, opts, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*lineRecord)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return storageError(err, "clear lines")
		}
		names := dedupe(lines)
		if len(names) == 0 {
			return nil
		}
		recs := make([]lineRecord, 0, len(names))
		for i, name := range names {
			recs = append(recs, lineRecord{Name: name, Position: i})
		}
		if _, err := tx.NewInsert().Model(&recs).Exec(ctx); err != nil {
			return storageError(err, "insert lines")
		}
		return nil
	})
}

// Roles returns the configured role names in order.
func (s *Store) Roles(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.NewSelect().
		Model((*roleRecord)(nil)).
		Column("name").
		OrderExpr("position ASC").
		Scan(ctx, &names); err != nil {
		return nil, storageError(err, "list roles")
	}
	return names, nil
}

// ReplaceRoles replaces the role list.
func (s *Store) ReplaceRoles(ctx context.Context, roles []string, opts ...ReplaceOption) (int64, error) {
	return s.replaceAll(ctx, KindRoles, opts, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*roleRecord)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return storageError(err, "clear roles")
		}
		names := dedupe(roles)
		if len(names) == 0 {
			return nil
		}
		recs := make([]roleRecord, 0, len(names))
		for i, name := range names {
			recs = append(recs, roleRecord{Name: name, Position: i})
		}
		if _, err := tx.NewInsert().Model(&recs).Exec(ctx); err != nil {
			return storageError(err, "insert roles")
		}
		return nil
	})
}

// Permissions returns every explicit permission row.
func (s *Store) Permissions(ctx context.Context) ([]permission.Rule, error) {
	return readPermissions(ctx, s.db)
}

func readPermissions(ctx context.Context, db bun.IDB) ([]permission.Rule, error) {
	var recs []permissionRecord
	if err := db.NewSelect().
		Model(&recs).
		OrderExpr("role ASC, module ASC").
		Scan(ctx); err != nil {
		return nil, storageError(err, "list permissions")
	}
	out := make([]permission.Rule, 0, len(recs))
	for _, rec := range recs {
		m, err := permission.ParseModule(rec.Module)
		if err != nil {
			continue
		}
		out = append(out, permission.Rule{Role: rec.Role, Module: m, Allowed: rec.Allowed})
	}
	return out, nil
}

// ReplacePermissions replaces the permission table. A later row for the
// same role and module wins.
func (s *Store) ReplacePermissions(ctx context.Context, rules []permission.Rule, opts ...ReplaceOption) (int64, error) {
	return s.replaceAll(ctx, KindPermissions, opts, func(ctx context.Context, tx bun.Tx) error {
		return writePermissions(ctx, tx, rules)
	})
}

// TogglePermission flips the explicit row for role and module, creating an
// allowed row when none exists, and returns the new table.
func (s *Store) TogglePermission(ctx context.Context, role string, m permission.Module) ([]permission.Rule, error) {
	var next []permission.Rule
	_, err := s.replaceAll(ctx, KindPermissions, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := readPermissions(ctx, tx)
		if err != nil {
			return err
		}
		next = permission.Toggle(current, role, m)
		return writePermissions(ctx, tx, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func writePermissions(ctx context.Context, tx bun.Tx, rules []permission.Rule) error {
	if _, err := tx.NewDelete().Model((*permissionRecord)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return storageError(err, "clear permissions")
	}

	index := make(map[[2]string]int, len(rules))
	recs := make([]permissionRecord, 0, len(rules))
	for _, r := range rules {
		key := [2]string{r.Role, string(r.Module)}
		rec := permissionRecord{Role: r.Role, Module: string(r.Module), Allowed: r.Allowed}
		if i, ok := index[key]; ok {
			recs[i] = rec
			continue
		}
		index[key] = len(recs)
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return nil
	}
	if _, err := tx.NewInsert().Model(&recs).Exec(ctx); err != nil {
		return storageError(err, "insert permissions")
	}
	return nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
