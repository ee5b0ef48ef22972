package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lidercheck/internal/apperr"
	"lidercheck/internal/checklist"
)

var ana = checklist.User{Matricula: "10", Name: "Ana Souza", Role: "Líder de produção", Shift: "1"}

func TestSubmitMaintenanceLogUsesTargetAsLine(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	_, err := a.submitLog(ctx, ana, logRequest{
		ID:   "m1",
		Type: checklist.LogMaintenance,
		Data: map[string]checklist.Response{"o1": checklist.OK},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	l, err := a.submitLog(ctx, ana, logRequest{
		ID:                "m1",
		Type:              checklist.LogMaintenance,
		MaintenanceTarget: "PRENSA-01",
		Data:              map[string]checklist.Response{"o1": checklist.OK, "o2": checklist.NA},
	})
	require.NoError(t, err)
	assert.Equal(t, "PRENSA-01", l.Line)

	stored, err := a.store.Log(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, checklist.LogMaintenance, stored.Type)
	assert.Equal(t, "PRENSA-01", stored.MaintenanceTarget)
	assert.Equal(t, 0, stored.NGCount)
}

func TestSubmitLogRejectsUnknownAnswer(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.submitLog(context.Background(), ana, logRequest{
		ID:   "x",
		Line: "L1",
		Data: map[string]checklist.Response{"i1": "YES"},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSubmitLogKeepsClientDateAndReplacesAnswers(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()
	when := time.Date(2024, time.January, 2, 7, 50, 0, 0, manaus)

	_, err := a.submitLog(ctx, ana, logRequest{
		ID: "x", Line: "L1", Date: &when,
		Data:         map[string]checklist.Response{"i1": checklist.NG},
		EvidenceData: map[string]checklist.Evidence{"i1": {Photo: "data:image/png;base64,AAAA"}},
	})
	require.NoError(t, err)
	_, err = a.submitLog(ctx, ana, logRequest{
		ID: "x", Line: "L1", Date: &when,
		Data: map[string]checklist.Response{"i1": checklist.OK},
	})
	require.NoError(t, err)

	logs, err := a.store.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 0, logs[0].NGCount)
	assert.True(t, logs[0].Date.Equal(when))
}

func TestAuthenticate(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	u, err := a.authenticate(ctx, " admin ", "admin")
	require.NoError(t, err)
	assert.True(t, a.super.Is(u))

	_, err = a.authenticate(ctx, "admin", "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateUserPasswordRules(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()
	_, err := a.register(ctx, leaderReq)
	require.NoError(t, err)

	req := userRequest{Matricula: "10", Name: "Ana Souza", Role: "Supervisor", Shift: "1"}
	require.NoError(t, a.updateUser(ctx, "10", req))
	_, err = a.authenticate(ctx, "10", "segredo")
	require.NoError(t, err)

	req.Password = "novasenha"
	require.NoError(t, a.updateUser(ctx, "10", req))
	_, err = a.authenticate(ctx, "10", "segredo")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = a.authenticate(ctx, "10", "novasenha")
	assert.NoError(t, err)
}

func TestWriteBackupRejectsEmptyName(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.writeBackup("..", []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	path, err := a.writeBackup(`C:\temp\a.xlsx`, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a.backupDir, "a.xlsx"), path)
}

func TestExportCommandWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LIDERCHECK_DB_DRIVER", "sqlite3")
	t.Setenv("LIDERCHECK_DB_DSN", filepath.Join(dir, "lidercheck.db"))
	t.Setenv("LIDERCHECK_LOG_LEVEL", "error")
	t.Setenv("LIDERCHECK_BACKUP_DIR", filepath.Join(dir, "backups"))

	migrate := newRootCommand()
	migrate.SetArgs([]string{"--env-file", filepath.Join(dir, "missing.env"), "migrate"})
	require.NoError(t, migrate.ExecuteContext(context.Background()))

	out := filepath.Join(dir, "semana.xlsx")
	export := newRootCommand()
	export.SetArgs([]string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"export", "--line", "TP_TNP-01", "--shift", "2", "--week", "2024-W10", "--out", out,
	})
	require.NoError(t, export.ExecuteContext(context.Background()))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	info, err := f.GetCellValue("Checklist", "A2")
	require.NoError(t, err)
	assert.Equal(t, "LINHA: TP_TNP-01 | TURNO: 2 | SEMANA: 10 | MÊS: MARÇO | ANO: 2024", info)

	bad := newRootCommand()
	bad.SetArgs([]string{"--env-file", filepath.Join(dir, "missing.env"), "export", "--line", "TP_TNP-01", "--shift", "ALL"})
	assert.Error(t, bad.ExecuteContext(context.Background()))
}

func TestServeRequiresSessionSecret(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LIDERCHECK_DB_DSN", filepath.Join(dir, "lidercheck.db"))
	t.Setenv("LIDERCHECK_SESSION_SECRET", "short")
	t.Setenv("LIDERCHECK_LOG_LEVEL", "error")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--env-file", filepath.Join(dir, "missing.env"), "serve"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")

	_, statErr := os.Stat(filepath.Join(dir, "lidercheck.db"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestWeeklyReportNormalisesShift(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	_, err := a.weeklyReport(ctx, "TP_TNP-01", "all", "2024-W10")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	file, err := a.weeklyReport(ctx, "TP_TNP-01", " 1 ", "2024-W10")
	require.NoError(t, err)
	assert.Equal(t, "Checklist_TP_TNP-01_Turno1_W10.xlsx", file.Name)
}
