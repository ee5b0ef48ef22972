package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lidercheck/internal/compliance"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, -4*time.Hour, cfg.UTCOffset)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
	assert.Equal(t, 1000, cfg.LogLimit)
	assert.Equal(t, 500, cfg.MeetingLimit)
	assert.Equal(t, compliance.FirstFound, cfg.Tie())
}

func TestLoadFromEnvAndDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LIDERCHECK_TIE_BREAK=recent\nLIDERCHECK_ADDR=:9000\n"), 0o600))

	t.Setenv("LIDERCHECK_ADDR", ":8080")
	t.Setenv("LIDERCHECK_UTC_OFFSET", "-3h")
	// Registers a restore of the unset state before dotenv fills it in.
	t.Setenv("LIDERCHECK_TIE_BREAK", "")
	require.NoError(t, os.Unsetenv("LIDERCHECK_TIE_BREAK"))

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, -3*time.Hour, cfg.UTCOffset)
	assert.Equal(t, compliance.MostRecent, cfg.Tie())
}

func TestParseEnvWrapsErrors(t *testing.T) {
	t.Setenv("LIDERCHECK_LOG_LIMIT", "many")

	var cfg Config
	err := ParseEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	base := Config{DBDriver: "sqlite3", TieBreak: "first", SessionIdle: time.Minute}
	require.NoError(t, base.Validate())

	bad := base
	bad.DBDriver = "mysql"
	assert.Error(t, bad.Validate())

	bad = base
	bad.TieBreak = "random"
	assert.Error(t, bad.Validate())

	bad = base
	bad.CSRFKey = "short"
	assert.Error(t, bad.Validate())

	bad = base
	bad.UTCOffset = 30 * time.Hour
	assert.Error(t, bad.Validate())

	assert.Error(t, base.RequireSessionSecret())
	base.SessionSecret = "0123456789abcdef"
	assert.NoError(t, base.RequireSessionSecret())
}

func TestDefaultSeed(t *testing.T) {
	s, err := LoadSeed("")
	require.NoError(t, err)

	assert.Equal(t, []string{"TP_TNP-01", "TP_TNP-02", "TP_TNP-03", "TP_SEC-01", "TP_SEC-02"}, s.Lines)
	assert.Len(t, s.Roles, 13)
	assert.Contains(t, s.Roles, "Líder da Qualidade(OQC)")
	assert.Equal(t, []string{"lider", "líder", "supervisor", "coordenador"}, s.LeaderKeywords)
	assert.Equal(t, "admin", s.SuperAdmin.Matricula)
	assert.Equal(t, "admin", s.Admin.Password)

	cutoffs, err := s.ShiftCutoffs()
	require.NoError(t, err)
	assert.Equal(t, compliance.DefaultCutoffs, cutoffs)
}

func TestSeedFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lines: [A, B]\ncutoffs:\n  \"1\": \"06:15\"\n"), 0o600))

	s, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, s.Lines)

	cutoffs, err := s.ShiftCutoffs()
	require.NoError(t, err)
	assert.Equal(t, compliance.Cutoffs{"1": 375}, cutoffs)

	_, err = ParseSeed([]byte("cutoffs:\n  \"1\": \"7h\"\n"))
	assert.Error(t, err)
}
