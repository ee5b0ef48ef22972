package checklist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLeaderKeywords(t *testing.T) {
	k := LeaderKeywords(DefaultLeaderKeywords)

	cases := map[string]bool{
		"Líder de produção":           true,
		"LIDER DO REPARO":             true,
		"Supervisor":                  true,
		"Coordenador":                 true,
		"Operador multifuncional":     false,
		"Técnico de Manutenção":       false,
		"Líder da Qualidade(OQC)":     true,
		"":                            false,
	}
	for role, want := range cases {
		assert.Equal(t, want, k.IsLeader(role), role)
	}
}

func TestLeaderKeywordsAreData(t *testing.T) {
	k := LeaderKeywords{"encarregado"}
	assert.True(t, k.IsLeader("Encarregado de turno"))
	assert.False(t, k.IsLeader("Supervisor"))
}

func TestLeadersPreservesOrder(t *testing.T) {
	users := []User{
		{Matricula: "1", Role: "Supervisor"},
		{Matricula: "2", Role: "Operador"},
		{Matricula: "3", Role: "Líder de produção"},
	}
	got := LeaderKeywords(DefaultLeaderKeywords).Leaders(users)
	assert.Equal(t, []string{"1", "3"}, []string{got[0].Matricula, got[1].Matricula})
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Maria", FirstName("Maria Silva"))
	assert.Equal(t, "João", FirstName(" João "))
	assert.Equal(t, "", FirstName(""))
}

func TestTypeDefaults(t *testing.T) {
	assert.Equal(t, ItemLeader, ItemType("").Normalize())
	assert.Equal(t, ItemMaintenance, ItemMaintenance.Normalize())
	assert.Equal(t, LogProduction, LogType("").Normalize())
}

func TestLogDayAndCountNG(t *testing.T) {
	loc := time.FixedZone("UTC-04:00", -4*3600)
	l := Log{
		Date: time.Date(2024, 1, 3, 2, 0, 0, 0, time.UTC),
		Data: map[string]Response{"a": NG, "b": OK, "c": NG, "d": NA},
	}
	assert.Equal(t, "2024-01-02", l.Day(loc))
	assert.Equal(t, 2, l.CountNG())
}

func TestResponseValid(t *testing.T) {
	assert.True(t, OK.Valid())
	assert.True(t, NA.Valid())
	assert.False(t, Response("maybe").Valid())
}
