package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"lidercheck/internal/compliance"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the initial data and the data-driven rules: production lines,
// roles, leadership keywords, the super-admin identity and shift cutoffs.
type Seed struct {
	Lines          []string          `yaml:"lines"`
	Roles          []string          `yaml:"roles"`
	LeaderKeywords []string          `yaml:"leader_keywords"`
	SuperAdmin     SuperAdmin        `yaml:"super_admin"`
	Cutoffs        map[string]string `yaml:"cutoffs"`
	Admin          SeedUser          `yaml:"admin"`
}

// SuperAdmin names the accounts that bypass the permission table.
type SuperAdmin struct {
	Matricula string   `yaml:"matricula"`
	Roles     []string `yaml:"roles"`
}

// SeedUser is the bootstrap administrator.
type SeedUser struct {
	Matricula string `yaml:"matricula"`
	Name      string `yaml:"name"`
	Role      string `yaml:"role"`
	Shift     string `yaml:"shift"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
}

// LoadSeed parses path, or the embedded default when path is empty.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return ParseSeed(defaultSeed)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(b)
}

// ParseSeed decodes a seed document and checks its cutoffs.
func ParseSeed(b []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	if _, err := s.ShiftCutoffs(); err != nil {
		return Seed{}, err
	}
	return s, nil
}

// ShiftCutoffs converts "HH:MM" cutoffs to minutes after midnight. An empty
// map falls back to the defaults.
func (s Seed) ShiftCutoffs() (compliance.Cutoffs, error) {
	if len(s.Cutoffs) == 0 {
		return compliance.DefaultCutoffs, nil
	}
	out := make(compliance.Cutoffs, len(s.Cutoffs))
	for shift, hhmm := range s.Cutoffs {
		t, err := time.Parse("15:04", hhmm)
		if err != nil {
			return nil, fmt.Errorf("parse seed: cutoff for shift %s: %w", shift, err)
		}
		out[shift] = t.Hour()*60 + t.Minute()
	}
	return out, nil
}
