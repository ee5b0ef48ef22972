package store

import (
	"encoding/json"
	"fmt"

	"lidercheck/internal/checklist"
)

// payload is the single serialized blob stored in logs.data.
type payload struct {
	Answers           map[string]checklist.Response `json:"answers"`
	Evidence          map[string]checklist.Evidence `json:"evidence,omitempty"`
	Type              checklist.LogType             `json:"type,omitempty"`
	MaintenanceTarget string                        `json:"maintenanceTarget,omitempty"`
}

func encodePayload(l checklist.Log) (string, error) {
	p := payload{
		Answers:           l.Data,
		Evidence:          l.EvidenceData,
		Type:              l.Type.Normalize(),
		MaintenanceTarget: l.MaintenanceTarget,
	}
	if p.Answers == nil {
		p.Answers = map[string]checklist.Response{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode log payload: %w", err)
	}
	return string(b), nil
}

// decodePayload reads a stored blob once. Rows written before the bundled
// format hold the bare answers map, which is detected by the missing
// "answers" key.
func decodePayload(raw string) (payload, error) {
	var p payload
	if raw == "" {
		p.Type = checklist.LogProduction
		return p, nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return p, fmt.Errorf("decode log payload: %w", err)
	}
	if _, ok := keys["answers"]; !ok {
		if err := json.Unmarshal([]byte(raw), &p.Answers); err != nil {
			return p, fmt.Errorf("decode legacy log payload: %w", err)
		}
		p.Type = checklist.LogProduction
		return p, nil
	}

	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("decode log payload: %w", err)
	}
	p.Type = p.Type.Normalize()
	return p, nil
}
