package storage

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"dancelog/internal/core"
)

// recordJSON is the persisted wire shape of a single record. It matches the
// original localStorage layout: amount as a bare JSON number, the custom
// institution omitted unless set, timestamp in epoch milliseconds.
type recordJSON struct {
	ID                string      `json:"id"`
	Date              string      `json:"date"`
	Institution       string      `json:"institution"`
	CustomInstitution string      `json:"customInstitution,omitempty"`
	Amount            json.Number `json:"amount"`
	Timestamp         int64       `json:"timestamp"`
}

// encodeRecords serializes the whole collection as one JSON array.
// Encoding is deterministic: fixed field order, canonical decimal rendering.
func encodeRecords(records []core.Record) ([]byte, error) {
	rows := make([]recordJSON, len(records))
	for i, r := range records {
		row := recordJSON{
			ID:          r.ID,
			Date:        r.Date,
			Institution: string(r.Institution.Name()),
			Amount:      json.Number(r.Amount.String()),
			Timestamp:   r.Timestamp,
		}
		if custom, ok := r.Institution.CustomName(); ok {
			row.CustomInstitution = custom
		}
		rows[i] = row
	}
	return json.Marshal(rows)
}

func decodeRecords(payload []byte) ([]core.Record, error) {
	var rows []recordJSON
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	records := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		amount := decimal.Zero
		if row.Amount != "" {
			d, err := decimal.NewFromString(row.Amount.String())
			if err != nil {
				return nil, fmt.Errorf("record %s: parse amount %q: %w", row.ID, row.Amount, err)
			}
			amount = d
		}
		records = append(records, core.Record{
			ID:          row.ID,
			Date:        row.Date,
			Institution: decodeInstitution(row.Institution, row.CustomInstitution),
			Amount:      amount,
			Timestamp:   row.Timestamp,
		})
	}
	return records, nil
}

// decodeInstitution tolerates legacy payloads. An institution string that is
// not one of the known names is preserved as a custom label rather than
// dropped, so a record outlives changes to the fixed set.
func decodeInstitution(name, custom string) core.Institution {
	if inst, err := core.ResolveInstitution(core.InstitutionName(name), custom); err == nil {
		return inst
	}
	if inst, err := core.CustomInstitution(custom); err == nil {
		return inst
	}
	if inst, err := core.CustomInstitution(name); err == nil {
		return inst
	}
	// Both name and custom were empty; fall back to the generic 其他 label.
	inst, _ := core.CustomInstitution(string(core.Other))
	return inst
}
