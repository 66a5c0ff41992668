package feed

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"RiskPulse/internal/domain/models"
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/util"
)

// parseCSV decodes a header-first CSV payload into observations. Rows with an
// unparseable date are dropped; rows with an unparseable value are kept as NA
// so gaps stay visible to the window stats.
func parseCSV(raw []byte, spec config.SeriesSpec) ([]models.Observation, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	dateIdx, valueIdx := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case strings.ToLower(spec.DateField):
			dateIdx = i
		case strings.ToLower(spec.ValueField):
			valueIdx = i
		}
	}
	if dateIdx < 0 || valueIdx < 0 {
		return nil, fmt.Errorf("csv header missing %q or %q", spec.DateField, spec.ValueField)
	}

	var out []models.Observation
	for _, row := range rows[1:] {
		if dateIdx >= len(row) || valueIdx >= len(row) {
			continue
		}
		obs, ok := buildObservation(spec, row[dateIdx], row[valueIdx])
		if ok {
			out = append(out, obs)
		}
	}
	return out, nil
}

// parseJSON decodes either a top-level array of objects or an object whose
// first array-valued field holds the rows.
func parseJSON(raw []byte, spec config.SeriesSpec) ([]models.Observation, error) {
	rows, err := jsonRows(raw)
	if err != nil {
		return nil, err
	}

	var out []models.Observation
	for _, row := range rows {
		dateRaw, ok := row[spec.DateField]
		if !ok {
			continue
		}
		obs, ok := buildObservation(spec, jsonScalar(dateRaw), jsonScalar(row[spec.ValueField]))
		if ok {
			out = append(out, obs)
		}
	}
	return out, nil
}

func jsonRows(raw []byte) ([]map[string]json.RawMessage, error) {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	for _, v := range envelope {
		if err := json.Unmarshal(v, &rows); err == nil && rows != nil {
			return rows, nil
		}
	}
	return nil, fmt.Errorf("json payload has no row array")
}

// jsonScalar renders a raw JSON scalar as the string the value parser expects.
func jsonScalar(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

func buildObservation(spec config.SeriesSpec, dateRaw, valueRaw string) (models.Observation, bool) {
	t, ok := util.ParseObservationDate(strings.TrimSpace(dateRaw), spec.DateLayout)
	if !ok {
		return models.Observation{}, false
	}
	obs := models.Observation{
		SeriesID:  spec.ID,
		DataDate:  models.DateOf(t),
		SourceURL: spec.URL,
		Notes:     spec.Notes,
	}
	if v, ok := util.ParseObservationValue(strings.TrimSpace(valueRaw)); ok {
		obs.Value = models.Some(v)
	} else {
		obs.Value = models.None()
	}
	return obs, true
}
