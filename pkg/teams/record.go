package teams

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// UnknownName is used when a record carries neither a nickname nor a name.
const UnknownName = "Unknown"

// Record represents one team as returned by the TBA /teams/{page} endpoint.
// Pointer fields are nil when the key is missing or JSON null.
type Record struct {
	// Key is the TBA team key (e.g. "frc254").
	Key string `json:"key"`

	// TeamNumber is the unique identifier used as the table key.
	TeamNumber *int64 `json:"team_number"`

	// Nickname is the team's display name (preferred).
	Nickname *string `json:"nickname"`

	// Name is the team's official, usually sponsor-laden, name (fallback).
	Name *string `json:"name"`
}

// DisplayName resolves the name written to the table: nickname, then name,
// then UnknownName.
func DisplayName(r Record) string {
	if r.Nickname != nil {
		return *r.Nickname
	}
	if r.Name != nil {
		return *r.Name
	}
	return UnknownName
}

// UnmarshalJSON decodes a record leniently so one odd entry never fails a
// whole page. team_number accepts integers, integral floats and numeric
// strings; anything else decodes as nil and Build skips the record.
// Non-string names keep their raw JSON text. A non-object element decodes
// as an empty Record.
func (r *Record) UnmarshalJSON(data []byte) error {
	*r = Record{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var raw struct {
		Key        json.RawMessage `json:"key"`
		TeamNumber json.RawMessage `json:"team_number"`
		Nickname   json.RawMessage `json:"nickname"`
		Name       json.RawMessage `json:"name"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	if key := lenientString(raw.Key); key != nil {
		r.Key = *key
	}
	r.TeamNumber = parseTeamNumber(raw.TeamNumber)
	r.Nickname = lenientString(raw.Nickname)
	r.Name = lenientString(raw.Name)
	return nil
}

// parseTeamNumber returns nil for missing, null or non-integer values.
func parseTeamNumber(raw json.RawMessage) *int64 {
	if len(raw) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}

	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

func lenientString(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}

	text := string(raw)
	return &text
}
