package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexibleID is a positive integer identifier that accepts either a JSON number or a numeric string.
// The voice platform echoes dynamic variables back as text, so both forms occur. null and "" decode to 0.
type FlexibleID int64

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*id = 0
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*id = 0
			return nil
		}
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", raw)
		}
		*id = FlexibleID(parsed)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	parsed, err := number.Int64()
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = FlexibleID(parsed)
	return nil
}

// Int64 returns the identifier, or 0 when it is not a positive value.
func (id FlexibleID) Int64() int64 {
	if id <= 0 {
		return 0
	}
	return int64(id)
}

func (id FlexibleID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// FlexibleTime accepts a unix timestamp in seconds (number or numeric string) or an RFC 3339 string.
type FlexibleTime struct {
	time.Time
}

func (t *FlexibleTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			t.Time = time.Time{}
			return nil
		}
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
			t.Time = time.Unix(secs, 0).UTC()
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q", raw)
		}
		t.Time = parsed.UTC()
		return nil
	}

	var secs json.Number
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	value, err := secs.Int64()
	if err != nil {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	t.Time = time.Unix(value, 0).UTC()
	return nil
}
