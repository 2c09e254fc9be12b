package vardate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type wireDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// MarshalJSON renders {"year":Y,"month":M,"day":D} so clients can tell the
// known components apart.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDate{Year: d.Year, Month: d.Month, Day: d.Day})
}

// UnmarshalJSON accepts either the object form or the YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}

	var w wireDate
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("vardate: %w", err)
	}
	parsed, err := New(w.Year, w.Month, w.Day)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
