package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ItemFlag is one named signal attached to an item, with supporting evidence
// from the extraction provider.
type ItemFlag struct {
	Detected bool   `json:"detected"`
	Evidence string `json:"evidence,omitempty"`
}

// FlagMap is an open-ended mapping from flag name to ItemFlag. Profiles may
// introduce new flag names at any time, so the key set is deliberately not a
// closed enum. Stored as a jsonb column.
type FlagMap map[string]ItemFlag

// Value implements driver.Valuer so FlagMap can be written as jsonb.
func (f FlagMap) Value() (driver.Value, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner so FlagMap can be read back from jsonb.
func (f *FlagMap) Scan(src interface{}) error {
	if src == nil {
		*f = FlagMap{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("FlagMap.Scan: unsupported type %T", src)
	}
	if len(data) == 0 {
		*f = FlagMap{}
		return nil
	}
	return json.Unmarshal(data, f)
}

// IsDetected reports whether the named flag exists and is detected.
func (f FlagMap) IsDetected(name string) bool {
	flag, ok := f[name]
	return ok && flag.Detected
}
