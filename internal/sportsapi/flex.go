package sportsapi

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString decodes a JSON string, number or boolean into its string form.
// Providers disagree on whether ids and odds are quoted.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = FlexString(num.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*s = FlexString(strconv.FormatBool(b))
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// FlexInt decodes a JSON number or numeric string. Anything else leaves it unset.
type FlexInt struct {
	Value int
	Valid bool
}

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		*i = FlexInt{}
		return nil
	}
	if s == "" {
		*i = FlexInt{}
		return nil
	}
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		*i = FlexInt{}
		return nil
	}
	*i = FlexInt{Value: int(f), Valid: true}
	return nil
}

// Ptr returns the value as a pointer, nil when unset.
func (i FlexInt) Ptr() *int {
	if !i.Valid {
		return nil
	}
	v := i.Value
	return &v
}
