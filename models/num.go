package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Float is a float64 that tolerates the provider's loose numeric encoding.
// Values arrive as JSON numbers, numeric strings (sometimes with thousand
// separators), null, or placeholder junk such as "-". Anything that cannot
// be parsed decodes to 0 instead of failing the whole payload.
type Float float64

// Int is the integer counterpart of Float. The provider occasionally sends
// counts as floats ("12.0"), so parsing goes through float64 and truncates.
type Int int64

func (f *Float) UnmarshalJSON(data []byte) error {
	*f = Float(parseLooseNumber(data))
	return nil
}

func (i *Int) UnmarshalJSON(data []byte) error {
	*i = Int(parseLooseNumber(data))
	return nil
}

func parseLooseNumber(data []byte) float64 {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return 0
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return 0
		}
		s = strings.TrimSpace(strings.ReplaceAll(str, ",", ""))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
