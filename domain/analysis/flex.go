package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexString decodes from a JSON string, number or bool. Model output is not
// consistent about quoting ids, years and chapter numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*f = FlexString(buf.String())
	default:
		*f = FlexString(data)
	}
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexNumber decodes from a JSON number or a numeric string such as "75" or "75%".
type FlexNumber float64

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
		s = strings.Replace(s, ",", ".", 1)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*n = FlexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = FlexNumber(v)
	return nil
}

func (n FlexNumber) Float() float64 { return float64(n) }

// FlexStrings are decoded element-wise with FlexString semantics. A single
// scalar is accepted as a one-element list.
type FlexStrings []string

func (l *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] != '[' {
		var one FlexString
		if err := one.UnmarshalJSON(data); err != nil {
			return err
		}
		if one == "" {
			*l = nil
		} else {
			*l = FlexStrings{string(one)}
		}
		return nil
	}
	var items []FlexString
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(FlexStrings, 0, len(items))
	for _, item := range items {
		out = append(out, string(item))
	}
	*l = out
	return nil
}
