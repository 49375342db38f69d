package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNumber Kind = iota + 1
	KindBool
	KindCategory
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindCategory:
		return "category"
	default:
		return "invalid"
	}
}

// Value is a raw feature value: a measurement, a flag, or an enumerated state.
// The zero Value is invalid and normalizes to 0.
type Value struct {
	kind Kind
	num  float64
	flag bool
	cat  string
}

// Number wraps a measurement.
func Number(v float64) Value {
	return Value{kind: KindNumber, num: v}
}

// Bool wraps a yes/no flag.
func Bool(v bool) Value {
	return Value{kind: KindBool, flag: v}
}

// Category wraps an enumerated state such as a chest pain type.
func Category(v string) Value {
	return Value{kind: KindCategory, cat: v}
}

func (v Value) Kind() Kind {
	return v.kind
}

// Float is the measurement; 0 unless Kind is KindNumber.
func (v Value) Float() float64 {
	return v.num
}

// Flag is the flag; false unless Kind is KindBool.
func (v Value) Flag() bool {
	return v.flag
}

// Text is the category; empty unless Kind is KindCategory.
func (v Value) Text() string {
	return v.cat
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindCategory:
		return v.cat
	default:
		return "<invalid>"
	}
}

// ParseValue interprets command-line text: true/false become flags, anything
// that parses as a finite float becomes a number, the rest is a category.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, "true"):
		return Bool(true)
	case strings.EqualFold(s, "false"):
		return Bool(false)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && finite(f) {
		return Number(f)
	}
	return Category(s)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.flag)
	case KindCategory:
		return json.Marshal(v.cat)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("scoring: empty feature value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Category(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case 'n', '{', '[':
		return fmt.Errorf("scoring: unsupported feature value %s", data)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = Number(f)
	}
	return nil
}

// Features maps feature names to raw values. Absent names contribute nothing.
type Features map[Feature]Value
