package entity

import (
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParamKind is the runtime kind of a strategy parameter value.
type ParamKind uint8

const (
	ParamKindUnset ParamKind = iota
	ParamKindNumber
	ParamKindBool
	ParamKindString
)

func (k ParamKind) String() string {
	switch k {
	case ParamKindNumber:
		return "number"
	case ParamKindBool:
		return "boolean"
	case ParamKindString:
		return "string"
	default:
		return "unset"
	}
}

// ParamValue is a strongly typed strategy parameter value.
type ParamValue struct {
	kind ParamKind
	num  float64
	b    bool
	s    string
}

// ParamValues maps parameter IDs to values.
type ParamValues map[string]ParamValue

func NumberParam(v float64) ParamValue { return ParamValue{kind: ParamKindNumber, num: v} }
func BoolParam(v bool) ParamValue       { return ParamValue{kind: ParamKindBool, b: v} }
func StringParam(v string) ParamValue   { return ParamValue{kind: ParamKindString, s: v} }

func (v ParamValue) Kind() ParamKind { return v.kind }
func (v ParamValue) IsSet() bool     { return v.kind != ParamKindUnset }

// Float returns the numeric value. Numeric strings (fiat amounts) are parsed.
func (v ParamValue) Float() (float64, bool) {
	switch v.kind {
	case ParamKindNumber:
		return v.num, true
	case ParamKindString:
		f, err := strconv.ParseFloat(v.s, 64)
		return f, err == nil
	}
	return 0, false
}

func (v ParamValue) BoolValue() (bool, bool) {
	return v.b, v.kind == ParamKindBool
}

func (v ParamValue) StringValue() (string, bool) {
	return v.s, v.kind == ParamKindString
}

// Equal is exact equality: kinds must match.
func (v ParamValue) Equal(o ParamValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ParamKindNumber:
		return v.num == o.num
	case ParamKindBool:
		return v.b == o.b
	case ParamKindString:
		return v.s == o.s
	}
	return true
}

func (v ParamValue) String() string {
	switch v.kind {
	case ParamKindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ParamKindBool:
		return strconv.FormatBool(v.b)
	case ParamKindString:
		return v.s
	}
	return ""
}

// Interface returns the value as a plain Go value (float64, bool, string or nil).
func (v ParamValue) Interface() any {
	switch v.kind {
	case ParamKindNumber:
		return v.num
	case ParamKindBool:
		return v.b
	case ParamKindString:
		return v.s
	}
	return nil
}

func (v ParamValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *ParamValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParamValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParamValueOf converts a decoded JSON/YAML scalar into a ParamValue.
func ParamValueOf(raw any) (ParamValue, error) {
	switch t := raw.(type) {
	case nil:
		return ParamValue{}, nil
	case bool:
		return BoolParam(t), nil
	case string:
		return StringParam(t), nil
	case float64:
		return NumberParam(t), nil
	case float32:
		return NumberParam(float64(t)), nil
	case int:
		return NumberParam(float64(t)), nil
	case int64:
		return NumberParam(float64(t)), nil
	case uint64:
		return NumberParam(float64(t)), nil
	case ParamValue:
		return t, nil
	}
	return ParamValue{}, fmt.Errorf("unsupported parameter value type %T", raw)
}
