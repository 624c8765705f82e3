// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package data

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// ValueNew turns a native go value into a leaf Value. Integer types
// are normalized so that values created from different go types
// compare equal: non-negative integers are held as uint64 and negative
// ones as int64. ValueNew panics if the type cannot be held by a leaf.
func ValueNew(data interface{}) *Value {
	switch d := data.(type) {
	case *Value:
		return d
	case empty:
		return _empty
	case int, int8, int16, int32, int64:
		return &Value{data: inferIntType(convertToInt64(d))}
	case uint, uint8, uint16, uint32, uint64:
		return &Value{data: convertToUint64(d)}
	case float32:
		return &Value{data: float64(d)}
	case float64, bool, string:
		return &Value{data: d}
	case []interface{}:
		// RFC7951 encodes the empty type as [null].
		if len(d) == 1 && d[0] == nil {
			return _empty
		}
	}
	panic(fmt.Errorf("cannot create value from %T, invalid type", data))
}

// Value is a leaf value. Values may be int64, uint64, float64, string,
// bool or Empty. Values are immutable.
type Value struct {
	data interface{}
}

var int64Type = reflect.TypeOf(int64(0))

func convertToInt64(v interface{}) int64 {
	return reflect.ValueOf(v).
		Convert(int64Type).
		Interface().(int64)
}

var uint64Type = reflect.TypeOf(uint64(0))

func convertToUint64(v interface{}) uint64 {
	return reflect.ValueOf(v).
		Convert(uint64Type).
		Interface().(uint64)
}

func inferIntType(v int64) interface{} {
	if v >= 0 {
		return uint64(v)
	}
	return v
}

// ToInterface returns the held data directly.
func (val *Value) ToInterface() interface{} {
	if val == nil {
		return nil
	}
	return val.data
}

// ToNative returns the value as a go native value. The empty value is
// returned as []interface{}{nil}, matching its RFC7951 encoding.
func (val *Value) ToNative() interface{} {
	if val.IsEmpty() {
		return []interface{}{nil}
	}
	return val.data
}

// IsEmpty returns whether the value is the Empty value.
func (val *Value) IsEmpty() bool {
	_, isEmpty := val.data.(empty)
	return isEmpty
}

// IsString returns if the data stored in the value is a string.
func (val *Value) IsString() bool {
	_, isString := val.data.(string)
	return isString
}

// AsString returns a string if the value is a string and panics otherwise.
func (val *Value) AsString() string {
	return val.data.(string)
}

// ToString returns the value as a string or the supplied default.
func (val *Value) ToString(defaultVal ...string) string {
	s, isString := val.data.(string)
	if isString {
		return s
	}
	if len(defaultVal) != 0 {
		return defaultVal[0]
	}
	return ""
}

// IsInt64 returns if the value fits in an int64.
func (val *Value) IsInt64() bool {
	switch v := val.data.(type) {
	case int64:
		return true
	case uint64:
		return v <= (1<<63)-1
	}
	return false
}

// AsInt64 returns the value as an int64 and panics if it is not an integer.
func (val *Value) AsInt64() int64 {
	return convertToInt64(val.data)
}

// IsUint64 returns if the value is a non-negative integer.
func (val *Value) IsUint64() bool {
	_, isUint := val.data.(uint64)
	return isUint
}

// AsUint64 returns the value as a uint64 and panics if it is not an integer.
func (val *Value) AsUint64() uint64 {
	return convertToUint64(val.data)
}

// IsFloat returns if the value is a float64.
func (val *Value) IsFloat() bool {
	_, isFloat := val.data.(float64)
	return isFloat
}

// AsFloat returns the value as a float64 and panics if it is not numeric.
func (val *Value) AsFloat() float64 {
	return reflect.ValueOf(val.data).
		Convert(reflect.TypeOf(float64(0))).
		Interface().(float64)
}

// IsBoolean returns if the value is a bool.
func (val *Value) IsBoolean() bool {
	_, isBool := val.data.(bool)
	return isBool
}

// AsBoolean returns a bool if the value is a bool or if the value is Empty
// it returns true.
func (val *Value) AsBoolean() bool {
	if val.IsEmpty() {
		return true
	}
	return val.data.(bool)
}

// RFC7951String converts the value to its canonical string form. This
// is the form used in instance-identifier predicates, so two values
// address the same list entry exactly when their RFC7951Strings match.
func (val *Value) RFC7951String() string {
	if val == nil {
		return "null"
	}
	switch d := val.data.(type) {
	case empty:
		return d.RFC7951String()
	case uint64:
		return strconv.FormatUint(d, 10)
	case int64:
		return strconv.FormatInt(d, 10)
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(d)
	case string:
		return d
	default:
		panic(errors.New("cannot convert value to string, invalid type"))
	}
}

// typeTag identifies the type of the held data.
func (val *Value) typeTag() byte {
	if val == nil {
		return 'n'
	}
	switch val.data.(type) {
	case empty:
		return 'e'
	case uint64:
		return 'u'
	case int64:
		return 'i'
	case float64:
		return 'f'
	case bool:
		return 'b'
	default:
		return 's'
	}
}

// Equal provides an implementation of equality for Values.
func (val *Value) Equal(other *Value) bool {
	if val == nil || other == nil {
		return val == other
	}
	return val.data == other.data
}

// String returns a go string representation of the Value.
func (val *Value) String() string {
	return fmt.Sprintf("%v", val.ToInterface())
}

var _empty = &Value{data: empty{}}

// Empty returns the constant empty value
func Empty() *Value {
	return _empty
}

type empty struct{}

func (empty) RFC7951String() string {
	return "[null]"
}

func (empty) String() string {
	return "[null]"
}
