// Copyright 2025 The schooldiff Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cel

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

var (
	// ErrUnsupportedType is returned when the type is not supported.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrNotBoolean is returned when a filter does not evaluate to a bool.
	ErrNotBoolean = errors.New("expression did not evaluate to a bool")
)

// GoNativeType transforms CEL output into corresponding Go types
func GoNativeType(v ref.Val) (interface{}, error) {
	switch v.Type() {
	case types.BoolType:
		return v.Value().(bool), nil
	case types.IntType:
		return v.Value().(int64), nil
	case types.UintType:
		return v.Value().(uint64), nil
	case types.DoubleType:
		return v.Value().(float64), nil
	case types.StringType:
		return v.Value().(string), nil
	case types.ListType:
		return v.ConvertToNative(reflect.TypeOf([]interface{}{}))
	case types.MapType:
		return v.ConvertToNative(reflect.TypeOf(map[string]interface{}{}))
	case types.NullType:
		return nil, nil
	default:
		return v.Value(), fmt.Errorf("%w: %v", ErrUnsupportedType, v.Type())
	}
}

// AsBool returns the value of a bool result. The error for any other result
// carries the value it evaluated to.
func AsBool(v ref.Val) (bool, error) {
	if v.Type() == types.BoolType {
		return v.Value().(bool), nil
	}
	native, err := GoNativeType(v)
	if err != nil {
		return false, fmt.Errorf("%w: got %v", ErrNotBoolean, v.Type())
	}
	return false, fmt.Errorf("%w: got %v %v", ErrNotBoolean, v.Type(), native)
}
