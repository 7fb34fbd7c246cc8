package evaluator

import (
	"fmt"
	"strconv"
)

// Conversions between runtime values and the plain Go values the
// json and yaml codecs traffic in.

func valueToGo(v Value) (interface{}, error) {
	switch v := v.(type) {
	case *Nil:
		return nil, nil
	case *Boolean:
		return v.Value, nil
	case *Integer:
		return v.Value, nil
	case *Float:
		return v.Value, nil
	case *String:
		return v.Value, nil
	case *Keyword:
		return v.Name(), nil
	case *Symbol:
		return v.Name(), nil
	case *List:
		return seqToGo(v.Items)
	case *Vector:
		return seqToGo(v.Items)
	case *Map:
		out := make(map[string]interface{}, v.Entries.Len())
		var convErr error
		v.Entries.Each(func(k, val Value) {
			if convErr != nil {
				return
			}
			g, err := valueToGo(val)
			if err != nil {
				convErr = err
				return
			}
			out[mapKeyString(k)] = g
		})
		if convErr != nil {
			return nil, convErr
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s has no data representation", v.Type())
}

func seqToGo(s *Seq) ([]interface{}, error) {
	out := make([]interface{}, 0, s.Len())
	var convErr error
	s.Each(func(v Value) {
		if convErr != nil {
			return
		}
		g, err := valueToGo(v)
		if err != nil {
			convErr = err
			return
		}
		out = append(out, g)
	})
	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}

func mapKeyString(k Value) string {
	switch k := k.(type) {
	case *Keyword:
		return k.Name()
	case *Symbol:
		return k.Name()
	case *String:
		return k.Value
	case *Integer:
		return strconv.FormatInt(k.Value, 10)
	case *Boolean:
		return strconv.FormatBool(k.Value)
	}
	return k.Inspect()
}

// goToValue converts decoded json/yaml data to runtime values. Object
// keys come back as keywords so decoded maps destructure like literal
// ones.
func goToValue(e *Evaluator, data interface{}) (Value, error) {
	switch v := data.(type) {
	case nil:
		return NIL, nil
	case bool:
		return nativeBool(v), nil
	case int:
		return &Integer{Value: int64(v)}, nil
	case int64:
		return &Integer{Value: v}, nil
	case uint64:
		return &Integer{Value: int64(v)}, nil
	case float64:
		if v == float64(int64(v)) {
			return &Integer{Value: int64(v)}, nil
		}
		return &Float{Value: v}, nil
	case string:
		return &String{Value: v}, nil
	case []interface{}:
		items := make([]Value, len(v))
		for i, item := range v {
			val, err := goToValue(e, item)
			if err != nil {
				return nil, err
			}
			items[i] = val
		}
		return NewVector(items...), nil
	case map[string]interface{}:
		m := EmptyMap()
		for k, item := range v {
			val, err := goToValue(e, item)
			if err != nil {
				return nil, err
			}
			m = m.Put(e.KeywordVal(k), val)
		}
		return &Map{Entries: m}, nil
	case map[interface{}]interface{}:
		m := EmptyMap()
		for k, item := range v {
			val, err := goToValue(e, item)
			if err != nil {
				return nil, err
			}
			m = m.Put(e.KeywordVal(fmt.Sprintf("%v", k)), val)
		}
		return &Map{Entries: m}, nil
	}
	return nil, fmt.Errorf("unsupported data value type %T", data)
}
