package wrappers

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Token is implemented by enumerated option values that map to a fixed
// command-line literal.
type Token interface {
	Token() (string, bool)
}

// Args translates an options struct into a child-process argument vector.
//
// Each emitted field carries a `flag` tag naming the command-line flag. The
// field's Go type selects the rendering:
//
//	bool       bare flag when true
//	string     flag value when non-empty
//	*T         flag value when non-nil
//	[]T        list:"repeat" (default) flag v1 flag v2
//	           list:"join"   flag v1<sep>v2 (sep tag, default ",")
//	           list:"spread" flag v1 v2
//	           list:"tokens" each element's Token as a bare flag
//
// Fields without a flag tag, or tagged flag:"-", are skipped.
func Args(opts any) ([]string, error) {
	v := reflect.Indirect(reflect.ValueOf(opts))
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("options must be a struct, got %s", v.Kind())
	}
	t := v.Type()

	var args []string
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		flag, ok := sf.Tag.Lookup("flag")
		if !ok || flag == "-" {
			continue
		}
		fv := v.Field(i)

		switch fv.Kind() {
		case reflect.Bool:
			if fv.Bool() {
				args = append(args, flag)
			}
		case reflect.String:
			if fv.String() == "" {
				continue
			}
			value, err := scalar(fv)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", sf.Name, err)
			}
			args = append(args, flag, value)
		case reflect.Pointer:
			if fv.IsNil() {
				continue
			}
			value, err := scalar(fv.Elem())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", sf.Name, err)
			}
			args = append(args, flag, value)
		case reflect.Slice:
			if fv.Len() == 0 {
				continue
			}
			values := make([]string, fv.Len())
			for j := range values {
				value, err := scalar(fv.Index(j))
				if err != nil {
					return nil, fmt.Errorf("%s[%d]: %w", sf.Name, j, err)
				}
				values[j] = value
			}
			switch mode := sf.Tag.Get("list"); mode {
			case "", "repeat":
				for _, value := range values {
					args = append(args, flag, value)
				}
			case "join":
				sep, ok := sf.Tag.Lookup("sep")
				if !ok {
					sep = ","
				}
				args = append(args, flag, strings.Join(values, sep))
			case "spread":
				args = append(args, flag)
				args = append(args, values...)
			case "tokens":
				args = append(args, values...)
			default:
				return nil, fmt.Errorf("%s: unknown list mode %q", sf.Name, mode)
			}
		default:
			return nil, fmt.Errorf("%s: unsupported option kind %s", sf.Name, fv.Kind())
		}
	}
	return args, nil
}

func scalar(v reflect.Value) (string, error) {
	if v.CanInterface() {
		if tok, ok := v.Interface().(Token); ok {
			literal, known := tok.Token()
			if !known {
				return "", fmt.Errorf("unknown value %q", v.String())
			}
			return literal, nil
		}
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	default:
		return "", fmt.Errorf("unsupported value kind %s", v.Kind())
	}
}
