package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel starts an insert whose columns come from the db tags of model.
// Untagged and unexported fields are skipped.
func InsertModel(table string, model any) (*InsertBuilder, error) {
	cols, vals, err := ColumnsAndValues(model)
	if err != nil {
		return nil, err
	}
	return InsertInto(table).Columns(cols...).Values(vals...), nil
}

// ColumnsAndValues lists the db-tagged columns of a struct with their values.
func ColumnsAndValues(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		tag := strings.TrimSpace(field.Tag.Get("db"))
		if tag == "" || tag == "-" {
			continue
		}
		col, opts, _ := strings.Cut(tag, ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		fieldValue := value.Field(i)
		if strings.Contains(opts, "omitempty") && fieldValue.IsZero() {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, fieldValue.Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
