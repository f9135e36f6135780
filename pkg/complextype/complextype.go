// Package complextype parses Hive style type signatures such as
// struct<a:int,b:array<string>> into a models.TypeMetadata tree.
package complextype

import (
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/models"
)

// SingleFieldName names the field of a struct with one unnamed member.
const SingleFieldName = "value"

// Parse parses typeStr into a tree rooted at a node called name hanging off
// parent. Input is lower-cased first.
func Parse(typeStr, name string, parent models.TypeParent) (models.TypeMetadata, error) {
	input := strings.ToLower(strings.TrimSpace(typeStr))
	if input == "" {
		return nil, errors.New(errors.ErrorTypeParse, "empty type")
	}
	expr, err := parser.ParseString("", input)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to parse type").
			WithDetail("type", typeStr)
	}
	return build(expr, name, parent, 0)
}

// ParseColumn parses the column's type and attaches the result.
func ParseColumn(col *models.ColumnMetadata) error {
	t, err := Parse(col.Type, col.Name, col)
	if err != nil {
		return err
	}
	col.TypeMetadata = t
	return nil
}

// IsComplex reports whether typeStr is an array, map or struct signature.
func IsComplex(typeStr string) bool {
	s := strings.ToLower(strings.TrimSpace(typeStr))
	for _, prefix := range []string{"array<", "map<", "struct<"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func build(e *typeExpr, name string, parent models.TypeParent, sortOrder int) (models.TypeMetadata, error) {
	switch {
	case e.Array != nil:
		arr := models.NewArrayType(name, e.String(), parent, sortOrder)
		elem, err := build(e.Array.Element, models.ArrayElementName, arr, 0)
		if err != nil {
			return nil, err
		}
		arr.Element = elem
		return arr, nil

	case e.Map != nil:
		m := models.NewMapType(name, e.String(), parent, sortOrder)
		key, err := build(e.Map.Key, models.MapKeyName, m, 0)
		if err != nil {
			return nil, err
		}
		value, err := build(e.Map.Value, models.MapValueName, m, 1)
		if err != nil {
			return nil, err
		}
		m.KeyType, m.ValueType = key, value
		return m, nil

	case e.Struct != nil:
		s := models.NewStructType(name, e.String(), parent, sortOrder)
		fields := e.Struct.Fields
		for i, f := range fields {
			fieldName := f.Name
			if fieldName == "" {
				if len(fields) != 1 {
					return nil, errors.New(errors.ErrorTypeParse, "struct members must be named").
						WithDetail("type", e.String())
				}
				fieldName = SingleFieldName
			}
			child, err := build(f.Type, fieldName, s, i)
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, child)
		}
		return s, nil

	default:
		// unions are kept whole
		return models.NewScalarType(name, e.String(), parent, sortOrder), nil
	}
}
