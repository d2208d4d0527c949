package contract

import (
	"fmt"
	"slices"
	"strings"
)

// Normalize validates obj against the variant and builds the canonical
// result. Unknown keys are dropped; any failed check fails the whole value.
func Normalize(obj map[string]any, v *Variant) (Result, error) {
	if obj == nil {
		return nil, &NormalizationError{Variant: v.Name, Message: "value is not an object"}
	}

	if err := v.checkDocument(obj); err != nil {
		return nil, err
	}

	result, err := normalizeObject(obj, v.Schema, "")
	if err != nil {
		err.Variant = v.Name
		return nil, err
	}
	return result, nil
}

func normalizeObject(obj map[string]any, schema *Schema, prefix string) (Result, *NormalizationError) {
	out := make(Result, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		path := joinPath(prefix, f.Name)

		raw, ok := obj[f.Name]
		if !ok || raw == nil {
			if f.Optional {
				continue
			}
			return nil, &NormalizationError{Field: path, Message: "is required"}
		}

		value, err := normalizeField(f, raw, path)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Key: f.Name, Value: value})
	}
	return out, nil
}

func normalizeField(f Field, raw any, path string) (any, *NormalizationError) {
	switch f.Rule {
	case RuleEnum:
		s, ok := raw.(string)
		if !ok || !slices.Contains(f.Allowed, s) {
			return nil, &NormalizationError{
				Field:   path,
				Message: fmt.Sprintf("must be one of %s", strings.Join(f.Allowed, ", ")),
			}
		}
		return s, nil

	case RuleText:
		s, ok := raw.(string)
		if !ok {
			return nil, &NormalizationError{Field: path, Message: fmt.Sprintf("must be a string, got %s", kindOf(raw))}
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, &NormalizationError{Field: path, Message: "must not be blank"}
		}
		return s, nil

	case RuleStringList:
		items, ok := raw.([]any)
		if !ok {
			return nil, &NormalizationError{Field: path, Message: fmt.Sprintf("must be an array, got %s", kindOf(raw))}
		}
		kept := make([]string, 0, f.Length)
		for _, item := range items {
			s, _ := item.(string)
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			kept = append(kept, s)
			if len(kept) == f.Length {
				break
			}
		}
		if len(kept) != f.Length {
			return nil, &NormalizationError{
				Field:   path,
				Message: fmt.Sprintf("must contain exactly %d non-empty strings, got %d", f.Length, len(kept)),
			}
		}
		return kept, nil

	case RuleObject:
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, &NormalizationError{Field: path, Message: fmt.Sprintf("must be an object, got %s", kindOf(raw))}
		}
		return normalizeObject(obj, f.Schema, path)

	case RuleNumber:
		n, ok := raw.(float64)
		if !ok {
			return nil, &NormalizationError{Field: path, Message: fmt.Sprintf("must be a number, got %s", kindOf(raw))}
		}
		if n < f.Min || n > f.Max {
			return nil, &NormalizationError{Field: path, Message: fmt.Sprintf("must be within [%g, %g]", f.Min, f.Max)}
		}
		return n, nil

	case RulePassthrough:
		if kind := kindOf(raw); kind != f.Kind {
			return nil, &NormalizationError{Field: path, Message: fmt.Sprintf("must be %s, got %s", f.Kind, kind)}
		}
		return raw, nil
	}

	return nil, &NormalizationError{Field: path, Message: fmt.Sprintf("unsupported rule %s", f.Rule)}
}
