package contract

import "strings"

// DefaultReason is used when a fallback is requested without a reason.
const DefaultReason = "insufficient information"

// DefaultFillers are the non-committal strings placed in list slots of a
// fallback. They never express a judgment about the candidate.
var DefaultFillers = []string{"information insufficient", "evidence insufficient"}

// Fallback builds schema-conformant results without looking at model output.
type Fallback struct {
	fillers []string
}

// NewFallback returns a generator using the given filler strings. Blank
// fillers are dropped; DefaultFillers apply when none remain.
func NewFallback(fillers ...string) Fallback {
	kept := make([]string, 0, len(fillers))
	for _, f := range fillers {
		if f = strings.TrimSpace(f); f != "" {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, DefaultFillers...)
	}
	return Fallback{fillers: kept}
}

// DefaultFallback builds a fallback for v with the default fillers.
func DefaultFallback(v *Variant, reason string) Result {
	return NewFallback().Build(v, reason)
}

// Build returns a fresh result: the weakest enum tier, the reason in the
// reason field and filler strings in every list slot.
func (f Fallback) Build(v *Variant, reason string) Result {
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = DefaultReason
	}
	if len(f.fillers) == 0 {
		f = NewFallback()
	}
	return f.object(v.Schema, reason)
}

func (f Fallback) object(schema *Schema, reason string) Result {
	out := make(Result, 0, len(schema.Fields))
	for _, field := range schema.Fields {
		if field.Optional {
			continue
		}
		out = append(out, Entry{Key: field.Name, Value: f.value(field, reason)})
	}
	return out
}

func (f Fallback) value(field Field, reason string) any {
	switch field.Rule {
	case RuleEnum:
		return field.Weakest()
	case RuleText:
		if field.Reason {
			return reason
		}
		return f.fillers[0]
	case RuleStringList:
		items := make([]string, field.Length)
		for i := range items {
			items[i] = f.fillers[i%len(f.fillers)]
		}
		return items
	case RuleObject:
		return f.object(field.Schema, reason)
	case RuleNumber:
		return field.Min
	case RulePassthrough:
		switch field.Kind {
		case JSONObject:
			return map[string]any{}
		case JSONArray:
			return []any{}
		case JSONNumber:
			return 0.0
		case JSONBool:
			return false
		default:
			return ""
		}
	}
	return nil
}
