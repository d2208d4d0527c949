package contract

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// Parser decodes an extracted span into a JSON object.
type Parser struct {
	repair bool
}

// NewParser returns a strict parser. With repair enabled a failed decode is
// retried once on the output of jsonrepair.
func NewParser(repair bool) Parser {
	return Parser{repair: repair}
}

// Parse decodes span and requires the outer value to be an object.
// The returned error is always a *ParseError for the unrepaired span.
func (p Parser) Parse(span string) (map[string]any, error) {
	obj, err := decodeObject(span)
	if err == nil || !p.repair {
		return obj, err
	}

	repaired, repairErr := repair(span)
	if repairErr != nil {
		return nil, err
	}

	obj, retryErr := decodeObject(repaired)
	if retryErr != nil {
		return nil, err
	}
	return obj, nil
}

// repair runs jsonrepair, turning a panic inside it into an error.
func repair(span string) (repaired string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("json repair panicked: %v", p)
		}
	}()
	return jsonrepair.JSONRepair(span)
}

func decodeObject(span string) (map[string]any, error) {
	var value any
	if err := json.Unmarshal([]byte(span), &value); err != nil {
		return nil, &ParseError{Span: span, Err: err}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, &ParseError{Span: span, Err: fmt.Errorf("decoded %s, want object", kindOf(value))}
	}
	return obj, nil
}

func kindOf(value any) JSONKind {
	switch value.(type) {
	case map[string]any:
		return JSONObject
	case []any:
		return JSONArray
	case string:
		return JSONString
	case float64, json.Number:
		return JSONNumber
	case bool:
		return JSONBool
	case nil:
		return JSONNull
	default:
		return JSONKind(fmt.Sprintf("%T", value))
	}
}
