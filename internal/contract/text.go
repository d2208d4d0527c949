package contract

import (
	"bytes"
	"encoding/json"
	"strings"
)

type textShape int

const (
	shapeString textShape = iota
	shapeParts
	shapePart
)

// Part is one element of a multi-part model message. Parts that carry no text
// (images, tool calls, reasoning blobs) are kept with HasText unset.
type Part struct {
	Text    string
	HasText bool
}

// TextPart returns a text-bearing part.
func TextPart(text string) Part {
	return Part{Text: text, HasText: true}
}

// OpaquePart returns a part that carries no text.
func OpaquePart() Part {
	return Part{}
}

// RawModelText is model output in one of the shapes upstream APIs return:
// a plain string, an ordered list of parts, or a single part object.
type RawModelText struct {
	shape textShape
	text  string
	parts []Part
}

// FromString wraps plain string content.
func FromString(text string) RawModelText {
	return RawModelText{shape: shapeString, text: text}
}

// FromParts wraps an ordered list of parts.
func FromParts(parts ...Part) RawModelText {
	return RawModelText{shape: shapeParts, parts: append([]Part(nil), parts...)}
}

// FromPart wraps a single part object.
func FromPart(part Part) RawModelText {
	return RawModelText{shape: shapePart, parts: []Part{part}}
}

// Shape reports which representation the content arrived in.
func (t RawModelText) Shape() string {
	switch t.shape {
	case shapeParts:
		return "parts"
	case shapePart:
		return "part"
	default:
		return "string"
	}
}

// Flatten joins text-bearing parts in order with newlines. Parts without text
// contribute nothing, not even a separator.
func (t RawModelText) Flatten() string {
	switch t.shape {
	case shapeParts:
		texts := make([]string, 0, len(t.parts))
		for _, part := range t.parts {
			if part.HasText {
				texts = append(texts, part.Text)
			}
		}
		return strings.Join(texts, "\n")
	case shapePart:
		if len(t.parts) == 1 && t.parts[0].HasText {
			return t.parts[0].Text
		}
		return ""
	default:
		return t.text
	}
}

// DecodeContent converts a chat completion "content" value into RawModelText.
// A JSON string becomes plain content, an array becomes parts (strings and
// objects with a string "text" field carry text) and an object becomes a single
// part. Anything else, including null, yields empty content.
func DecodeContent(raw json.RawMessage) RawModelText {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return FromString("")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return FromString(s)
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err == nil {
			parts := make([]Part, 0, len(items))
			for _, item := range items {
				parts = append(parts, decodePart(item))
			}
			return FromParts(parts...)
		}
	case '{':
		return FromPart(decodePart(trimmed))
	}

	return FromString("")
}

func decodePart(raw json.RawMessage) Part {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return OpaquePart()
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return TextPart(s)
		}
	case '{':
		var obj struct {
			Text *string `json:"text"`
		}
		if err := json.Unmarshal(trimmed, &obj); err == nil && obj.Text != nil {
			return TextPart(*obj.Text)
		}
	}

	return OpaquePart()
}
