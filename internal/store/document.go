package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DocumentKind discriminates the variants of the JSON data model.
type DocumentKind uint8

const (
	KindNull DocumentKind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Document is a parsed JSON value as a tagged variant: exactly one of the
// payload fields is meaningful, selected by the kind.
type Document struct {
	kind DocumentKind
	b    bool
	num  float64
	str  string
	arr  []Document
	obj  map[string]Document
}

// Kind returns the variant tag.
func (d Document) Kind() DocumentKind {
	return d.kind
}

// Bool returns the boolean payload; ok is false for other kinds.
func (d Document) Bool() (bool, bool) {
	return d.b, d.kind == KindBool
}

// Number returns the numeric payload; ok is false for other kinds.
func (d Document) Number() (float64, bool) {
	return d.num, d.kind == KindNumber
}

// String returns the string payload; ok is false for other kinds.
func (d Document) String() (string, bool) {
	return d.str, d.kind == KindString
}

// Array returns the array payload; ok is false for other kinds.
func (d Document) Array() ([]Document, bool) {
	return d.arr, d.kind == KindArray
}

// Object returns the object payload; ok is false for other kinds.
func (d Document) Object() (map[string]Document, bool) {
	return d.obj, d.kind == KindObject
}

// ParseDocument decodes raw JSON into its tagged-variant form.
func ParseDocument(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	doc, err := decodeDocument(dec)
	if err != nil {
		return Document{}, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func decodeDocument(dec *json.Decoder) (Document, error) {
	tok, err := dec.Token()
	if err != nil {
		return Document{}, err
	}
	return documentFromToken(dec, tok)
}

func documentFromToken(dec *json.Decoder, tok json.Token) (Document, error) {
	switch t := tok.(type) {
	case nil:
		return Document{kind: KindNull}, nil
	case bool:
		return Document{kind: KindBool, b: t}, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Document{}, err
		}
		return Document{kind: KindNumber, num: f}, nil
	case string:
		return Document{kind: KindString, str: t}, nil
	case json.Delim:
		switch t {
		case '[':
			arr := make([]Document, 0)
			for dec.More() {
				item, err := decodeDocument(dec)
				if err != nil {
					return Document{}, err
				}
				arr = append(arr, item)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Document{}, err
			}
			return Document{kind: KindArray, arr: arr}, nil
		case '{':
			obj := make(map[string]Document)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Document{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Document{}, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeDocument(dec)
				if err != nil {
					return Document{}, err
				}
				obj[key] = val
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Document{}, err
			}
			return Document{kind: KindObject, obj: obj}, nil
		}
	}
	return Document{}, fmt.Errorf("unexpected JSON token: %v", tok)
}

// Interface converts the document to the plain Go representation used at
// the operator boundary.
func (d Document) Interface() any {
	switch d.kind {
	case KindNull:
		return nil
	case KindBool:
		return d.b
	case KindNumber:
		return d.num
	case KindString:
		return d.str
	case KindArray:
		out := make([]any, len(d.arr))
		for i, item := range d.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		return documentMap(d.obj)
	}
	return nil
}

func documentMap(obj map[string]Document) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v.Interface()
	}
	return out
}
