// Package jsonschema implements the JSON-Schema backend: raw schemas are
// object-shaped JSON Schema documents (type/properties/required/
// additionalProperties) and raw tables are ordered, column-major JSON data.
package jsonschema

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// PropertyType is the backend raw column type: a JSON Schema primitive name
// plus an optional format qualifier (e.g. {"string","date-time"}). It is
// comparable with ==.
type PropertyType struct {
	Type   string
	Format string
}

func (p PropertyType) String() string {
	if p.Format != "" {
		return p.Type + "/" + p.Format
	}
	return p.Type
}

// Property is a single property schema within a Document.
// Keep this struct small and extend incrementally.
type Property struct {
	Type    string    `json:"type,omitempty"`
	Format  string    `json:"format,omitempty"`
	Items   *Property `json:"items,omitempty"`
	Default any       `json:"default,omitempty"`
}

// RawType returns the property's comparable raw type.
func (p *Property) RawType() PropertyType {
	if p == nil {
		return PropertyType{}
	}
	return PropertyType{Type: p.Type, Format: p.Format}
}

// Document is an object-shaped JSON Schema. Property order is significant and
// preserved through marshal/unmarshal so SchemaColumns is deterministic.
type Document struct {
	Type                 string
	Required             []string
	AdditionalProperties bool

	order []string
	props map[string]*Property
}

// NewDocument returns an empty object-schema document.
func NewDocument() *Document {
	return &Document{Type: "object", props: map[string]*Property{}}
}

// SetProperty adds or replaces a property. A new name is appended to the
// property order.
func (d *Document) SetProperty(name string, p *Property) {
	if d.props == nil {
		d.props = map[string]*Property{}
	}
	if _, ok := d.props[name]; !ok {
		d.order = append(d.order, name)
	}
	d.props[name] = p
}

// Property looks a property up by name.
func (d *Document) Property(name string) (*Property, bool) {
	p, ok := d.props[name]
	return p, ok
}

// PropertyNames returns the property names in document order.
func (d *Document) PropertyNames() []string {
	return append([]string(nil), d.order...)
}

// MarshalJSON renders the document with properties in document order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	typ := d.Type
	if typ == "" {
		typ = "object"
	}
	tb, err := json.Marshal(typ)
	if err != nil {
		return nil, err
	}
	buf.Write(tb)

	buf.WriteString(`,"properties":{`)
	for i, name := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		nb, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		pb, err := json.Marshal(d.props[name])
		if err != nil {
			return nil, err
		}
		buf.Write(nb)
		buf.WriteByte(':')
		buf.Write(pb)
	}
	buf.WriteByte('}')

	req := d.Required
	if req == nil {
		req = []string{}
	}
	rb, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`,"required":`)
	buf.Write(rb)

	buf.WriteString(`,"additionalProperties":`)
	if d.AdditionalProperties {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a document, recovering the property order from the raw
// bytes (map decoding alone would lose it).
func (d *Document) UnmarshalJSON(data []byte) error {
	var head struct {
		Type                 string                     `json:"type"`
		Properties           map[string]json.RawMessage `json:"properties"`
		Required             []string                   `json:"required"`
		AdditionalProperties *bool                      `json:"additionalProperties"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	d.Type = head.Type
	d.Required = head.Required
	// Absent additionalProperties means permissive, per JSON Schema.
	d.AdditionalProperties = head.AdditionalProperties == nil || *head.AdditionalProperties
	d.order = nil
	d.props = make(map[string]*Property, len(head.Properties))

	order, err := propertyKeyOrder(data)
	if err != nil {
		return err
	}
	for _, name := range order {
		raw, ok := head.Properties[name]
		if !ok {
			continue
		}
		p := &Property{}
		if err := json.Unmarshal(raw, p); err != nil {
			return fmt.Errorf("jsonschema: property %q: %w", name, err)
		}
		d.order = append(d.order, name)
		d.props[name] = p
	}
	return nil
}

// propertyKeyOrder walks the top-level object tokens and returns the key
// order of its "properties" member.
func propertyKeyOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("jsonschema: document must be a JSON object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if key != "properties" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}
		open, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := open.(json.Delim); !ok || delim != '{' {
			return nil, fmt.Errorf("jsonschema: properties must be a JSON object")
		}
		var order []string
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			name, _ := nameTok.(string)
			order = append(order, name)
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
		return order, nil
	}
	return nil, nil
}

// ParseDocument decodes a JSON Schema document.
func ParseDocument(data []byte) (*Document, error) {
	d := &Document{}
	if err := d.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return d, nil
}
