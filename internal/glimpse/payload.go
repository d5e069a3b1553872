package glimpse

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Point is one labeled value in a line/area/bar series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Slice is one labeled, colored value in a pie series.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Payload is the decoded data for one widget. Exactly one of the series fields
// is populated, selected by Shape.
type Payload struct {
	Shape  Shape
	Points []Point // line, area
	Bars   []Point // bar
	Slices []Slice // pie
}

// ParseError reports a body that does not match the widget's declared shape.
type ParseError struct {
	Shape  Shape
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("payload does not match shape %q: %s", e.Shape, e.Reason)
}

// ParsePayload decodes raw JSON against the schema for the given shape.
// Unknown fields and empty series are rejected: a widget that parses is a
// widget that renders.
func ParsePayload(shape Shape, raw []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	switch shape {
	case ShapeLine, ShapeArea:
		var doc struct {
			Points []Point `json:"points"`
		}
		if err := dec.Decode(&doc); err != nil {
			return Payload{}, &ParseError{Shape: shape, Reason: err.Error()}
		}
		if len(doc.Points) == 0 {
			return Payload{}, &ParseError{Shape: shape, Reason: "no points"}
		}
		return Payload{Shape: shape, Points: doc.Points}, nil

	case ShapeBar:
		var doc struct {
			Bars []Point `json:"bars"`
		}
		if err := dec.Decode(&doc); err != nil {
			return Payload{}, &ParseError{Shape: shape, Reason: err.Error()}
		}
		if len(doc.Bars) == 0 {
			return Payload{}, &ParseError{Shape: shape, Reason: "no bars"}
		}
		return Payload{Shape: shape, Bars: doc.Bars}, nil

	case ShapePie:
		var doc struct {
			Slices []Slice `json:"slices"`
		}
		if err := dec.Decode(&doc); err != nil {
			return Payload{}, &ParseError{Shape: shape, Reason: err.Error()}
		}
		if len(doc.Slices) == 0 {
			return Payload{}, &ParseError{Shape: shape, Reason: "no slices"}
		}
		return Payload{Shape: shape, Slices: doc.Slices}, nil
	}

	return Payload{}, &ParseError{Shape: shape, Reason: "unknown shape"}
}

// Equal reports value equality of two payloads. Used to detect unchanged
// source data between refreshes.
func (p Payload) Equal(o Payload) bool {
	if p.Shape != o.Shape {
		return false
	}
	if len(p.Points) != len(o.Points) || len(p.Bars) != len(o.Bars) || len(p.Slices) != len(o.Slices) {
		return false
	}
	for i := range p.Points {
		if p.Points[i] != o.Points[i] {
			return false
		}
	}
	for i := range p.Bars {
		if p.Bars[i] != o.Bars[i] {
			return false
		}
	}
	for i := range p.Slices {
		if p.Slices[i] != o.Slices[i] {
			return false
		}
	}
	return true
}
