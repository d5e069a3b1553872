package glimpse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	cases := []struct {
		name  string
		shape Shape
		raw   string
		want  Payload
	}{
		{
			"line",
			ShapeLine,
			`{"points":[{"label":"Q1","value":10},{"label":"Q2","value":12.5}]}`,
			Payload{Shape: ShapeLine, Points: []Point{{"Q1", 10}, {"Q2", 12.5}}},
		},
		{
			"area",
			ShapeArea,
			`{"points":[{"label":"mon","value":3}]}`,
			Payload{Shape: ShapeArea, Points: []Point{{"mon", 3}}},
		},
		{
			"bar",
			ShapeBar,
			`{"bars":[{"label":"a","value":1},{"label":"b","value":2}]}`,
			Payload{Shape: ShapeBar, Bars: []Point{{"a", 1}, {"b", 2}}},
		},
		{
			"pie",
			ShapePie,
			`{"slices":[{"label":"up","value":80,"color":"#0f0"},{"label":"down","value":20,"color":"#f00"}]}`,
			Payload{Shape: ShapePie, Slices: []Slice{{"up", 80, "#0f0"}, {"down", 20, "#f00"}}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePayload(tc.shape, []byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePayloadErrors(t *testing.T) {
	cases := []struct {
		name  string
		shape Shape
		raw   string
	}{
		{"wrong shape key", ShapeLine, `{"bars":[{"label":"a","value":1}]}`},
		{"bar body for pie", ShapePie, `{"bars":[{"label":"a","value":1}]}`},
		{"empty series", ShapeLine, `{"points":[]}`},
		{"missing key", ShapeBar, `{}`},
		{"not json", ShapeLine, `hello`},
		{"value not a number", ShapeLine, `{"points":[{"label":"a","value":"x"}]}`},
		{"unknown shape", Shape("gauge"), `{"points":[{"label":"a","value":1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePayload(tc.shape, []byte(tc.raw))
			require.Error(t, err)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestPayloadEqual(t *testing.T) {
	a := Payload{Shape: ShapeLine, Points: []Point{{"Q1", 10}}}

	cases := []struct {
		name string
		b    Payload
		want bool
	}{
		{"identical", Payload{Shape: ShapeLine, Points: []Point{{"Q1", 10}}}, true},
		{"different value", Payload{Shape: ShapeLine, Points: []Point{{"Q1", 11}}}, false},
		{"different length", Payload{Shape: ShapeLine, Points: []Point{{"Q1", 10}, {"Q2", 2}}}, false},
		{"different shape", Payload{Shape: ShapeArea, Points: []Point{{"Q1", 10}}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Equal(tc.b))
		})
	}
}
