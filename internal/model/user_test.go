package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSubeIDs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int64
	}{
		{name: "plain list", input: "5,7,12", want: []int64{5, 7, 12}},
		{name: "spaces around entries", input: " 5 , 7 ", want: []int64{5, 7}},
		{name: "empty string", input: "", want: []int64{}},
		{name: "blank entries skipped", input: "5,,7,", want: []int64{5, 7}},
		{name: "garbage skipped", input: "5,abc,7", want: []int64{5, 7}},
		{name: "non-positive skipped", input: "0,-3,5", want: []int64{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSubeIDs(tt.input))
		})
	}
}
