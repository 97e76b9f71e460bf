package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: Malformed(3, "ragged row"), want: "malformed_input"},
		{err: fmt.Errorf("%w: folder x", ErrNotFound), want: "not_found"},
		{err: fmt.Errorf("%w: band.csv.gz", ErrOutputConflict), want: "output_conflict"},
		{err: errors.New("disk full"), want: "internal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}

func TestMalformedInputError(t *testing.T) {
	err := &MalformedInputError{Path: "band.csv", Line: 4, Reason: "bad count"}
	assert.Equal(t, "malformed input: band.csv:4: bad count", err.Error())
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestCandidateRecord_FrequencyMHz(t *testing.T) {
	assert.InDelta(t, 433.92, CandidateRecord{FreqHz: 433.92e6}.FrequencyMHz(), 1e-9)
}
