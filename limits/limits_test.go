package limits

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name    string
		address uint64
		size    uint64
		wantErr error
	}{
		{name: "aligned", address: 0x1000, size: 0x400, wantErr: nil},
		{name: "zero address", address: 0, size: 0x40, wantErr: ErrEmptyRange},
		{name: "zero size", address: 0x1000, size: 0, wantErr: ErrEmptyRange},
		{name: "misaligned address", address: 0x1010, size: 0x40, wantErr: ErrMisaligned},
		{name: "misaligned size", address: 0x1000, size: 0x41, wantErr: ErrMisaligned},
		{name: "overflow", address: 0xFFFFFFFFFFFFFFC0, size: 0x80, wantErr: ErrRangeOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRange(tt.address, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, 0, AlignUp(0))
	assert.Equal(t, 0x40, AlignUp(1))
	assert.Equal(t, 0x40, AlignUp(0x40))
	assert.Equal(t, 0x80, AlignUp(0x41))
}

func TestValidateCount(t *testing.T) {
	assert.NoError(t, ValidateCount("voiceCount", MaxVoices, MaxVoices))

	err := ValidateCount("voiceCount", MaxVoices+1, MaxVoices)
	assert.ErrorIs(t, err, ErrCountExceeded)
	assert.Contains(t, err.Error(), "voiceCount")
}
