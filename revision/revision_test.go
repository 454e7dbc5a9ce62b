package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagicRoundTrip(t *testing.T) {
	assert.Equal(t, uint32(0x30564552), Rev0Magic)
	for v := MinVersion; v <= MaxVersion; v++ {
		got, err := Version(Magic(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestNewRejectsBadMagic(t *testing.T) {
	tests := []struct {
		name  string
		magic uint32
	}{
		{name: "not a revision", magic: 0x12345678},
		{name: "revision zero", magic: Magic(0)},
		{name: "too new", magic: Magic(MaxVersion + 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.magic)
			assert.ErrorIs(t, err, ErrUnsupportedRevision)
		})
	}
}

func TestCapabilityGating(t *testing.T) {
	tests := []struct {
		version int
		cap     Capability
		want    bool
	}{
		{1, CapSplitter, false},
		{2, CapSplitter, true},
		{3, CapBiquadFilterEffect, false},
		{4, CapBiquadFilterEffect, true},
		{4, CapElapsedFrameCount, false},
		{5, CapElapsedFrameCount, true},
		{4, CapPcmFloat, false},
		{8, CapPcmFloat, true},
	}

	for _, tt := range tests {
		t.Run(tt.cap.String(), func(t *testing.T) {
			info, err := New(Magic(tt.version))
			require.NoError(t, err)
			assert.Equal(t, tt.want, info.Supports(tt.cap), "REV%d %s", tt.version, tt.cap)
		})
	}
}

func TestInfoString(t *testing.T) {
	info, err := New(Magic(5))
	require.NoError(t, err)
	assert.Equal(t, "REV5", info.String())
	assert.Equal(t, 5, info.Version())
	assert.True(t, info.Supports(CapSplitter|CapElapsedFrameCount))
}
