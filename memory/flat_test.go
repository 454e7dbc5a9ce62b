package memory

import (
	"testing"

	"github.com/opd-ai/audren/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ interfaces.GuestMemory = (*Flat)(nil)

func TestFlatReadWrite(t *testing.T) {
	mem := NewFlat(0x10000, 0x100)
	assert.Equal(t, uint64(0x10000), mem.Base())
	assert.Equal(t, 0x100, mem.Size())

	require.NoError(t, mem.WriteAt([]byte{1, 2, 3}, 0x100FD))

	p := make([]byte, 3)
	require.NoError(t, mem.ReadAt(p, 0x100FD))
	assert.Equal(t, []byte{1, 2, 3}, p)

	assert.ErrorIs(t, mem.ReadAt(p, 0x100FE), ErrOutOfRange)
	assert.ErrorIs(t, mem.ReadAt(p, 0xFFFF), ErrOutOfRange)
	assert.ErrorIs(t, mem.WriteAt(p, ^uint64(0)), ErrOutOfRange)
}
