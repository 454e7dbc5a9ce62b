package effect

import (
	"math"
	"testing"

	"github.com/opd-ai/audren/revision"
	"github.com/opd-ai/audren/update"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInfo(t *testing.T, version int) revision.Info {
	t.Helper()
	info, err := revision.New(revision.Magic(version))
	require.NoError(t, err)
	return info
}

func testEnv(t *testing.T, version int) Env {
	return Env{SampleRate: 48000, SampleCount: 96, Info: mustInfo(t, version)}
}

func buses(n, frames int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, frames)
	}
	return out
}

func effectIn(typ Type, order uint32, put func([]byte)) update.EffectIn {
	in := update.EffectIn{Type: uint8(typ), IsNew: true, Enabled: true, ProcessingOrder: order}
	if put != nil {
		put(in.Params[:])
	}
	return in
}

func TestTypeSupport(t *testing.T) {
	rev3 := mustInfo(t, 3)
	rev4 := mustInfo(t, 4)

	assert.True(t, TypeDelay.Supported(rev3))
	assert.False(t, TypeBiquadFilter.Supported(rev3))
	assert.True(t, TypeBiquadFilter.Supported(rev4))
	for _, typ := range []Type{TypeLimiter, TypeCaptureBuffer, TypeCompressor, Type(42)} {
		assert.False(t, typ.Supported(mustInfo(t, 8)), typ.String())
	}
	assert.Equal(t, "Type(42)", Type(42).String())
}

func TestUnsupportedEffectIsDisabled(t *testing.T) {
	e := New(0)
	in := effectIn(TypeBiquadFilter, 0, nil)

	err := e.Apply(&in, testEnv(t, 3))
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.False(t, e.Active())
	assert.Equal(t, OutStateDisabled, e.OutState())
	assert.Nil(t, e.Stage())
}

func TestInvalidParametersDisableEffect(t *testing.T) {
	e := New(0)
	in := effectIn(TypeDelay, 0, (&DelayParams{DelayTimeMax: 10, DelayTime: 20}).Put)

	assert.ErrorIs(t, e.Apply(&in, testEnv(t, 5)), ErrInvalidParameters)
	assert.False(t, e.Active())
}

func TestDelayImpulse(t *testing.T) {
	params := DelayParams{
		ChannelCount: 1,
		DelayTimeMax: 10,
		DelayTime:    1,
		InGain:       1,
		OutGain:      1,
	}
	params.Output[0] = 1

	e := New(0)
	in := effectIn(TypeDelay, 0, params.Put)
	require.NoError(t, e.Apply(&in, testEnv(t, 5)))
	require.True(t, e.Active())

	b := buses(2, 96)
	b[0][0] = 1
	e.Process(b)

	for i, v := range b[1] {
		if i == 48 {
			assert.Equal(t, 1.0, v, "1ms at 48kHz is 48 samples")
		} else {
			assert.Zero(t, v, "sample %d", i)
		}
	}
}

func TestDelayKeepsStateAcrossReconfigure(t *testing.T) {
	params := DelayParams{ChannelCount: 1, DelayTimeMax: 10, DelayTime: 1, InGain: 1, OutGain: 1}
	params.Output[0] = 1

	e := New(0)
	in := effectIn(TypeDelay, 0, params.Put)
	require.NoError(t, e.Apply(&in, testEnv(t, 5)))

	b := buses(2, 64)
	b[0][63] = 1
	e.Process(b)

	in.IsNew = false
	require.NoError(t, e.Apply(&in, testEnv(t, 5)))

	b = buses(2, 64)
	e.Process(b)
	assert.Equal(t, 1.0, b[1][47], "the delayed impulse crosses the tick boundary")
}

func TestBiquadEffect(t *testing.T) {
	params := BiquadParams{B: [3]int16{8192, 0, 0}, ChannelCount: 1}
	params.Output[0] = 1

	e := New(0)
	in := effectIn(TypeBiquadFilter, 0, params.Put)
	require.NoError(t, e.Apply(&in, testEnv(t, 4)))

	b := buses(2, 8)
	for i := range b[0] {
		b[0][i] = 100
	}
	e.Process(b)
	for i := range b[1] {
		assert.InDelta(t, 50, b[1][i], 1e-9)
	}
	assert.Equal(t, 100.0, b[0][0], "input buffer is untouched")
}

func TestBufferMixerAndAux(t *testing.T) {
	mixer := BufferMixerParams{MixCount: 1}
	mixer.Input[0], mixer.Output[0], mixer.Volume[0] = 0, 1, 0.5

	e := New(0)
	in := effectIn(TypeBufferMixer, 0, mixer.Put)
	require.NoError(t, e.Apply(&in, testEnv(t, 5)))

	b := buses(3, 4)
	b[0][0], b[1][0] = 10, 1
	e.Process(b)
	assert.Equal(t, 6.0, b[1][0])

	aux := AuxParams{MixBufferCount: 2}
	aux.Input[0], aux.Output[0] = 0, 2
	aux.Input[1], aux.Output[1] = 2, 0
	a := New(1)
	in = effectIn(TypeAux, 0, aux.Put)
	require.NoError(t, a.Apply(&in, testEnv(t, 5)))

	b = buses(3, 4)
	b[0][0], b[2][0] = 3, 7
	a.Process(b)
	assert.Equal(t, 7.0, b[0][0])
	assert.Equal(t, 3.0, b[2][0], "sends are snapshotted before returns")
}

func TestReverbTailIsFinite(t *testing.T) {
	params := ReverbParams{ChannelCount: 1, PreDelay: 5, DecayTime: 1.5, HighFreqDecay: 0.3, ReverbGain: 1, OutGain: 1}
	params.Output[0] = 1

	for _, typ := range []Type{TypeReverb, TypeReverb3d} {
		e := New(0)
		in := effectIn(typ, 0, params.Put)
		require.NoError(t, e.Apply(&in, testEnv(t, 5)))
		assert.Equal(t, typ.String(), e.Stage().GetName())

		energy := 0.0
		for tick := 0; tick < 60; tick++ {
			b := buses(2, 96)
			if tick == 0 {
				b[0][0] = 1000
			}
			e.Process(b)
			for _, v := range b[1] {
				require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
				energy += v * v
			}
		}
		assert.Greater(t, energy, 0.0, "%s produced no tail", typ)

		e.Stage().Reset()
		b := buses(2, 96)
		e.Process(b)
		for _, v := range b[1] {
			assert.Zero(t, v)
		}
	}
}

func TestReverbRejectsBadDecay(t *testing.T) {
	e := New(0)
	in := effectIn(TypeReverb, 0, (&ReverbParams{ChannelCount: 2, DecayTime: 0}).Put)
	assert.ErrorIs(t, e.Apply(&in, testEnv(t, 5)), ErrInvalidParameters)
}

func TestSortedOrdering(t *testing.T) {
	env := testEnv(t, 5)
	orders := []uint32{2, 1, 2, 0}
	effects := make([]*Effect, len(orders))
	for i, order := range orders {
		effects[i] = New(i)
		in := effectIn(TypeBufferMixer, order, (&BufferMixerParams{}).Put)
		require.NoError(t, effects[i].Apply(&in, env))
	}

	disabled := effectIn(TypeBufferMixer, 0, nil)
	disabled.Enabled = false
	require.NoError(t, effects[3].Apply(&disabled, env))

	var got []int
	for _, e := range AppendSorted(nil, effects) {
		got = append(got, e.Index())
	}
	assert.Equal(t, []int{1, 0, 2}, got)

	buf := make([]*Effect, 0, len(effects))
	sorted := AppendSorted(buf, effects)
	assert.Len(t, sorted, 3)
	assert.Equal(t, cap(buf), cap(sorted), "sorting reuses dst")
	assert.Same(t, effects[1], buf[:1][0])
}

func TestTypeChangeRebuildsStage(t *testing.T) {
	env := testEnv(t, 5)
	e := New(0)

	in := effectIn(TypeBufferMixer, 0, nil)
	require.NoError(t, e.Apply(&in, env))
	first := e.Stage()

	in.IsNew = false
	require.NoError(t, e.Apply(&in, env))
	assert.Same(t, first, e.Stage())

	delay := DelayParams{ChannelCount: 1, DelayTimeMax: 5, DelayTime: 1}
	in = effectIn(TypeDelay, 0, delay.Put)
	in.IsNew = false
	require.NoError(t, e.Apply(&in, env))
	assert.Equal(t, "Delay", e.Stage().GetName())
}
