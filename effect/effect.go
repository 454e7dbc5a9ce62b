package effect

import (
	"fmt"
	"slices"

	"github.com/opd-ai/audren/update"
	"github.com/sirupsen/logrus"
)

// Effect is one guest effect slot.
type Effect struct {
	index   int
	typ     Type
	enabled bool
	mixID   int32
	order   uint32
	stage   Stage
}

// New creates an empty effect slot.
func New(index int) *Effect {
	return &Effect{index: index, mixID: update.UnusedMixID}
}

// Index returns the effect slot index.
func (e *Effect) Index() int { return e.index }

// Type returns the effect type.
func (e *Effect) Type() Type { return e.typ }

// MixID returns the id of the mix the effect processes.
func (e *Effect) MixID() int32 { return e.mixID }

// ProcessingOrder returns the guest declared processing order.
func (e *Effect) ProcessingOrder() uint32 { return e.order }

// Stage returns the DSP stage, nil when the slot is empty or unsupported.
func (e *Effect) Stage() Stage { return e.stage }

// Active reports whether the effect runs this tick.
func (e *Effect) Active() bool {
	return e.enabled && e.stage != nil
}

// OutState returns the state reported to the guest.
func (e *Effect) OutState() OutState {
	if e.Active() {
		return OutStateEnabled
	}
	return OutStateDisabled
}

// Apply takes the guest's record. A new effect or a type change rebuilds the
// stage; otherwise the stage is reconfigured and keeps its state. Unsupported
// types and rejected parameters leave the effect disabled.
func (e *Effect) Apply(in *update.EffectIn, env Env) error {
	t := Type(in.Type)
	e.mixID = in.MixID
	e.order = in.ProcessingOrder

	if !t.Supported(env.Info) {
		e.typ = t
		e.enabled = false
		e.stage = nil
		err := fmt.Errorf("%w: %s at %s", ErrUnsupportedType, t, env.Info)
		e.logRejected(err)
		return err
	}

	if in.IsNew || t != e.typ || (e.stage == nil && t != TypeInvalid) {
		e.stage = NewStage(t, env)
		logrus.WithFields(logrus.Fields{
			"function": "Effect.Apply",
			"effect":   e.index,
			"type":     t.String(),
		}).Debug("Effect stage created")
	}
	e.typ = t

	if e.stage == nil {
		e.enabled = false
		return nil
	}
	if err := e.stage.Configure(in.Params[:]); err != nil {
		e.enabled = false
		e.logRejected(err)
		return err
	}
	e.enabled = in.Enabled
	return nil
}

func (e *Effect) logRejected(err error) {
	logrus.WithFields(logrus.Fields{
		"function": "Effect.Apply",
		"effect":   e.index,
		"type":     e.typ.String(),
		"error":    err.Error(),
	}).Warn("Effect disabled")
}

// Process runs the stage over the target mix buffers.
func (e *Effect) Process(buses [][]float64) {
	if e.Active() {
		e.stage.Process(buses)
	}
}

// AppendSorted collects the active effects in processing order, ties broken
// by slot index. dst is truncated and its storage reused.
func AppendSorted(dst, effects []*Effect) []*Effect {
	out := dst[:0]
	for _, e := range effects {
		if e.Active() {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b *Effect) int {
		switch {
		case a.order < b.order:
			return -1
		case a.order > b.order:
			return 1
		}
		return a.index - b.index
	})
	return out
}
