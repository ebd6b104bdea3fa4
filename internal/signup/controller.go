// internal/signup/controller.go
//
// Signup – form controller.
//
// Context
//   Controller runs one submit attempt end to end:
//
//      Idle → Validating → Invalid → Idle
//                        ↘ Submitting → Settled → Idle
//
//   It clears the previous error markers, validates every field, and either
//   paints the failures or relays the trimmed payload and reports the
//   outcome.  Both the UI and the relay are injected, so the controller has
//   no idea whether it drives an HTML page, a JSON reply, or a test double.
//
// Concurrency
//   A Controller serves one form instance.  An atomic in-flight flag rejects
//   a second Submit while one is running (ErrBusy), whatever state the
//   submit button is in.
//
//------------------------------------------------------------------------------

package signup

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/yanizio/eventsignup/internal/form"
	"github.com/yanizio/eventsignup/internal/metrics"
	"github.com/yanizio/eventsignup/internal/relay"
)

// Toast copy.
const (
	MsgInvalid = "Please correct the highlighted fields before submitting."
	MsgSuccess = "Registration successful! See you at the event."
	MsgFailed  = "Submission failed. Please try again later."
)

// ErrBusy is returned when a submission is already in flight for this
// controller.
var ErrBusy = errors.New("signup: submission already in progress")

// UI is the feedback surface the controller drives.
type UI interface {
	ShowError(id string, show bool)
	SetInvalid(f form.Field, invalid bool)
	ShowToast(message string, isError bool)
	SetSubmitting(busy bool)
	Reset()
}

// Submitter relays a validated payload.  It must not fail; every failure is
// reported through the Result.
type Submitter interface {
	Submit(ctx context.Context, p form.Payload) relay.Result
}

// Observer is told about every settled submission.
type Observer func(ctx context.Context, p form.Payload, res relay.Result)

// Outcome describes how one Submit call ended.
type Outcome struct {
	Validation form.Result
	Submitted  bool         // false when validation stopped the flow
	Result     relay.Result // meaningful only when Submitted
}

// Controller orchestrates validation, relay, and feedback.
type Controller struct {
	ui        UI
	submitter Submitter
	observe   Observer
	log       *zap.SugaredLogger

	inFlight atomic.Bool
	state    atomic.Int32
}

// Option customises a Controller.
type Option func(*Controller)

// WithObserver registers fn to run after each settled submission.
func WithObserver(fn Observer) Option { return func(c *Controller) { c.observe = fn } }

// WithLogger sets the logger.  Defaults to zap.S().
func WithLogger(l *zap.SugaredLogger) Option { return func(c *Controller) { c.log = l } }

// New builds a Controller around ui and submitter.
func New(ui UI, submitter Submitter, opts ...Option) *Controller {
	c := &Controller{ui: ui, submitter: submitter, log: zap.S()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State reports where the controller currently is.
func (c *Controller) State() State { return State(c.state.Load()) }

func (c *Controller) enter(s State) { c.state.Store(int32(s)) }

// Submit runs one attempt for in.  It returns ErrBusy, without touching the
// UI, when another attempt is still running.
func (c *Controller) Submit(ctx context.Context, in form.Input) (Outcome, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		metrics.SubmissionsTotal.WithLabelValues("busy").Inc()
		return Outcome{}, ErrBusy
	}
	defer c.inFlight.Store(false)
	defer c.enter(Idle)

	c.enter(Validating)
	c.clearErrors()

	vr := form.Validate(in)
	out := Outcome{Validation: vr}
	if !vr.Valid() {
		c.enter(Invalid)
		for _, f := range vr.Failed() {
			c.ui.ShowError(f.ErrorID(), true)
			c.ui.SetInvalid(f, true)
			metrics.ValidationFailuresTotal.WithLabelValues(string(f)).Inc()
		}
		c.ui.ShowToast(MsgInvalid, true)
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		c.log.Debugw("signup rejected by validation", "fields", vr.Failed())
		return out, nil
	}

	payload := form.NewPayload(in)

	c.enter(Submitting)
	c.ui.SetSubmitting(true)
	res := c.submitter.Submit(ctx, payload)
	c.enter(Settled)

	out.Submitted = true
	out.Result = res

	if res.OK {
		c.ui.Reset()
		c.ui.ShowToast(MsgSuccess, false)
		metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	} else {
		msg := res.Error
		if msg == "" {
			msg = MsgFailed
		}
		c.ui.ShowToast(msg, true)
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
	}
	c.ui.SetSubmitting(false)

	if c.observe != nil {
		c.observe(ctx, payload, res)
	}
	return out, nil
}

func (c *Controller) clearErrors() {
	for _, f := range form.Fields {
		c.ui.ShowError(f.ErrorID(), false)
		c.ui.SetInvalid(f, false)
	}
}
