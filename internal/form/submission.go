// Package form holds the submission pipeline for the facility creation
// form: per-field error state and the controller that turns the
// independently-arriving inputs into one validated, submitted draft.
package form

import (
	"context"
	goerrors "errors"
	"fmt"
	"sync/atomic"

	"github.com/facilform-dev/facilform/internal/attachments"
	"github.com/facilform-dev/facilform/internal/domain"
	"github.com/facilform-dev/facilform/internal/errors"
	"github.com/facilform-dev/facilform/internal/geo"
	"github.com/facilform-dev/facilform/internal/logger"
	"github.com/facilform-dev/facilform/internal/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Controller states. A submit trigger is only accepted from Idle; the
// gate prevents a second in-flight submission.
type State int32

const (
	Idle State = iota
	Validating
	Submitting
)

// Outcome of one submit attempt.
type Outcome int

const (
	OutcomeInvalid Outcome = iota
	OutcomeSuccess
	OutcomeConflict
	OutcomeFailure
	OutcomeInFlight
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeSuccess:
		return "success"
	case OutcomeConflict:
		return "conflict"
	case OutcomeFailure:
		return "failure"
	case OutcomeInFlight:
		return "in_flight"
	}
	return "unknown"
}

var submissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "facility_submissions_total",
		Help: "Total number of facility form submit attempts by outcome",
	},
	[]string{"outcome"},
)

// RecordSender submits a finished draft to the remote facility store.
// A nil return means the store accepted it.
type RecordSender interface {
	CreateFacility(ctx context.Context, draft domain.DraftRecord) error
}

// Notifier is the notification surface: a modal with title, body, icon
// and a single confirm action.
type Notifier interface {
	Show(notice domain.Notice)
}

// Navigator moves the user to another view.
type Navigator interface {
	NavigateTo(path string)
}

// TextInput carries the scalar form fields as they are at the moment of
// the submit trigger.
type TextInput struct {
	Name           string
	Description    string
	OpeningHours   string
	OpenOnWeekends bool
}

// Controller orchestrates validation, payload construction, the single
// network call and outcome handling for the creation form.
type Controller struct {
	engine    *validation.Engine
	selector  *geo.Selector
	manager   *attachments.Manager
	errState  *ErrorState
	sender    RecordSender
	notifier  Notifier
	navigator Navigator

	listingPath string
	state       atomic.Int32
}

func NewController(
	engine *validation.Engine,
	selector *geo.Selector,
	manager *attachments.Manager,
	errState *ErrorState,
	sender RecordSender,
	notifier Notifier,
	navigator Navigator,
	listingPath string,
) *Controller {
	return &Controller{
		engine:      engine,
		selector:    selector,
		manager:     manager,
		errState:    errState,
		sender:      sender,
		notifier:    notifier,
		navigator:   navigator,
		listingPath: listingPath,
	}
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

// Submit runs the submission protocol: clear the error slots, snapshot
// the draft, validate, and either surface field errors or perform exactly
// one store call. While a call is in flight further triggers are rejected
// without side effects.
func (c *Controller) Submit(ctx context.Context, input TextInput) Outcome {
	if !c.state.CompareAndSwap(int32(Idle), int32(Validating)) {
		return OutcomeInFlight
	}
	defer c.state.Store(int32(Idle))

	c.errState.Clear()

	draft := domain.DraftRecord{
		Name:           input.Name,
		Description:    input.Description,
		Location:       c.selector.Location(),
		OpeningHours:   input.OpeningHours,
		OpenOnWeekends: input.OpenOnWeekends,
		Attachments:    c.manager.List(),
	}

	if errs := c.engine.Validate(draft); len(errs) > 0 {
		c.errState.Fill(errs)
		submissionsTotal.WithLabelValues(OutcomeInvalid.String()).Inc()
		return OutcomeInvalid
	}

	c.state.Store(int32(Submitting))

	err := c.sender.CreateFacility(ctx, draft)
	outcome := c.resolve(draft, err)
	submissionsTotal.WithLabelValues(outcome.String()).Inc()
	return outcome
}

func (c *Controller) resolve(draft domain.DraftRecord, err error) Outcome {
	if err == nil {
		// Draft is done: discard it and release the previews.
		c.manager.Close()
		c.selector.Reset()

		c.notifier.Show(domain.Notice{
			Title: "Registration complete",
			Body:  "The facility was registered successfully.",
			Icon:  "success",
		})
		c.navigator.NavigateTo(c.listingPath)
		return OutcomeSuccess
	}

	var conflict *errors.BusinessConflictError
	if goerrors.As(err, &conflict) && conflict.Bcode == domain.BcodeDuplicateName {
		logger.Log.Info("store reported duplicate name", "name", draft.Name)
		c.notifier.Show(domain.Notice{
			Title: "Name already taken",
			Body:  fmt.Sprintf("A facility named %q is already registered. Pick another name and try again.", draft.Name),
			Icon:  "warning",
		})
		return OutcomeConflict
	}

	logger.Log.Error("facility submission failed", "err", err)
	c.notifier.Show(domain.Notice{
		Title: "Submission failed",
		Body:  "Something went wrong while registering the facility. Please try again.",
		Icon:  "error",
	})
	return OutcomeFailure
}
