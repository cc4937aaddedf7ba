package form

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/facilform-dev/facilform/internal/attachments"
	"github.com/facilform-dev/facilform/internal/domain"
	"github.com/facilform-dev/facilform/internal/errors"
	"github.com/facilform-dev/facilform/internal/geo"
	"github.com/facilform-dev/facilform/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock structs
type MockSender struct {
	CreateFacilityFunc func(ctx context.Context, draft domain.DraftRecord) error
	calls              int
	lastDraft          domain.DraftRecord
}

func (m *MockSender) CreateFacility(ctx context.Context, draft domain.DraftRecord) error {
	m.calls++
	m.lastDraft = draft
	if m.CreateFacilityFunc != nil {
		return m.CreateFacilityFunc(ctx, draft)
	}
	return nil
}

type MockNotifier struct {
	notices []domain.Notice
}

func (m *MockNotifier) Show(notice domain.Notice) {
	m.notices = append(m.notices, notice)
}

type MockNavigator struct {
	paths []string
}

func (m *MockNavigator) NavigateTo(path string) {
	m.paths = append(m.paths, path)
}

type fixture struct {
	controller *Controller
	selector   *geo.Selector
	manager    *attachments.Manager
	errState   *ErrorState
	sender     *MockSender
	notifier   *MockNotifier
	navigator  *MockNavigator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := attachments.NewPreviewStore(t.TempDir(), 64)
	require.NoError(t, err)

	f := &fixture{
		selector:  geo.NewSelector(),
		manager:   attachments.NewManager(store, []string{"image/png"}, 1024*1024),
		errState:  NewErrorState(),
		sender:    &MockSender{},
		notifier:  &MockNotifier{},
		navigator: &MockNavigator{},
	}
	f.controller = NewController(
		validation.NewEngine(),
		f.selector,
		f.manager,
		f.errState,
		f.sender,
		f.notifier,
		f.navigator,
		"/facilities",
	)
	return f
}

func pngFile(t *testing.T, name string) attachments.PickedFile {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return attachments.PickedFile{Name: name, ContentType: "image/png", Data: buf.Bytes()}
}

func (f *fixture) fillValid(t *testing.T) TextInput {
	t.Helper()
	f.selector.Select(10, 10)
	_, err := f.manager.AddMany([]attachments.PickedFile{pngFile(t, "front.png")})
	require.NoError(t, err)
	return TextInput{
		Name:         "Eastside Library",
		Description:  "Reading rooms and a children's section.",
		OpeningHours: "9-5",
	}
}

func assertNoFieldErrors(t *testing.T, errState *ErrorState) {
	t.Helper()
	assert.False(t, errState.Any(), "expected empty error slots, got %v", errState.Snapshot())
}

func TestSubmit_ValidDraft(t *testing.T) {
	f := newFixture(t)
	input := f.fillValid(t)

	outcome := f.controller.Submit(context.Background(), input)

	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, 1, f.sender.calls)
	assert.Equal(t, []string{"/facilities"}, f.navigator.paths)
	assertNoFieldErrors(t, f.errState)

	// The snapshot that went over the wire.
	assert.Equal(t, "Eastside Library", f.sender.lastDraft.Name)
	assert.Equal(t, domain.Coordinates{Lat: 10, Lng: 10}, f.sender.lastDraft.Location)
	require.Len(t, f.sender.lastDraft.Attachments, 1)

	// Success discards the draft.
	assert.Empty(t, f.manager.List())
	assert.False(t, f.selector.Location().Set())

	require.Len(t, f.notifier.notices, 1)
	assert.Equal(t, "success", f.notifier.notices[0].Icon)
}

func TestSubmit_InvalidDraftSkipsNetwork(t *testing.T) {
	f := newFixture(t)
	input := f.fillValid(t)
	input.Name = ""

	outcome := f.controller.Submit(context.Background(), input)

	assert.Equal(t, OutcomeInvalid, outcome)
	assert.Equal(t, 0, f.sender.calls, "no network call for an invalid draft")
	assert.Empty(t, f.navigator.paths)
	assert.Empty(t, f.notifier.notices)

	assert.NotEmpty(t, f.errState.Get(domain.FieldName))
	for _, field := range []domain.Field{domain.FieldDescription, domain.FieldLocation, domain.FieldAttachments, domain.FieldOpeningHours} {
		assert.Empty(t, f.errState.Get(field))
	}
}

func TestSubmit_SlotsClearedEachAttempt(t *testing.T) {
	f := newFixture(t)
	input := f.fillValid(t)

	input.Name = ""
	f.controller.Submit(context.Background(), input)
	require.NotEmpty(t, f.errState.Get(domain.FieldName))

	// Fix the name, break the opening hours: only the new failure stays.
	input.Name = "Eastside Library"
	input.OpeningHours = ""
	f.controller.Submit(context.Background(), input)

	assert.Empty(t, f.errState.Get(domain.FieldName))
	assert.NotEmpty(t, f.errState.Get(domain.FieldOpeningHours))
}

func TestSubmit_DuplicateNameConflict(t *testing.T) {
	f := newFixture(t)
	input := f.fillValid(t)
	f.sender.CreateFacilityFunc = func(ctx context.Context, draft domain.DraftRecord) error {
		return &errors.BusinessConflictError{Bcode: domain.BcodeDuplicateName}
	}

	outcome := f.controller.Submit(context.Background(), input)

	assert.Equal(t, OutcomeConflict, outcome)
	assertNoFieldErrors(t, f.errState)
	assert.Empty(t, f.navigator.paths)

	require.Len(t, f.notifier.notices, 1)
	assert.Contains(t, f.notifier.notices[0].Body, "Eastside Library")

	// Conflict keeps the draft so the user can edit and retry.
	assert.Len(t, f.manager.List(), 1)
}

func TestSubmit_GenericFailure(t *testing.T) {
	f := newFixture(t)
	input := f.fillValid(t)
	f.sender.CreateFacilityFunc = func(ctx context.Context, draft domain.DraftRecord) error {
		return &errors.BusinessConflictError{Bcode: 9999}
	}

	outcome := f.controller.Submit(context.Background(), input)

	assert.Equal(t, OutcomeFailure, outcome)
	assertNoFieldErrors(t, f.errState)
	assert.Empty(t, f.navigator.paths)

	require.Len(t, f.notifier.notices, 1)
	assert.Equal(t, "error", f.notifier.notices[0].Icon)
}

func TestSubmit_TransportFailure(t *testing.T) {
	f := newFixture(t)
	input := f.fillValid(t)
	f.sender.CreateFacilityFunc = func(ctx context.Context, draft domain.DraftRecord) error {
		return &errors.SubmissionError{Err: context.DeadlineExceeded}
	}

	outcome := f.controller.Submit(context.Background(), input)

	assert.Equal(t, OutcomeFailure, outcome)
	assertNoFieldErrors(t, f.errState)
}

func TestSubmit_InFlightGate(t *testing.T) {
	f := newFixture(t)
	input := f.fillValid(t)

	release := make(chan struct{})
	inFlight := make(chan struct{})
	f.sender.CreateFacilityFunc = func(ctx context.Context, draft domain.DraftRecord) error {
		close(inFlight)
		<-release
		return nil
	}

	done := make(chan Outcome, 1)
	go func() {
		done <- f.controller.Submit(context.Background(), input)
	}()

	select {
	case <-inFlight:
	case <-time.After(time.Second):
		t.Fatal("first submit never reached the store")
	}

	assert.Equal(t, Submitting, f.controller.State())
	assert.Equal(t, OutcomeInFlight, f.controller.Submit(context.Background(), input))

	close(release)
	assert.Equal(t, OutcomeSuccess, <-done)
	assert.Equal(t, 1, f.sender.calls)
	assert.Equal(t, Idle, f.controller.State())
}
