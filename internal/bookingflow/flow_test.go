package bookingflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/padel-booking/pkg/logging"
	"github.com/wolfman30/padel-booking/pkg/padelapi"
)

type fakeSource struct {
	mu    sync.Mutex
	days  []padelapi.ScheduleDay
	err   error
	calls int
	// gate, when set, blocks FetchSchedule until closed.
	gate chan struct{}
}

func (s *fakeSource) FetchSchedule(ctx context.Context) ([]padelapi.ScheduleDay, error) {
	s.mu.Lock()
	s.calls++
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return s.days, s.err
}

func (s *fakeSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeSink struct {
	mu       sync.Mutex
	requests []padelapi.BookingRequest
	err      error
	gate     chan struct{}
	entered  chan struct{}
}

func (s *fakeSink) CreateBooking(ctx context.Context, req padelapi.BookingRequest) (*padelapi.Booking, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	gate, entered := s.gate, s.entered
	s.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return &padelapi.Booking{ID: "b-1", Name: req.Name, Phone: req.Phone, Date: req.Date, Time: req.Time, FormatType: req.FormatType, Status: "confirmed"}, nil
}

func (s *fakeSink) Requests() []padelapi.BookingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]padelapi.BookingRequest(nil), s.requests...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) Last() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return Notice{}, false
	}
	return n.notices[len(n.notices)-1], true
}

func (n *recordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

func scenarioSnapshot() []padelapi.ScheduleDay {
	return []padelapi.ScheduleDay{
		{Date: "2025-06-10", Slots: []padelapi.TimeSlot{
			{ID: "1", Time: "10:00", Available: true},
			{ID: "2", Time: "11:00", Available: false},
		}},
		{Date: "2025-06-11", Slots: []padelapi.TimeSlot{
			{ID: "3", Time: "10:00", Available: true},
		}},
		{Date: "2025-06-12"},
	}
}

func newTestFlow(t *testing.T, source *fakeSource, sink *fakeSink) (*Flow, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	return New(source, sink, WithNotifier(notifier), WithLogger(logging.New("error"))), notifier
}

func openAtContact(t *testing.T, f *Flow) {
	t.Helper()
	require.NoError(t, f.Open(context.Background(), ""))
	require.NoError(t, f.SelectDate("2025-06-10"))
	require.NoError(t, f.SelectTime("1"))
}

func TestFlowScenarioHappyPath(t *testing.T) {
	source := &fakeSource{days: scenarioSnapshot()}
	sink := &fakeSink{}
	f, notifier := newTestFlow(t, source, sink)

	require.NoError(t, f.Open(context.Background(), ""))
	assert.Equal(t, PhaseDate, f.State().Phase())

	require.NoError(t, f.SelectDate("2025-06-10"))
	slots := f.Slots()
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Available)
	assert.False(t, slots[1].Available)

	require.NoError(t, f.SelectTime("1"))
	st := f.State()
	assert.Equal(t, StepContact, st.Step)
	assert.Equal(t, "10:00", st.Time)

	require.NoError(t, f.SetName("Ann"))
	require.NoError(t, f.SetPhone("123"))
	require.NoError(t, f.SetFormat("open_game"))

	booking, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b-1", booking.ID)

	require.Len(t, sink.Requests(), 1)
	assert.Equal(t, padelapi.BookingRequest{
		Name: "Ann", Phone: "123", Date: "2025-06-10", Time: "10:00", FormatType: "open_game",
	}, sink.Requests()[0])

	assert.False(t, f.IsOpen())
	last, ok := notifier.Last()
	require.True(t, ok)
	assert.Equal(t, NoticeSuccess, last.Kind)
	assert.Equal(t, DefaultMessages().Booked, last.Message)
}

func TestFlowScenarioSlotTaken(t *testing.T) {
	sink := &fakeSink{err: &padelapi.APIError{StatusCode: 409, Detail: "Slot taken"}}
	f, notifier := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, sink)
	openAtContact(t, f)
	require.NoError(t, f.SetName("Ann"))
	require.NoError(t, f.SetPhone("123"))
	require.NoError(t, f.SetFormat("open_game"))
	before := f.State()

	_, err := f.Submit(context.Background())
	var apiErr *padelapi.APIError
	require.ErrorAs(t, err, &apiErr)

	last, ok := notifier.Last()
	require.True(t, ok)
	assert.Equal(t, Notice{Kind: NoticeError, Message: "Slot taken"}, last)

	after := f.State()
	assert.Equal(t, before, after)
	assert.Equal(t, StepContact, after.Step)
	assert.False(t, after.Submitting)
	assert.True(t, f.IsOpen())
}

func TestFlowSubmitFailureWithoutDetailUsesGenericMessage(t *testing.T) {
	sink := &fakeSink{err: errors.New("connection refused")}
	f, notifier := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, sink)
	openAtContact(t, f)
	require.NoError(t, f.SetName("Ann"))
	require.NoError(t, f.SetPhone("123"))
	require.NoError(t, f.SetFormat("training"))

	_, err := f.Submit(context.Background())
	require.Error(t, err)
	last, _ := notifier.Last()
	assert.Equal(t, DefaultMessages().BookingFailed, last.Message)
	assert.Equal(t, PhaseContact, f.State().Phase())
}

func TestFlowSelectableDatesMatchSnapshot(t *testing.T) {
	f, _ := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, &fakeSink{})
	require.NoError(t, f.Open(context.Background(), ""))

	assert.Equal(t, []string{"2025-06-10", "2025-06-11", "2025-06-12"}, f.SelectableDates())
	assert.ErrorIs(t, f.SelectDate("2025-06-13"), ErrDateNotOffered)
	assert.ErrorIs(t, f.SelectDate("not-a-date"), ErrDateNotOffered)
	assert.Equal(t, PhaseDate, f.State().Phase())
}

func TestFlowSelectDateMatchesCalendarDate(t *testing.T) {
	f, _ := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, &fakeSink{})
	require.NoError(t, f.Open(context.Background(), ""))

	require.NoError(t, f.SelectDate("2025-06-11T00:00:00Z"))
	assert.Equal(t, "2025-06-11", f.State().Date)
	require.Len(t, f.Slots(), 1)
}

func TestFlowPostsCalendarDateForTimestampedSnapshot(t *testing.T) {
	sink := &fakeSink{}
	f, _ := newTestFlow(t, &fakeSource{days: []padelapi.ScheduleDay{
		{Date: "2025-06-10T00:00:00Z", Slots: []padelapi.TimeSlot{{ID: "1", Time: "10:00", Available: true}}},
	}}, sink)
	require.NoError(t, f.Open(context.Background(), ""))

	require.NoError(t, f.SelectDate("2025-06-10"))
	assert.Equal(t, "2025-06-10", f.State().Date)
	require.Len(t, f.Slots(), 1)
	require.NoError(t, f.SelectTime("1"))
	require.NoError(t, f.SetName("Ann"))
	require.NoError(t, f.SetPhone("123"))
	require.NoError(t, f.SetFormat("training"))

	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.Requests(), 1)
	assert.Equal(t, "2025-06-10", sink.Requests()[0].Date)
}

func TestFlowDayWithoutSlotsIsSelectable(t *testing.T) {
	f, _ := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, &fakeSink{})
	require.NoError(t, f.Open(context.Background(), ""))

	require.NoError(t, f.SelectDate("2025-06-12"))
	assert.Equal(t, PhaseTime, f.State().Phase())
	assert.Empty(t, f.Slots())
	assert.ErrorIs(t, f.SelectTime("10:00"), ErrSlotNotFound)
}

func TestFlowUnavailableSlotNeverSelected(t *testing.T) {
	f, _ := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, &fakeSink{})
	require.NoError(t, f.Open(context.Background(), ""))
	require.NoError(t, f.SelectDate("2025-06-10"))

	for _, ref := range []string{"2", "11:00"} {
		assert.ErrorIs(t, f.SelectTime(ref), ErrSlotUnavailable)
		st := f.State()
		assert.Empty(t, st.Time)
		assert.Equal(t, StepTime, st.Step)
	}
	assert.ErrorIs(t, f.SelectTime("99"), ErrSlotNotFound)

	require.NoError(t, f.SelectTime("10:00"))
	assert.Equal(t, "10:00", f.State().Time)
}

func TestFlowSnapshotFetchedOncePerInstance(t *testing.T) {
	source := &fakeSource{days: scenarioSnapshot()}
	f, _ := newTestFlow(t, source, &fakeSink{})
	require.NoError(t, f.Open(context.Background(), ""))
	require.NoError(t, f.SelectDate("2025-06-10"))
	require.NoError(t, f.Back())
	require.NoError(t, f.SelectDate("2025-06-11"))
	require.NoError(t, f.SelectTime("3"))
	require.NoError(t, f.Back())
	assert.Equal(t, 1, source.Calls())

	f.Close()
	require.NoError(t, f.Open(context.Background(), ""))
	assert.Equal(t, 2, source.Calls())
}

func TestFlowSnapshotIsNotAliased(t *testing.T) {
	days := scenarioSnapshot()
	f, _ := newTestFlow(t, &fakeSource{days: days}, &fakeSink{})
	require.NoError(t, f.Open(context.Background(), ""))
	days[0].Slots[1].Available = true

	require.NoError(t, f.SelectDate("2025-06-10"))
	slots := f.Slots()
	assert.False(t, slots[1].Available)
	slots[0].Available = false
	assert.True(t, f.Slots()[0].Available)
}

func TestFlowScheduleFailureKeepsFlowOpen(t *testing.T) {
	f, notifier := newTestFlow(t, &fakeSource{err: errors.New("boom")}, &fakeSink{})
	require.NoError(t, f.Open(context.Background(), ""))

	assert.True(t, f.IsOpen())
	assert.Equal(t, PhaseDate, f.State().Phase())
	assert.Empty(t, f.SelectableDates())
	last, ok := notifier.Last()
	require.True(t, ok)
	assert.Equal(t, Notice{Kind: NoticeError, Message: DefaultMessages().ScheduleFailed}, last)
}

func TestFlowMissingFieldsSkipsNetwork(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *Flow)
	}{
		{"no name", func(f *Flow) { _ = f.SetPhone("123"); _ = f.SetFormat("open_game") }},
		{"no phone", func(f *Flow) { _ = f.SetName("Ann"); _ = f.SetFormat("open_game") }},
		{"no format", func(f *Flow) { _ = f.SetName("Ann"); _ = f.SetPhone("123") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeSink{}
			f, notifier := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, sink)
			openAtContact(t, f)
			tt.setup(f)

			_, err := f.Submit(context.Background())
			assert.ErrorIs(t, err, ErrMissingFields)
			assert.Empty(t, sink.Requests())
			last, _ := notifier.Last()
			assert.Equal(t, Notice{Kind: NoticeError, Message: DefaultMessages().MissingFields}, last)
			assert.Equal(t, PhaseContact, f.State().Phase())
		})
	}
}

func TestFlowSubmitOnlyFromContactStep(t *testing.T) {
	sink := &fakeSink{}
	f, _ := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, sink)

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, f.Open(context.Background(), "open_game"))
	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.Empty(t, sink.Requests())
}

func TestFlowSingleSubmissionInFlight(t *testing.T) {
	sink := &fakeSink{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	f, _ := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, sink)
	openAtContact(t, f)
	require.NoError(t, f.SetName("Ann"))
	require.NoError(t, f.SetPhone("123"))
	require.NoError(t, f.SetFormat("open_game"))

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-sink.entered

	st := f.State()
	assert.True(t, st.Submitting)
	assert.Equal(t, PhaseSubmitting, st.Phase())

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.ErrorIs(t, f.SetName("Bob"), ErrSubmitInProgress)
	assert.ErrorIs(t, f.Back(), ErrSubmitInProgress)

	close(sink.gate)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not return")
	}
	assert.Len(t, sink.Requests(), 1)
}

func TestFlowCloseResetsToInitialFormat(t *testing.T) {
	f, _ := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, &fakeSink{})
	require.NoError(t, f.Open(context.Background(), "training"))
	assert.Equal(t, "training", f.State().Format)

	require.NoError(t, f.SelectDate("2025-06-10"))
	require.NoError(t, f.SelectTime("1"))
	require.NoError(t, f.SetName("Ann"))
	require.NoError(t, f.SetPhone("123"))
	require.NoError(t, f.SetFormat("corporate"))

	f.Close()
	st := f.State()
	assert.Equal(t, State{Step: StepDate, Format: "training"}, st)
	assert.Empty(t, f.SelectableDates())

	require.NoError(t, f.Open(context.Background(), ""))
	st = f.State()
	assert.Empty(t, st.Format)
	assert.Empty(t, st.Date)
	assert.Empty(t, st.Name)
}

func TestFlowSuccessResetsForNextOpen(t *testing.T) {
	f, _ := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, &fakeSink{})
	require.NoError(t, f.Open(context.Background(), "subscription"))
	require.NoError(t, f.SelectDate("2025-06-10"))
	require.NoError(t, f.SelectTime("1"))
	require.NoError(t, f.SetName("Ann"))
	require.NoError(t, f.SetPhone("123"))

	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, State{Step: StepDate, Format: "subscription"}, f.State())

	require.NoError(t, f.Open(context.Background(), "subscription"))
	st := f.State()
	assert.Equal(t, StepDate, st.Step)
	assert.Equal(t, "subscription", st.Format)
	assert.Empty(t, st.Date)
	assert.Empty(t, st.Time)
	assert.Empty(t, st.Name)
	assert.Empty(t, st.Phone)
}

func TestFlowBackPreservesContactDetails(t *testing.T) {
	f, _ := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, &fakeSink{})
	openAtContact(t, f)
	require.NoError(t, f.SetName("Ann"))
	require.NoError(t, f.SetPhone("123"))

	require.NoError(t, f.Back())
	st := f.State()
	assert.Equal(t, StepTime, st.Step)
	assert.Equal(t, "Ann", st.Name)
	assert.Equal(t, "123", st.Phone)

	require.NoError(t, f.Back())
	assert.Equal(t, StepDate, f.State().Step)
	assert.ErrorIs(t, f.Back(), ErrNoPreviousStep)
	assert.Len(t, f.SelectableDates(), 3)
}

func TestFlowOpenTwiceAndUnknownInitialFormat(t *testing.T) {
	f, _ := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, &fakeSink{})
	require.NoError(t, f.Open(context.Background(), "tennis"))
	assert.Empty(t, f.State().Format)
	assert.ErrorIs(t, f.Open(context.Background(), ""), ErrAlreadyOpen)
	assert.ErrorIs(t, f.SetFormat("tennis"), ErrUnknownFormat)
}

func TestFlowCloseDuringFetchDiscardsResult(t *testing.T) {
	source := &fakeSource{days: scenarioSnapshot(), gate: make(chan struct{})}
	f, notifier := newTestFlow(t, source, &fakeSink{})

	done := make(chan error, 1)
	go func() { done <- f.Open(context.Background(), "") }()

	require.Eventually(t, func() bool { return source.Calls() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, PhaseLoading, f.State().Phase())
	assert.ErrorIs(t, f.SelectDate("2025-06-10"), ErrLoading)

	f.Close()
	close(source.gate)
	assert.ErrorIs(t, <-done, ErrStale)
	assert.False(t, f.IsOpen())
	assert.Empty(t, f.SelectableDates())
	assert.Zero(t, notifier.Count())
}

func TestFlowCloseDuringSubmitDiscardsResult(t *testing.T) {
	sink := &fakeSink{err: &padelapi.APIError{StatusCode: 409, Detail: "Slot taken"}, gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	f, notifier := newTestFlow(t, &fakeSource{days: scenarioSnapshot()}, sink)
	openAtContact(t, f)
	require.NoError(t, f.SetName("Ann"))
	require.NoError(t, f.SetPhone("123"))
	require.NoError(t, f.SetFormat("open_game"))

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-sink.entered
	f.Close()
	close(sink.gate)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.False(t, f.IsOpen())
	assert.Zero(t, notifier.Count())
}

func TestNewPanicsWithoutCollaborators(t *testing.T) {
	assert.Panics(t, func() { New(nil, &fakeSink{}) })
	assert.Panics(t, func() { New(&fakeSource{}, nil) })
}

func TestWithMessagesKeepsDefaultsForEmptyFields(t *testing.T) {
	f := New(&fakeSource{}, &fakeSink{}, WithMessages(Messages{Booked: "Done"}))
	assert.Equal(t, "Done", f.messages.Booked)
	assert.Equal(t, DefaultMessages().BookingFailed, f.messages.BookingFailed)
}
