package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/QBSync/app/models"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

type fetchCall struct {
	entity quickbooks.Entity
	start  int
	max    int
}

// fakeProvider serves a fixed number of records per entity.
type fakeProvider struct {
	total map[quickbooks.Entity]int
	calls []fetchCall
	fail  map[fetchCall]error
}

func (p *fakeProvider) FetchPage(_ context.Context, entity quickbooks.Entity, start, max int, token string) ([]json.RawMessage, error) {
	call := fetchCall{entity, start, max}
	p.calls = append(p.calls, call)
	if err := p.fail[call]; err != nil {
		return nil, &quickbooks.RemoteFetchError{Entity: entity, StartPosition: start, StatusCode: 503, Err: err}
	}
	var out []json.RawMessage
	for i := start; i < start+max && i <= p.total[entity]; i++ {
		out = append(out, json.RawMessage(fmt.Sprintf(`{"Id":"%d"}`, i)))
	}
	return out, nil
}

func (p *fakeProvider) starts(entity quickbooks.Entity) []int {
	var out []int
	for _, c := range p.calls {
		if c.entity == entity {
			out = append(out, c.start)
		}
	}
	return out
}

type staticTokens struct{ tok *quickbooks.TokenSet }

func (s staticTokens) Token(context.Context) (*quickbooks.TokenSet, error) {
	if s.tok == nil {
		return nil, quickbooks.ErrNotAuthenticated
	}
	return s.tok, nil
}

type recordingWriter struct {
	batches map[quickbooks.Entity][]int
	failAt  map[quickbooks.Entity]int
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{batches: map[quickbooks.Entity][]int{}, failAt: map[quickbooks.Entity]int{}}
}

func (w *recordingWriter) WriteBatch(_ context.Context, entity quickbooks.Entity, records []json.RawMessage) (int, error) {
	n := len(w.batches[entity]) + 1
	if w.failAt[entity] == n {
		return 0, errors.New("disk full")
	}
	w.batches[entity] = append(w.batches[entity], len(records))
	return len(records), nil
}

type fixedSettings struct{ bills, customers int }

func (s fixedSettings) Get() (*models.FetchSettings, error) {
	return &models.FetchSettings{BillsFetchCount: s.bills, CustomersFetchCount: s.customers}, nil
}

func newTestController(p *fakeProvider, w *recordingWriter, tok *quickbooks.TokenSet) *Controller {
	return NewController(Options{
		Fetcher:  p,
		Tokens:   staticTokens{tok: tok},
		Writer:   w,
		Settings: fixedSettings{bills: 3, customers: 5},
	})
}

var validToken = &quickbooks.TokenSet{AccessToken: "tok"}

func TestStartRun(t *testing.T) {
	c := newTestController(&fakeProvider{}, newRecordingWriter(), validToken)

	tests := []struct {
		name      string
		bills     Cursor
		customers Cursor
		wantReset bool
		wantBills Cursor
		wantCust  Cursor
	}{
		{"new run", CursorUnset, CursorUnset, true, 1, 1},
		{"finished run", CursorExhausted, CursorExhausted, true, 1, 1},
		{"one stream exhausted", CursorExhausted, 6, true, 1, 1},
		{"mid-flight", 4, 6, false, 4, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &Run{ID: "r", Bills: tt.bills, Customers: tt.customers}
			assert.Equal(t, tt.wantReset, c.StartRun(run))
			assert.Equal(t, tt.wantBills, run.Bills)
			assert.Equal(t, tt.wantCust, run.Customers)
		})
	}
}

func TestStepCursorSequence(t *testing.T) {
	tests := []struct {
		name        string
		bills       int
		wantStarts  []int
		wantCursors []Cursor
	}{
		{"empty page at 7", 6, []int{1, 4, 7}, []Cursor{1, 4, 7, CursorExhausted}},
		{"seven bills batch three", 7, []int{1, 4, 7, 8}, []Cursor{1, 4, 7, 8, CursorExhausted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{total: map[quickbooks.Entity]int{quickbooks.EntityBill: tt.bills}}
			w := newRecordingWriter()
			c := newTestController(p, w, validToken)

			run := NewRun()
			require.True(t, c.StartRun(run))

			cursors := []Cursor{run.Bills}
			for !run.Bills.Exhausted() {
				_, err := c.Step(context.Background(), run)
				require.NoError(t, err)
				cursors = append(cursors, run.Bills)
			}

			assert.Equal(t, tt.wantStarts, p.starts(quickbooks.EntityBill))
			assert.Equal(t, tt.wantCursors, cursors)
			assert.Equal(t, []int{3, 3}, w.batches[quickbooks.EntityBill][:2])
			assert.True(t, run.Done())
		})
	}
}

func TestExhaustedStreamsAreNotFetched(t *testing.T) {
	p := &fakeProvider{total: map[quickbooks.Entity]int{quickbooks.EntityBill: 2, quickbooks.EntityCustomer: 9}}
	c := newTestController(p, newRecordingWriter(), validToken)

	run := &Run{ID: "r", Bills: CursorExhausted, Customers: 3}
	_, err := c.Step(context.Background(), run)
	require.NoError(t, err)
	assert.Empty(t, p.starts(quickbooks.EntityBill))
	assert.Equal(t, Cursor(8), run.Customers)

	done := &Run{ID: "d", Bills: CursorExhausted, Customers: CursorExhausted}
	p.calls = nil
	res, err := c.Step(context.Background(), done)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Empty(t, p.calls)
}

func TestStepWithoutTokenFetchesNothing(t *testing.T) {
	p := &fakeProvider{total: map[quickbooks.Entity]int{quickbooks.EntityBill: 7}}
	c := newTestController(p, newRecordingWriter(), nil)

	run := &Run{ID: "r", Bills: 1, Customers: 1}
	_, err := c.Step(context.Background(), run)
	assert.ErrorIs(t, err, quickbooks.ErrNotAuthenticated)
	assert.Empty(t, p.calls)
	assert.Equal(t, Cursor(1), run.Bills)
}

func TestFetchFailureKeepsCursors(t *testing.T) {
	p := &fakeProvider{
		total: map[quickbooks.Entity]int{quickbooks.EntityBill: 7, quickbooks.EntityCustomer: 7},
		fail:  map[fetchCall]error{{quickbooks.EntityCustomer, 1, 5}: errors.New("unavailable")},
	}
	c := newTestController(p, newRecordingWriter(), validToken)

	run := &Run{ID: "r", Bills: 1, Customers: 1}
	_, err := c.Step(context.Background(), run)

	var fetchErr *quickbooks.RemoteFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, Cursor(4), run.Bills, "bills batch was committed before the failure")
	assert.Equal(t, Cursor(1), run.Customers)

	// the failing bills fetch aborts before customers are touched
	p.fail = map[fetchCall]error{{quickbooks.EntityBill, 4, 3}: errors.New("unavailable")}
	p.calls = nil
	_, err = c.Step(context.Background(), run)
	require.Error(t, err)
	assert.Equal(t, Cursor(4), run.Bills)
	assert.Empty(t, p.starts(quickbooks.EntityCustomer))
}

func TestFetchTimeoutIsFlagged(t *testing.T) {
	p := &fakeProvider{
		total: map[quickbooks.Entity]int{quickbooks.EntityBill: 4},
		fail:  map[fetchCall]error{{quickbooks.EntityBill, 1, 3}: context.DeadlineExceeded},
	}
	c := newTestController(p, newRecordingWriter(), validToken)

	run := &Run{ID: "r", Bills: 1, Customers: CursorExhausted}
	res, err := c.Step(context.Background(), run)
	require.Error(t, err)
	assert.True(t, res.Bills.TimedOut)
	assert.Equal(t, Cursor(1), run.Bills)

	p.fail = map[fetchCall]error{{quickbooks.EntityBill, 1, 3}: errors.New("unavailable")}
	res, err = c.Step(context.Background(), run)
	require.Error(t, err)
	assert.False(t, res.Bills.TimedOut)
}

func TestPersistenceFailureKeepsCursor(t *testing.T) {
	p := &fakeProvider{total: map[quickbooks.Entity]int{quickbooks.EntityBill: 7}}
	w := newRecordingWriter()
	w.failAt[quickbooks.EntityBill] = 2
	c := newTestController(p, w, validToken)

	run := &Run{ID: "r", Bills: 1, Customers: CursorExhausted}
	_, err := c.Step(context.Background(), run)
	require.NoError(t, err)
	require.Equal(t, Cursor(4), run.Bills)

	_, err = c.Step(context.Background(), run)
	var pErr *PersistenceError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, 4, pErr.StartPosition)
	assert.Equal(t, Cursor(4), run.Bills)

	// retrying the step fetches the same page again
	w.failAt = map[quickbooks.Entity]int{}
	_, err = c.Step(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 4}, p.starts(quickbooks.EntityBill))
	assert.Equal(t, Cursor(7), run.Bills)
}

func TestRunToCompletion(t *testing.T) {
	p := &fakeProvider{total: map[quickbooks.Entity]int{quickbooks.EntityBill: 7, quickbooks.EntityCustomer: 12}}
	store := NewMemoryRunStore()
	c := NewController(Options{
		Fetcher:  p,
		Tokens:   staticTokens{tok: validToken},
		Writer:   newRecordingWriter(),
		Settings: fixedSettings{bills: 3, customers: 5},
		Store:    store,
	})

	run := NewRun()
	steps, err := c.RunToCompletion(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 4, steps)
	assert.True(t, run.Done())
	assert.Equal(t, []int{1, 6, 11, 13}, p.starts(quickbooks.EntityCustomer))

	saved, err := store.Load(context.Background(), run.ID)
	require.NoError(t, err)
	assert.True(t, saved.Done())
}

func TestRunToCompletionResumesFailedStream(t *testing.T) {
	p := &fakeProvider{
		total: map[quickbooks.Entity]int{quickbooks.EntityBill: 2, quickbooks.EntityCustomer: 20},
		fail:  map[fetchCall]error{{quickbooks.EntityCustomer, 11, 5}: errors.New("unavailable")},
	}
	store := NewMemoryRunStore()
	c := NewController(Options{
		Fetcher:  p,
		Tokens:   staticTokens{tok: validToken},
		Writer:   newRecordingWriter(),
		Settings: fixedSettings{bills: 3, customers: 5},
		Store:    store,
	})

	run := NewRun()
	_, err := c.RunToCompletion(context.Background(), run)
	require.Error(t, err)

	saved, err := store.Load(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, CursorExhausted, saved.Bills)
	assert.Equal(t, Cursor(11), saved.Customers)

	p.fail = nil
	p.calls = nil
	_, err = c.RunToCompletion(context.Background(), saved)
	require.NoError(t, err)
	require.NotEmpty(t, p.calls)
	assert.Equal(t, fetchCall{quickbooks.EntityCustomer, 11, 5}, p.calls[0])
	assert.Empty(t, p.starts(quickbooks.EntityBill), "exhausted bills are not fetched again")
	assert.Equal(t, []int{11, 16, 21}, p.starts(quickbooks.EntityCustomer))

	// a finished run is started over
	p.calls = nil
	_, err = c.RunToCompletion(context.Background(), saved)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, p.starts(quickbooks.EntityBill))
}

func TestRunToCompletionStopsOnCancel(t *testing.T) {
	p := &fakeProvider{total: map[quickbooks.Entity]int{quickbooks.EntityBill: 7}}
	c := newTestController(p, newRecordingWriter(), validToken)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	steps, err := c.RunToCompletion(ctx, NewRun())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, steps)
	assert.Empty(t, p.calls)
}

func TestStepStream(t *testing.T) {
	p := &fakeProvider{total: map[quickbooks.Entity]int{quickbooks.EntityCustomer: 4}}
	c := newTestController(p, newRecordingWriter(), validToken)

	cursor := Cursor(1)
	res, err := c.StepStream(context.Background(), "", quickbooks.EntityCustomer, &cursor, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Records)
	assert.Equal(t, Cursor(5), cursor)

	res, err = c.StepStream(context.Background(), "", quickbooks.EntityCustomer, &cursor, 10)
	require.NoError(t, err)
	assert.True(t, cursor.Exhausted())
	assert.Zero(t, res.Records)
}

type recordingMetrics struct {
	records  map[quickbooks.Entity]int
	failures map[quickbooks.Entity]int
}

func (m *recordingMetrics) RecordPage(_ context.Context, entity quickbooks.Entity, records int) error {
	m.records[entity] += records
	return nil
}

func (m *recordingMetrics) RecordFailure(_ context.Context, entity quickbooks.Entity) error {
	m.failures[entity]++
	return errors.New("redis down")
}

func TestStepRecordsMetrics(t *testing.T) {
	p := &fakeProvider{
		total: map[quickbooks.Entity]int{quickbooks.EntityBill: 4, quickbooks.EntityCustomer: 2},
		fail:  map[fetchCall]error{{quickbooks.EntityCustomer, 1, 5}: errors.New("unavailable")},
	}
	m := &recordingMetrics{records: map[quickbooks.Entity]int{}, failures: map[quickbooks.Entity]int{}}
	c := NewController(Options{
		Fetcher:  p,
		Tokens:   staticTokens{tok: validToken},
		Writer:   newRecordingWriter(),
		Settings: fixedSettings{bills: 3, customers: 5},
		Metrics:  m,
	})

	run := &Run{ID: "r", Bills: 1, Customers: 1}
	_, err := c.Step(context.Background(), run)
	require.Error(t, err, "a failing metrics sink does not mask the fetch error")

	p.fail = nil
	_, err = c.Step(context.Background(), run)
	require.NoError(t, err)

	assert.Equal(t, map[quickbooks.Entity]int{quickbooks.EntityBill: 4, quickbooks.EntityCustomer: 2}, m.records)
	assert.Equal(t, map[quickbooks.Entity]int{quickbooks.EntityCustomer: 1}, m.failures)
}
