package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-batch/internal/event"
	"github.com/ytget/yt-batch/internal/model"
)

var jobTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type wsMessage struct {
	Type string      `json:"type"`
	Job  model.Job   `json:"job"`
	Jobs []model.Job `json:"jobs"`
}

func startHubServer(t *testing.T, svc *fakeService) (*httptest.Server, event.Bus) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	bus := event.NewBus()
	unsubscribe := event.SubscribeAll(bus, hub.HandleEvent)

	ts := httptest.NewServer(New(svc, hub).Handler())
	t.Cleanup(func() {
		unsubscribe()
		cancel()
		ts.Close()
	})
	return ts, bus
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_PushesFilteredUpdates(t *testing.T) {
	svc := newFakeService()
	watched := model.NewJob("watched", model.JobSpec{}, jobTime)
	other := model.NewJob("other", model.JobSpec{}, jobTime)
	svc.put(watched)
	svc.put(other)

	ts, bus := startHubServer(t, svc)
	conn := dial(t, ts, "?job=watched")

	initial := read(t, conn)
	assert.Equal(t, MessageInitialJobs, initial.Type)
	require.Len(t, initial.Jobs, 1)
	assert.Equal(t, "watched", initial.Jobs[0].ID)

	other.Progress = 10
	bus.Publish(context.Background(), event.Event{Type: event.EventJobUpdated, Job: other})
	watched.Status = model.JobStatusRunning
	watched.Progress = 30
	bus.Publish(context.Background(), event.Event{Type: event.EventJobUpdated, Job: watched})

	update := read(t, conn)
	assert.Equal(t, MessageJobUpdate, update.Type)
	assert.Equal(t, "watched", update.Job.ID)
	assert.Equal(t, 30, update.Job.Progress)
	assert.Equal(t, model.JobStatusRunning, update.Job.Status)
}

func TestHub_UnfilteredClientSeesEveryJob(t *testing.T) {
	svc := newFakeService()
	svc.put(model.NewJob("a", model.JobSpec{}, jobTime))
	ts, bus := startHubServer(t, svc)
	conn := dial(t, ts, "")

	initial := read(t, conn)
	assert.Len(t, initial.Jobs, 1)

	for _, id := range []string{"a", "b"} {
		bus.Publish(context.Background(), event.Event{Type: event.EventJobUpdated, Job: model.NewJob(id, model.JobSpec{}, jobTime)})
	}
	assert.Equal(t, "a", read(t, conn).Job.ID)
	assert.Equal(t, "b", read(t, conn).Job.ID)
}

func TestHub_UnknownJobRejected(t *testing.T) {
	ts, _ := startHubServer(t, newFakeService())
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?job=missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHub_ClosesClientsOnStop(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, hub.Count())
}

// completingService finishes the job right after the first status lookup,
// before the socket is registered with the hub
type completingService struct {
	*fakeService
	bus  event.Bus
	once sync.Once
}

func (c *completingService) Status(id string) (model.Job, error) {
	job, err := c.fakeService.Status(id)
	if err != nil {
		return job, err
	}
	c.once.Do(func() {
		done := job
		done.Status = model.JobStatusCompleted
		done.Progress = 100
		c.put(done)
		c.bus.Publish(context.Background(), event.Event{Type: event.EventJobCompleted, Job: done})
	})
	return job, nil
}

func TestHub_UpdateBeforeRegistrationIsNotLost(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	bus := event.NewBus()
	unsubscribe := event.SubscribeAll(bus, hub.HandleEvent)

	svc := &completingService{fakeService: newFakeService(), bus: bus}
	svc.put(model.NewJob("j", model.JobSpec{}, jobTime))

	ts := httptest.NewServer(New(svc, hub).Handler())
	t.Cleanup(func() {
		unsubscribe()
		cancel()
		ts.Close()
	})

	conn := dial(t, ts, "?job=j")

	var last model.JobStatus
	for last != model.JobStatusCompleted {
		msg := read(t, conn)
		switch msg.Type {
		case MessageInitialJobs:
			require.Len(t, msg.Jobs, 1)
			last = msg.Jobs[0].Status
		case MessageJobUpdate:
			last = msg.Job.Status
		}
	}
	assert.Equal(t, model.JobStatusCompleted, last)
}

func TestHub_ForwardsRemoval(t *testing.T) {
	svc := newFakeService()
	ts, bus := startHubServer(t, svc)
	conn := dial(t, ts, "")

	assert.Equal(t, MessageInitialJobs, read(t, conn).Type)

	bus.Publish(context.Background(), event.Event{Type: event.EventJobRemoved, Job: model.NewJob("gone", model.JobSpec{}, jobTime)})
	msg := read(t, conn)
	assert.Equal(t, MessageJobRemoved, msg.Type)
	assert.Equal(t, "gone", msg.Job.ID)
}
