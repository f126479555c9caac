package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/testutil"
)

type recordingWriter struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (w *recordingWriter) Log(_ context.Context, ev audit.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, ev)
	return w.err
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	w := &recordingWriter{}
	d := audit.NewDispatcher(w, zap.NewNop())

	for i := 0; i < 10; i++ {
		d.Dispatch(audit.Event{Action: "appointment_created"})
	}
	d.Close()

	assert.Len(t, w.events, 10)
}

func TestDispatcherSurvivesWriterErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("db down")}
	d := audit.NewDispatcher(w, zap.NewNop())

	d.Dispatch(audit.Event{Action: "a"})
	d.Dispatch(audit.Event{Action: "b"})
	d.Close()

	assert.Len(t, w.events, 2)
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *audit.Dispatcher
	assert.NotPanics(t, func() { d.Dispatch(audit.Event{Action: "x"}) })
}

func TestLoggerPersistsMetadata(t *testing.T) {
	db := testutil.NewDB(t)
	actor := uuid.New()
	entity := uuid.New()

	err := audit.New(db).Log(context.Background(), audit.Event{
		ActorID:  &actor,
		Action:   "appointment_cancelled",
		Entity:   "appointment",
		EntityID: &entity,
		Metadata: map[string]string{"reason": "cliente desmarcou"},
	})
	require.NoError(t, err)

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, "appointment_cancelled", row.Action)
	assert.Equal(t, entity, *row.EntityID)
	assert.JSONEq(t, `{"reason":"cliente desmarcou"}`, row.Metadata)
}
