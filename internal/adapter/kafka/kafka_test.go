package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesor-publico/noticias/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testRecord() domain.ReportRecord {
	return domain.ReportRecord{
		Title:       "Leones hoy",
		LastUpdated: "2026-10-15T08:30:00-03:00",
		Categories:  []domain.Category{{Name: domain.CategoryAgenda, Content: "Feria <hoy>"}},
	}
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage("leones", "20261015", testRecord())
	require.NoError(t, err)

	assert.Equal(t, []byte("leones:20261015"), msg.Key)
	assert.Contains(t, string(msg.Value), `"title": "Leones hoy"`)
	assert.Contains(t, string(msg.Value), "Feria <hoy>")
	assert.True(t, msg.Time.Equal(time.Date(2026, 10, 15, 11, 30, 0, 0, time.UTC)))

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "locality", msg.Headers[0].Key)
	assert.Equal(t, []byte("leones"), msg.Headers[0].Value)
	assert.Equal(t, "report_date", msg.Headers[1].Key)
	assert.Equal(t, []byte("20261015"), msg.Headers[1].Value)
	assert.Equal(t, "last_updated", msg.Headers[2].Key)
	assert.Equal(t, []byte("2026-10-15T08:30:00-03:00"), msg.Headers[2].Value)
}

func TestSerializeToMessage_UnparseableTimestamp(t *testing.T) {
	rec := testRecord()
	rec.LastUpdated = ""
	msg, err := serializeToMessage("leones", "20261015", rec)
	require.NoError(t, err)
	assert.True(t, msg.Time.IsZero())
}

func TestWriter_Publish(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	loc := domain.LocalityContext{ID: "leones"}
	require.NoError(t, w.Publish(context.Background(), loc, testRecord(), "20261015"))

	require.Len(t, fw.msgs, 1)
	assert.Equal(t, []byte("leones:20261015"), fw.msgs[0].Key)
	assert.Equal(t, "kafka", w.Name())

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_PublishError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker unavailable")}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.Publish(context.Background(), domain.LocalityContext{ID: "leones"}, testRecord(), "20261015")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}
