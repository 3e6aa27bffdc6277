package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wearsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/wearsync/internal/core/domain"
)

// errSink fails every upsert with a transport error.
type errSink struct {
	*memory.Sink
	err error
}

func (s errSink) Upsert(context.Context, string, domain.Row) error { return s.err }

func TestUploader_FiltersToSchema(t *testing.T) {
	sink := memory.NewSink()
	sink.CreateTable("t", []string{"a"}, "a", "b")
	u := NewUploader(sink, NewSchemaCache(sink))

	outcomes, err := u.Upload(context.Background(), "t", []domain.Row{{"a": 1, "b": 2, "c": 3}})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Accepted())

	assert.Equal(t, []domain.Row{{"a": 1, "b": 2}}, sink.Payloads("t"))
}

func TestUploader_RejectedRowDoesNotStopBatch(t *testing.T) {
	sink := memory.NewSink()
	sink.CreateTable("t", []string{"a"}, "a", "b")
	u := NewUploader(sink, NewSchemaCache(sink))

	outcomes, err := u.Upload(context.Background(), "t", []domain.Row{
		{"a": nil, "b": 1},
		{"a": 2, "b": 2},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, domain.OutcomeRejected, outcomes[0].Status)
	assert.Equal(t, 400, outcomes[0].StatusCode)
	assert.Contains(t, outcomes[0].Body, "null value")
	assert.True(t, outcomes[1].Accepted())
	assert.Len(t, sink.Rows("t"), 1)
}

func TestUploader_TransportErrorIsRejection(t *testing.T) {
	mem := memory.NewSink()
	mem.CreateTable("t", []string{"a"}, "a")
	sink := errSink{Sink: mem, err: errors.New("connection reset")}
	u := NewUploader(sink, NewSchemaCache(sink))

	outcomes, err := u.Upload(context.Background(), "t", []domain.Row{{"a": 1}})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.OutcomeRejected, outcomes[0].Status)
	assert.Zero(t, outcomes[0].StatusCode)
	assert.Equal(t, "connection reset", outcomes[0].Body)
}

func TestUploader_SchemaFailureAttemptsNothing(t *testing.T) {
	sink := memory.NewSink()
	sink.CreateTable("t", []string{"a"}, "a")
	sink.FailIntrospection("t", errors.New("forbidden"))
	u := NewUploader(sink, NewSchemaCache(sink))

	outcomes, err := u.Upload(context.Background(), "t", []domain.Row{{"a": 1}})
	assert.ErrorIs(t, err, domain.ErrSchemaUnavailable)
	assert.Nil(t, outcomes)
	assert.Empty(t, sink.Payloads("t"))
}

func TestUploader_NoRows(t *testing.T) {
	sink := memory.NewSink()
	u := NewUploader(sink, NewSchemaCache(sink))

	outcomes, err := u.Upload(context.Background(), "missing", nil)
	assert.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Zero(t, sink.Introspections("missing"))
}
