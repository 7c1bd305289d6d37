package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexJob_Lifecycle(t *testing.T) {
	job := NewIndexJob("doc-1", JobTypeDocumentIndex, nil)
	require.Equal(t, JobStatusPending, job.Status)
	assert.False(t, job.IsTerminal())

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)
	assert.False(t, job.IsTerminal())

	job.Complete(json.RawMessage(`{"elapsed_ms":12}`))
	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)
	assert.True(t, job.IsTerminal())
	assert.GreaterOrEqual(t, job.DurationMs, 0)
}

func TestIndexJob_Fail(t *testing.T) {
	job := NewIndexJob("", JobTypeIndexRebuild, nil)
	job.Start()
	job.Fail("milvus unreachable")

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "milvus unreachable", job.ErrorMessage)
	assert.True(t, job.IsTerminal())
}
