package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("job-1", MessageTypeIndexJob, &IndexJobMessage{
		JobID:      "job-1",
		DocumentID: "doc-1",
		JobType:    "document_index",
	})
	require.NoError(t, err)
	assert.Equal(t, "job-1", msg.ID)
	assert.Equal(t, MessageTypeIndexJob, msg.Type)
	assert.False(t, msg.CreatedAt.IsZero())

	var payload IndexJobMessage
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, "doc-1", payload.DocumentID)
}

func TestMessage_Metadata(t *testing.T) {
	msg := &Message{}
	assert.Equal(t, "", msg.GetMetadata("request_id"))

	msg.SetMetadata("request_id", "req-1")
	assert.Equal(t, "req-1", msg.GetMetadata("request_id"))
}

func TestStream_DLQStream(t *testing.T) {
	assert.Equal(t, "dlq:stream:knowledge:index", StreamDocumentIndex.DLQStream())
}

func TestBackoffConfig_CalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(1))
	assert.Equal(t, 8*time.Second, cfg.CalculateBackoff(3))
	// 超过上限后封顶
	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(10))
}
