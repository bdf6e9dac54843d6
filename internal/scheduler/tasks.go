package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskCallCompleted = "calls.completed"

const callEventTaskIDPrefix = "call-event:"

// CallCompletedPayload carries the webhook body exactly as received.
// Body is base64 in the task JSON so non-UTF-8 or malformed input survives untouched.
type CallCompletedPayload struct {
	ConversationID string    `json:"conversationId,omitempty"`
	Body           []byte    `json:"body"`
	ReceivedAt     time.Time `json:"receivedAt"`
	RequestID      string    `json:"requestId,omitempty"`
}

// CallEventTaskID is the asynq task id for a conversation. Empty when the id is unknown.
func CallEventTaskID(conversationID string) string {
	if conversationID == "" {
		return ""
	}
	return callEventTaskIDPrefix + conversationID
}

func NewCallCompletedTask(payload CallCompletedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCallCompleted, data), nil
}

func ParseCallCompletedPayload(task *asynq.Task) (CallCompletedPayload, error) {
	var payload CallCompletedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CallCompletedPayload{}, err
	}
	return payload, nil
}
