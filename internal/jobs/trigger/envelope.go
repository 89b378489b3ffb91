package trigger

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
)

// AttrStage names the stage a message is addressed to when a single route
// receives triggers for every stage.
const AttrStage = "stage"

// Envelope is the push-delivery wrapper: an enclosing object carrying a
// nested message whose data is base64-encoded JSON.
type Envelope struct {
	Message      *Message `json:"message"`
	Subscription string   `json:"subscription,omitempty"`
}

type Message struct {
	Data        string            `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"message_id,omitempty"`
	PublishTime string            `json:"publish_time,omitempty"`
}

// Trigger is a decoded envelope.
type Trigger struct {
	Payload    map[string]any
	Attributes map[string]string
	MessageID  string
}

func (t Trigger) Stage() string {
	return strings.TrimSpace(t.Attributes[AttrStage])
}

var errMalformed = errors.New("malformed trigger envelope")

// Decode parses a raw push body. Every structural problem is reported as an
// invalid-argument error so the transport does not redeliver it.
func Decode(body []byte) (Trigger, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Trigger{}, malformed("decode envelope: %v", err)
	}
	if env.Message == nil {
		return Trigger{}, malformed("missing message")
	}
	return env.Message.Decode()
}

func (m *Message) Decode() (Trigger, error) {
	if m == nil {
		return Trigger{}, malformed("missing message")
	}
	if strings.TrimSpace(m.Data) == "" {
		return Trigger{}, malformed("missing message.data")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(m.Data))
	if err != nil {
		return Trigger{}, malformed("message.data is not base64: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Trigger{}, malformed("message.data is not a JSON object: %v", err)
	}
	if payload == nil {
		return Trigger{}, malformed("message.data is null")
	}
	return Trigger{Payload: payload, Attributes: m.Attributes, MessageID: m.MessageID}, nil
}

func malformed(format string, args ...any) error {
	return apierr.New(400, "malformed_trigger", fmt.Errorf("%w: %w: %s", apierr.ErrInvalidArgument, errMalformed, fmt.Sprintf(format, args...)))
}

// Encode wraps payload in the same envelope shape Decode accepts, addressed
// to stage and tagged with the given topic as subscription.
func Encode(topic, stage string, payload any, attrs map[string]string) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode trigger payload: %w", err)
	}
	a := map[string]string{AttrStage: stage}
	for k, v := range attrs {
		a[k] = v
	}
	return Envelope{
		Subscription: topic,
		Message: &Message{
			Data:        base64.StdEncoding.EncodeToString(raw),
			Attributes:  a,
			MessageID:   uuid.NewString(),
			PublishTime: time.Now().UTC().Format(time.RFC3339Nano),
		},
	}, nil
}
