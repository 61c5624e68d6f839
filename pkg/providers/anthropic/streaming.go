package anthropic

import (
	"encoding/json"

	"lite-hq/lite/pkg/providers"
)

// streamEvent covers the two event types that produce chunks. Both carry
// a delta object; which fields are set depends on Type.
type streamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
}

// decodeStreamEvent turns content_block_delta into a text chunk and
// message_delta into a finish chunk. Everything else (message_start,
// ping, content_block_start/stop, message_stop) is dropped.
func decodeStreamEvent(payload string) (providers.StreamChunk, bool) {
	var ev streamEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.Delta == nil {
		return providers.StreamChunk{}, false
	}

	switch ev.Type {
	case "content_block_delta":
		return providers.StreamChunk{Delta: ev.Delta.Text}, true
	case "message_delta":
		return providers.StreamChunk{FinishReason: MapStopReason(ev.Delta.StopReason)}, true
	default:
		return providers.StreamChunk{}, false
	}
}
