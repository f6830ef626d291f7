package codex

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"
	"github.com/harunnryd/musubi/streaming"
)

// sseStream decodes the Responses-API event stream into canonical chunks.
// Events that carry nothing a consumer can use (pings, lifecycle markers)
// are skipped, so every returned chunk is non-empty.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	slots    map[string]*toolSlot
	nextSlot int
	sawTools bool
	done     bool
}

// toolSlot tracks one in-flight function call across its add, delta and done
// events.
type toolSlot struct {
	index   int
	sawArgs bool
}

func newSSEStream(body io.ReadCloser) streaming.Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 8<<20)
	return &sseStream{
		body:    body,
		scanner: scanner,
		slots:   make(map[string]*toolSlot),
	}
}

func (s *sseStream) Recv() (streaming.Chunk, error) {
	if s.done {
		return streaming.Chunk{}, io.EOF
	}

	var eventName string
	var dataLines []string

	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")

		if line == "" {
			if len(dataLines) == 0 {
				eventName = ""
				continue
			}
			chunk, ok, err := s.apply(eventName, strings.Join(dataLines, "\n"))
			eventName = ""
			dataLines = nil
			if err != nil {
				return streaming.Chunk{}, err
			}
			if ok {
				return chunk, nil
			}
			if s.done {
				return streaming.Chunk{}, io.EOF
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			payload := strings.TrimPrefix(line, "data:")
			payload = strings.TrimPrefix(payload, " ")
			dataLines = append(dataLines, payload)
		}
	}

	if err := s.scanner.Err(); err != nil {
		return streaming.Chunk{}, fault.Wrap(err, "read event stream")
	}
	s.done = true
	return streaming.Chunk{}, io.EOF
}

func (s *sseStream) Close() error {
	s.done = true
	return s.body.Close()
}

// apply decodes one SSE payload. The second return reports whether the chunk
// carries anything.
func (s *sseStream) apply(eventName, data string) (streaming.Chunk, bool, error) {
	payload := strings.TrimSpace(data)
	if payload == "" {
		return streaming.Chunk{}, false, nil
	}
	if payload == "[DONE]" {
		s.done = true
		return streaming.Chunk{}, false, nil
	}

	var evt sseEvent
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return streaming.Chunk{}, false, fault.Wrap(err, "decode stream event")
	}
	if evt.Type == "" {
		evt.Type = eventName
	}

	switch evt.Type {
	case "response.created", "response.in_progress":
		if evt.Response.ID == "" && evt.Response.Model == "" {
			return streaming.Chunk{}, false, nil
		}
		return streaming.Chunk{Model: evt.Response.Model, ResponseID: evt.Response.ID}, true, nil

	case "response.output_text.delta":
		if evt.Delta == "" {
			return streaming.Chunk{}, false, nil
		}
		return streaming.Chunk{TextDelta: evt.Delta}, true, nil

	case "response.output_item.added":
		if evt.Item.Type != "function_call" {
			return streaming.Chunk{}, false, nil
		}
		slot := s.slot(evt.Item.ID, evt.Item.CallID)
		s.sawTools = true
		delta := streaming.ToolCallDelta{
			Index: slot.index,
			ID:    evt.Item.CallID,
			Name:  evt.Item.Name,
		}
		if len(evt.Item.Arguments) > 0 {
			delta.ArgsFragment = string(evt.Item.Arguments)
			slot.sawArgs = true
		}
		return streaming.Chunk{ToolDeltas: []streaming.ToolCallDelta{delta}}, true, nil

	case "response.function_call_arguments.delta":
		slot := s.slot(evt.ItemID, evt.CallID)
		slot.sawArgs = true
		return streaming.Chunk{ToolDeltas: []streaming.ToolCallDelta{{
			Index:        slot.index,
			ID:           evt.CallID,
			Name:         evt.Name,
			ArgsFragment: evt.Delta,
		}}}, true, nil

	case "response.function_call_arguments.done":
		// Arguments arrive either fragmented or whole on the done event;
		// replay them only when no fragment was streamed for this slot.
		slot := s.slot(evt.ItemID, evt.CallID)
		if slot.sawArgs || len(evt.Arguments) == 0 {
			return streaming.Chunk{}, false, nil
		}
		slot.sawArgs = true
		return streaming.Chunk{ToolDeltas: []streaming.ToolCallDelta{{
			Index:        slot.index,
			ID:           evt.CallID,
			Name:         evt.Name,
			ArgsFragment: string(evt.Arguments),
		}}}, true, nil

	case "response.completed":
		return s.completed(evt.Response)

	case "response.failed", "error":
		return streaming.Chunk{}, false, streamError(evt, payload)

	default:
		return streaming.Chunk{}, false, nil
	}
}

func (s *sseStream) completed(resp sseResponse) (streaming.Chunk, bool, error) {
	if resp.Status == "failed" {
		if resp.Error != nil && strings.TrimSpace(resp.Error.Message) != "" {
			return streaming.Chunk{}, false, fault.FromSDK(fmt.Errorf("codex stream failed: %s", resp.Error.Message))
		}
		return streaming.Chunk{}, false, fault.Internal("codex stream failed")
	}

	chunk := streaming.Chunk{
		Model:        resp.Model,
		ResponseID:   resp.ID,
		FinishReason: content.FinishStop,
	}
	if s.sawTools {
		chunk.FinishReason = content.FinishToolCalls
	}
	if resp.Status == "incomplete" {
		chunk.FinishReason = content.FinishLength
	}
	if resp.Usage != nil {
		chunk.Usage = &content.Usage{
			InputTokens:  resp.Usage.InputTokens,
			CachedTokens: resp.Usage.InputTokensDetails.CachedTokens,
			OutputTokens: resp.Usage.OutputTokens,
		}
	}
	s.done = true
	return chunk, true, nil
}

// slot returns the accumulator slot for a function call, keyed by whichever
// of item ID and call ID the event carries.
func (s *sseStream) slot(itemID, callID string) *toolSlot {
	if callID != "" {
		if slot, ok := s.slots[callID]; ok {
			if itemID != "" {
				s.slots[itemID] = slot
			}
			return slot
		}
	}
	if itemID != "" {
		if slot, ok := s.slots[itemID]; ok {
			if callID != "" {
				s.slots[callID] = slot
			}
			return slot
		}
	}

	slot := &toolSlot{index: s.nextSlot}
	s.nextSlot++
	if callID != "" {
		s.slots[callID] = slot
	}
	if itemID != "" {
		s.slots[itemID] = slot
	}
	return slot
}

func streamError(evt sseEvent, raw string) error {
	if evt.Error != nil && strings.TrimSpace(evt.Error.Message) != "" {
		return fault.FromSDK(fmt.Errorf("codex stream error: %s", evt.Error.Message))
	}
	if evt.Response.Error != nil && strings.TrimSpace(evt.Response.Error.Message) != "" {
		return fault.FromSDK(fmt.Errorf("codex stream error: %s", evt.Response.Error.Message))
	}
	return fault.FromSDK(fmt.Errorf("codex stream error: %s", raw))
}
