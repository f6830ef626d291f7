package anthropic

import (
	"io"

	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/streaming"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// wrapStream adapts the SDK event stream to canonical chunks. Anthropic
// reports output tokens as cumulative snapshots on message_delta events; the
// decoder re-expresses them as per-delta differences to honor the
// aggregator's additive contract.
func wrapStream(sdk *ssestream.Stream[anthropic.MessageStreamEventUnion]) streaming.Stream {
	dec := &streamDecoder{sdk: sdk}
	return &streaming.FuncStream{
		RecvFunc:  dec.recv,
		CloseFunc: sdk.Close,
	}
}

type streamDecoder struct {
	sdk        *ssestream.Stream[anthropic.MessageStreamEventUnion]
	lastOutput int64
}

func (d *streamDecoder) recv() (streaming.Chunk, error) {
	for d.sdk.Next() {
		chunk, ok := d.decode(d.sdk.Current())
		if ok {
			return chunk, nil
		}
	}
	if err := d.sdk.Err(); err != nil {
		return streaming.Chunk{}, err
	}
	return streaming.Chunk{}, io.EOF
}

func (d *streamDecoder) decode(event anthropic.MessageStreamEventUnion) (streaming.Chunk, bool) {
	switch ev := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		usage := content.Usage{
			InputTokens:  ev.Message.Usage.InputTokens,
			CachedTokens: ev.Message.Usage.CacheReadInputTokens,
		}
		return streaming.Chunk{
			Model:      string(ev.Message.Model),
			ResponseID: ev.Message.ID,
			Usage:      &usage,
		}, true

	case anthropic.ContentBlockStartEvent:
		if tu, ok := ev.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
			return streaming.Chunk{
				ToolDeltas: []streaming.ToolCallDelta{{
					Index: int(ev.Index),
					ID:    tu.ID,
					Name:  tu.Name,
				}},
			}, true
		}
		return streaming.Chunk{}, false

	case anthropic.ContentBlockDeltaEvent:
		switch delta := ev.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			return streaming.Chunk{TextDelta: delta.Text}, true
		case anthropic.InputJSONDelta:
			return streaming.Chunk{
				ToolDeltas: []streaming.ToolCallDelta{{
					Index:        int(ev.Index),
					ArgsFragment: delta.PartialJSON,
				}},
			}, true
		default:
			return streaming.Chunk{}, false
		}

	case anthropic.MessageDeltaEvent:
		chunk := streaming.Chunk{}
		if ev.Delta.StopReason != "" {
			chunk.FinishReason = finishReason(string(ev.Delta.StopReason))
		}
		if ev.Usage.OutputTokens > 0 {
			diff := ev.Usage.OutputTokens - d.lastOutput
			d.lastOutput = ev.Usage.OutputTokens
			if diff > 0 {
				chunk.Usage = &content.Usage{OutputTokens: diff}
			}
		}
		return chunk, true

	default:
		// content_block_stop, message_stop, ping. Nothing to fold in.
		return streaming.Chunk{}, false
	}
}
