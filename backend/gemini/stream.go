package gemini

import (
	"encoding/json"
	"io"
	"iter"

	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"
	"github.com/harunnryd/musubi/streaming"

	"google.golang.org/genai"
)

// streamDecoder walks the SDK's push iterator through iter.Pull2 and maps
// each response snapshot to a canonical chunk. Usage metadata on this wire
// is cumulative per snapshot; the decoder re-expresses it as per-chunk
// deltas.
type streamDecoder struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()

	last     content.Usage
	toolIdx  int
	sawTools bool
}

func wrapStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) streaming.Stream {
	next, stop := iter.Pull2(seq)
	dec := &streamDecoder{next: next, stop: stop}
	return &streaming.FuncStream{RecvFunc: dec.recv, CloseFunc: dec.close}
}

func (d *streamDecoder) recv() (streaming.Chunk, error) {
	resp, err, ok := d.next()
	if !ok {
		return streaming.Chunk{}, io.EOF
	}
	if err != nil {
		return streaming.Chunk{}, fault.FromSDK(err)
	}
	return d.decode(resp), nil
}

func (d *streamDecoder) close() error {
	d.stop()
	return nil
}

func (d *streamDecoder) decode(resp *genai.GenerateContentResponse) streaming.Chunk {
	chunk := streaming.Chunk{
		Model:      resp.ModelVersion,
		ResponseID: resp.ResponseID,
	}

	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		if cand.Content != nil {
			for _, p := range cand.Content.Parts {
				switch {
				case p.FunctionCall != nil:
					// Function calls arrive whole, never fragmented; each
					// gets its own accumulator slot.
					args, _ := json.Marshal(p.FunctionCall.Args)
					chunk.ToolDeltas = append(chunk.ToolDeltas, streaming.ToolCallDelta{
						Index:        d.toolIdx,
						ID:           toolCallID(p.FunctionCall),
						Name:         p.FunctionCall.Name,
						ArgsFragment: string(args),
					})
					d.toolIdx++
					d.sawTools = true
				case p.Text != "":
					chunk.TextDelta += p.Text
				}
			}
		}
		if cand.FinishReason != "" {
			chunk.FinishReason = finishReason(cand.FinishReason, d.sawTools)
		}
	}

	if resp.UsageMetadata != nil {
		total := usageFrom(resp.UsageMetadata)
		delta := content.Usage{
			InputTokens:  total.InputTokens - d.last.InputTokens,
			CachedTokens: total.CachedTokens - d.last.CachedTokens,
			OutputTokens: total.OutputTokens - d.last.OutputTokens,
		}
		d.last = total
		if delta != (content.Usage{}) {
			chunk.Usage = &delta
		}
	}

	return chunk
}
