package oaicompat

import (
	"github.com/harunnryd/musubi/streaming"

	"github.com/meguminnnnnnnnn/go-openai"
)

// WrapStream adapts an SDK chat-completion stream to the canonical chunk
// stream. This dialect reports usage once, as a final whole-call block
// (stream_options.include_usage), which satisfies the aggregator's additive
// per-delta contract trivially.
func WrapStream(sdk *openai.ChatCompletionStream) streaming.Stream {
	return &streaming.FuncStream{
		RecvFunc: func() (streaming.Chunk, error) {
			resp, err := sdk.Recv()
			if err != nil {
				return streaming.Chunk{}, err
			}
			return chunkFrom(resp), nil
		},
		CloseFunc: sdk.Close,
	}
}

func chunkFrom(resp openai.ChatCompletionStreamResponse) streaming.Chunk {
	chunk := streaming.Chunk{
		Model:      resp.Model,
		ResponseID: resp.ID,
	}

	if resp.Usage != nil {
		u := usageFrom(resp.Usage)
		chunk.Usage = &u
	}

	if len(resp.Choices) == 0 {
		return chunk
	}
	choice := resp.Choices[0]

	chunk.TextDelta = choice.Delta.Content
	for _, tc := range choice.Delta.ToolCalls {
		idx := 0
		if tc.Index != nil {
			idx = *tc.Index
		}
		chunk.ToolDeltas = append(chunk.ToolDeltas, streaming.ToolCallDelta{
			Index:        idx,
			ID:           tc.ID,
			Name:         tc.Function.Name,
			ArgsFragment: tc.Function.Arguments,
		})
	}

	if choice.FinishReason != "" {
		chunk.FinishReason = finishReason(string(choice.FinishReason))
	}
	return chunk
}
