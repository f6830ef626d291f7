// Package streaming folds an incremental chunk sequence into one completed
// canonical assistant message plus usage totals.
package streaming

import (
	"errors"
	"io"

	"github.com/harunnryd/musubi/content"
)

// ToolCallDelta is one incremental fragment of a tool call. Deltas may carry
// only a name, only an argument fragment, or both; Index ties fragments of
// the same call together across chunks.
type ToolCallDelta struct {
	Index        int
	ID           string
	Name         string
	ArgsFragment string
}

// Chunk is one incremental unit of a streamed response, already converted
// from the backend's delta format. Usage, when present, is a per-delta count,
// not a cumulative snapshot; backend stream decoders are responsible for
// honoring that contract.
type Chunk struct {
	TextDelta    string
	ToolDeltas   []ToolCallDelta
	Usage        *content.Usage
	Model        string
	ResponseID   string
	FinishReason content.FinishReason
}

// Stream yields chunks until io.EOF. Close releases the underlying transport
// and is safe to call before the stream is exhausted; doing so simply leaves
// any attached aggregator incomplete.
type Stream interface {
	Recv() (Chunk, error)
	Close() error
}

// Drain consumes a stream to completion and returns the closed aggregator.
func Drain(s Stream) (*Aggregator, error) {
	defer s.Close()

	agg := NewAggregator()
	for {
		chunk, err := s.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				agg.Finish()
				return agg, nil
			}
			return nil, err
		}
		agg.Add(chunk)
	}
}
