package streaming

import (
	"sort"
	"strings"

	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"
)

// Aggregator reconstructs one completed assistant message from a chunk
// sequence. It is single-owner, per-call state: Add chunks while the stream
// is open, call Finish when iteration is exhausted, then read Message and
// Usage. Abandoning a stream early leaves the aggregator open; that is not a
// failure, but Message refuses to answer until Finish.
//
// Token policy: chunk usage is per-delta, so counts accumulate additively.
// Model, response ID and finish reason are last-non-empty-wins, since some
// backends only populate them on the terminal chunk.
type Aggregator struct {
	text       strings.Builder
	toolByIdx  map[int]*toolAccum
	usage      content.Usage
	sawUsage   bool
	model      string
	responseID string
	finish     content.FinishReason

	closed  bool
	message content.Message
}

type toolAccum struct {
	id   string
	name string
	args strings.Builder
}

func NewAggregator() *Aggregator {
	return &Aggregator{toolByIdx: make(map[int]*toolAccum)}
}

// Add folds one chunk into the accumulator. Calling Add after Finish is a
// programming error and panics, matching the single-owner contract.
func (a *Aggregator) Add(c Chunk) {
	if a.closed {
		panic("streaming: Add after Finish")
	}

	a.text.WriteString(c.TextDelta)

	for _, d := range c.ToolDeltas {
		acc := a.toolByIdx[d.Index]
		if acc == nil {
			acc = &toolAccum{}
			a.toolByIdx[d.Index] = acc
		}
		if d.ID != "" {
			acc.id = d.ID
		}
		if d.Name != "" {
			acc.name = d.Name
		}
		acc.args.WriteString(d.ArgsFragment)
	}

	if c.Usage != nil {
		a.usage = a.usage.Add(*c.Usage)
		a.sawUsage = true
	}
	if c.Model != "" {
		a.model = c.Model
	}
	if c.ResponseID != "" {
		a.responseID = c.ResponseID
	}
	if c.FinishReason != "" {
		a.finish = c.FinishReason
	}
}

// Finish transitions the aggregator to closed and builds the completed
// assistant message. It is idempotent.
func (a *Aggregator) Finish() {
	if a.closed {
		return
	}
	a.closed = true
	a.message = a.buildMessage()
}

// Closed reports whether the stream has been fully consumed.
func (a *Aggregator) Closed() bool { return a.closed }

// Message returns the completed assistant message. It fails with a
// StreamStateError while the stream is still open.
func (a *Aggregator) Message() (content.Message, error) {
	if !a.closed {
		return content.Message{}, &fault.StreamStateError{Op: "Message"}
	}
	return a.message, nil
}

// Usage returns the accumulated token totals. Valid only once closed.
func (a *Aggregator) Usage() (content.Usage, error) {
	if !a.closed {
		return content.Usage{}, &fault.StreamStateError{Op: "Usage"}
	}
	return a.usage, nil
}

// SawUsage reports whether any chunk carried token counts.
func (a *Aggregator) SawUsage() bool { return a.sawUsage }

// Model returns the model id reported by the stream.
func (a *Aggregator) Model() string { return a.model }

// ResponseID returns the response id reported by the stream.
func (a *Aggregator) ResponseID() string { return a.responseID }

// FinishReason returns the final finish reason.
func (a *Aggregator) FinishReason() content.FinishReason { return a.finish }

func (a *Aggregator) buildMessage() content.Message {
	indexes := make([]int, 0, len(a.toolByIdx))
	for idx := range a.toolByIdx {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var parts []content.Part
	if a.text.Len() > 0 || len(indexes) == 0 {
		parts = append(parts, content.Text{Text: a.text.String()})
	}

	for _, idx := range indexes {
		acc := a.toolByIdx[idx]
		args, err := content.ParseArgs([]byte(acc.args.String()))
		if err != nil {
			// Partial argument JSON from an interrupted call; keep the raw
			// fragment so nothing is silently dropped.
			args = content.Args{{Key: "_raw", Value: acc.args.String()}}
		}
		parts = append(parts, content.ToolCall{ID: acc.id, Name: acc.name, Args: args})
	}

	return content.Message{Role: content.RoleAssistant, Parts: parts}.Collapse()
}
