package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/withceleste/celeste-go/internal/utils"
)

// SSE adapts a Server-Sent Events body into a raw event sequence. Each data
// payload is decoded as one JSON object; the sequence ends at EOF or the
// [DONE] sentinel. The caller still owns closing the underlying reader,
// typically via the aggregator's OnDone hook.
func SSE(r io.Reader) iter.Seq2[RawEvent, error] {
	return func(yield func(RawEvent, error) bool) {
		scanner := utils.NewSSEScanner(r)
		for {
			payload, err := scanner.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}

			var event RawEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				yield(nil, fmt.Errorf("decoding stream event: %w", err))
				return
			}
			if !yield(event, nil) {
				return
			}
		}
	}
}
