package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"commandcenter/internal/domain"
	"commandcenter/internal/telemetry"
)

// classifiedLine is one output record of the classify command
type classifiedLine struct {
	Line  string            `json:"line"`
	Kind  string            `json:"kind,omitempty"`
	Event domain.GraphEvent `json:"event,omitempty"`
}

// runClassify prints one JSON object per classified input line
func runClassify(in io.Reader, out io.Writer, all bool) error {
	br := bufio.NewReader(in)
	enc := json.NewEncoder(out)

	for {
		text, err := br.ReadString('\n')
		if len(text) > 0 {
			text = strings.TrimRight(text, "\r\n")
			rec := classifiedLine{Line: text}
			if ev, ok := telemetry.Classify(text); ok {
				rec.Kind = domain.EventKind(ev)
				rec.Event = ev
			}
			if rec.Event != nil || all {
				if err := enc.Encode(rec); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
	}
}
