package vm

import (
	"encoding/json"
)

// TraceEvent is one entry in the VM's trace stream: a monotonic call
// id, a wall timestamp, an event kind, the canonical path of the node,
// and a compact payload, as spec.md §4.2/§6 describe.
type TraceEvent struct {
	Ts      int64  `json:"ts"`
	CallID  int64  `json:"call_id"`
	Kind    string `json:"kind"` // enter, exit, eval, effect
	Op      string `json:"op,omitempty"`
	Path    string `json:"path"`
	Channel string `json:"channel,omitempty"`
}

// NDJSON renders one compact JSON line, per the CLI's NDJSON trace
// format in spec.md §6.
func (e TraceEvent) NDJSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}
