package ledger

import "errors"

var (
	// ErrRangeUnavailable is returned when the node cannot serve the
	// requested block range (pruned history, not yet synced). The scanner
	// treats this as a soft fault and advances past the gap.
	ErrRangeUnavailable = errors.New("block range unavailable")
)
