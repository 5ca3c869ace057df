package types

// RelayOutcome is the terminal result of processing a single relay event.
type RelayOutcome string

const (
	// RelayOutcomeRelayed means the release transaction was submitted and
	// the nonce was marked processed.
	RelayOutcomeRelayed RelayOutcome = "relayed"
	// RelayOutcomeSkippedDuplicate means the nonce was already processed
	// (or absent) and no submission was attempted.
	RelayOutcomeSkippedDuplicate RelayOutcome = "skipped_duplicate"
	// RelayOutcomeRejectedCompliance means the sender failed the compliance
	// gate.
	RelayOutcomeRejectedCompliance RelayOutcome = "rejected_compliance"
	// RelayOutcomeRejectedMalformed means the event was missing a valid
	// recipient or amount.
	RelayOutcomeRejectedMalformed RelayOutcome = "rejected_malformed"
	// RelayOutcomeSubmissionFailed means the release submission faulted;
	// the nonce stays unmarked so a re-presented event may retry.
	RelayOutcomeSubmissionFailed RelayOutcome = "submission_failed"
)
