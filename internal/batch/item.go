package batch

import "fmt"

type (
	JobItemState int

	// JobItem tracks one row ordinal through the pipeline. The item
	// carries the deterministic job id derived from its ordinal, and
	// (when the job fails) the tagged reason for the failure.
	JobItem struct {
		Ordinal       int
		ID            string
		State         JobItemState
		FailureReason string
	}
)

const (
	PENDING JobItemState = iota
	PROCESSING
	COMPLETE
	SKIPPED
	FAILED
)

func (item *JobItem) String() string {
	return fmt.Sprintf("JobItem{ordinal=%d id=%s state=%s}", item.Ordinal, item.ID, item.State)
}

func (s JobItemState) String() string {
	switch s {
	case PENDING:
		return fmt.Sprintf("PENDING[%d]", s)
	case PROCESSING:
		return fmt.Sprintf("PROCESSING[%d]", s)
	case COMPLETE:
		return fmt.Sprintf("COMPLETE[%d]", s)
	case SKIPPED:
		return fmt.Sprintf("SKIPPED[%d]", s)
	case FAILED:
		return fmt.Sprintf("FAILED[%d]", s)
	default:
		return fmt.Sprintf("UNKNOWN[%d]", s)
	}
}
