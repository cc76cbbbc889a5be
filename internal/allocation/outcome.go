package allocation

import (
	prizedomain "github.com/smallbiznis/prizewheel/internal/prize/domain"
)

type Kind string

const (
	KindWon           Kind = "won"
	KindAlreadyPlayed Kind = "already_played"
	KindInvalid       Kind = "invalid"
)

// Outcome is the result of one draw. Only the fields for its Kind are set.
type Outcome struct {
	Kind Kind

	// Won
	Segment prizedomain.Segment
	Index   int
	Code    string

	// AlreadyPlayed
	ExistingCode  string
	ExistingLabel string

	// Invalid
	Reason error
}

func Won(seg prizedomain.IndexedSegment, code string) Outcome {
	return Outcome{Kind: KindWon, Segment: seg.Segment, Index: seg.Index, Code: code}
}

func AlreadyPlayed(code, label string) Outcome {
	return Outcome{Kind: KindAlreadyPlayed, ExistingCode: code, ExistingLabel: label}
}

func Invalid(reason error) Outcome {
	return Outcome{Kind: KindInvalid, Reason: reason}
}
