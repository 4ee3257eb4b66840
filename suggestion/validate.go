package suggestion

// DropReason explains why a suggestion was not admitted.
type DropReason string

const (
	DropMissingIndex DropReason = "missing_index"
	DropOutOfRange   DropReason = "out_of_range"
)

// Rejection records one suggestion that failed admission.
type Rejection struct {
	Position   int // position in the input list
	Suggestion Suggestion
	Reason     DropReason
}

// Report is the outcome of validating a suggestion list.
type Report struct {
	Kept    []Suggestion
	Dropped []Rejection
}

// Admit applies the admission rules to a single suggestion, first match wins:
//
//  1. replace_all is always admitted;
//  2. a missing or null block_index is rejected;
//  3. a block_index that is not a non-negative integer below total is rejected;
//  4. anything else is admitted.
func Admit(s Suggestion, total int) (bool, DropReason) {
	if !s.Kind.BlockAddressed() {
		return true, ""
	}
	if !s.BlockIndex.Present() {
		return false, DropMissingIndex
	}
	n, ok := s.BlockIndex.Int()
	if !ok || n < 0 || n >= total {
		return false, DropOutOfRange
	}
	return true, ""
}

// Audit validates raw against a document of total blocks and reports every
// decision. Kept preserves input order and is never nil.
func Audit(raw []Suggestion, total int) Report {
	r := Report{Kept: make([]Suggestion, 0, len(raw))}
	for i, s := range raw {
		ok, reason := Admit(s, total)
		if ok {
			r.Kept = append(r.Kept, s)
			continue
		}
		r.Dropped = append(r.Dropped, Rejection{Position: i, Suggestion: s, Reason: reason})
	}
	return r
}

// Validate returns the subsequence of raw that may be shown to a caller.
// total must be the block count of the document as it is now, not as it was
// when the prompt was built.
func Validate(raw []Suggestion, total int) []Suggestion {
	return Audit(raw, total).Kept
}
