// Package suggestion defines edit proposals returned by the reasoning
// service and the admission rules applied before they reach a caller.
//
// Information Hiding:
// - Wire shape of a suggestion ({type, block_index, content, reason})
// - Tolerant decoding of the type discriminator and of block_index values
// - Admission filtering against the current block count
package suggestion

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind is the suggestion discriminator. Addition, Deletion and Modification
// address a single block; ReplaceAll addresses the whole document.
type Kind int

const (
	// KindUnknown is any type string the protocol does not define.
	KindUnknown Kind = iota
	KindAddition
	KindDeletion
	KindModification
	KindReplaceAll
)

// String returns the canonical wire name.
func (k Kind) String() string {
	switch k {
	case KindAddition:
		return "addition"
	case KindDeletion:
		return "deletion"
	case KindModification:
		return "modification"
	case KindReplaceAll:
		return "replace_all"
	default:
		return "unknown"
	}
}

// BlockAddressed reports whether the kind must carry a valid block index.
func (k Kind) BlockAddressed() bool {
	return k != KindReplaceAll
}

// ParseKind maps a wire type to a Kind. "replace all" is an accepted
// spelling of "replace_all".
func ParseKind(s string) Kind {
	switch s {
	case "addition":
		return KindAddition
	case "deletion":
		return KindDeletion
	case "modification":
		return KindModification
	case "replace_all", "replace all":
		return KindReplaceAll
	default:
		return KindUnknown
	}
}

// Index is a block_index exactly as the reasoning service sent it. The raw
// JSON is kept so that a suggestion passes through validation byte-for-byte
// and so that non-integer values can be recognised and rejected.
type Index struct {
	raw json.RawMessage
}

// At returns the index of block position i.
func At(i int) Index {
	return Index{raw: json.RawMessage(strconv.Itoa(i))}
}

// Present reports whether a non-null block_index was supplied.
func (x Index) Present() bool {
	return len(x.raw) > 0 && !bytes.Equal(x.raw, []byte("null"))
}

// Int returns the index as an int. ok is false when the value is absent or
// is not an integer literal (fractions, exponents, strings, objects...).
// Negative integers are returned with ok == true.
func (x Index) Int() (n int, ok bool) {
	if !x.Present() {
		return 0, false
	}
	n, err := strconv.Atoi(string(x.raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns the raw JSON text, or "null".
func (x Index) String() string {
	if !x.Present() {
		return "null"
	}
	return string(x.raw)
}

// MarshalJSON implements json.Marshaler.
func (x Index) MarshalJSON() ([]byte, error) {
	if !x.Present() {
		return []byte("null"), nil
	}
	return x.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler. Any JSON value is accepted.
func (x *Index) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		x.raw = nil
		return nil
	}
	x.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Suggestion is one proposed edit.
type Suggestion struct {
	Kind       Kind
	BlockIndex Index
	Content    string
	Reason     string

	// spelling of the type as received; empty for locally built suggestions
	typeName string
}

// Addition proposes inserting content at block position at.
func Addition(at int, content, reason string) Suggestion {
	return Suggestion{Kind: KindAddition, BlockIndex: At(at), Content: content, Reason: reason}
}

// Deletion proposes removing block position at.
func Deletion(at int, reason string) Suggestion {
	return Suggestion{Kind: KindDeletion, BlockIndex: At(at), Reason: reason}
}

// Modification proposes replacing block position at with content.
func Modification(at int, content, reason string) Suggestion {
	return Suggestion{Kind: KindModification, BlockIndex: At(at), Content: content, Reason: reason}
}

// ReplaceAll proposes replacing the whole document with content.
func ReplaceAll(content, reason string) Suggestion {
	return Suggestion{Kind: KindReplaceAll, Content: content, Reason: reason}
}

// Type returns the wire type string.
func (s Suggestion) Type() string {
	if s.typeName != "" {
		return s.typeName
	}
	return s.Kind.String()
}

type wireSuggestion struct {
	Type       string `json:"type"`
	BlockIndex Index  `json:"block_index"`
	Content    string `json:"content"`
	Reason     string `json:"reason"`
}

// MarshalJSON implements json.Marshaler using the wire shape.
func (s Suggestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSuggestion{
		Type:       s.Type(),
		BlockIndex: s.BlockIndex,
		Content:    s.Content,
		Reason:     s.Reason,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Missing fields decode to their
// zero values; an unrecognised type decodes to KindUnknown.
func (s *Suggestion) UnmarshalJSON(data []byte) error {
	var w wireSuggestion
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Suggestion{
		Kind:       ParseKind(w.Type),
		BlockIndex: w.BlockIndex,
		Content:    w.Content,
		Reason:     w.Reason,
		typeName:   w.Type,
	}
	return nil
}
