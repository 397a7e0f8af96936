package service

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownCode is the code assigned to any value a vocabulary has not seen.
// It is distinct from every known code, which are non-negative positions.
const UnknownCode = -1

// LabelVocabulary binds, per categorical field, each known label to its
// position in the training-time label list. It is immutable after construction.
type LabelVocabulary struct {
	codes  map[string]map[string]int
	labels map[string][]string
}

// NewLabelVocabulary builds a vocabulary from ordered label lists.
// Labels are trimmed; duplicates within a field are rejected.
func NewLabelVocabulary(labels map[string][]string) (*LabelVocabulary, error) {
	v := &LabelVocabulary{
		codes:  make(map[string]map[string]int, len(labels)),
		labels: make(map[string][]string, len(labels)),
	}
	for field, list := range labels {
		codes := make(map[string]int, len(list))
		ordered := make([]string, 0, len(list))
		for i, raw := range list {
			label := strings.TrimSpace(raw)
			if _, dup := codes[label]; dup {
				return nil, fmt.Errorf("vocabulary field %q: duplicate label %q", field, label)
			}
			codes[label] = i
			ordered = append(ordered, label)
		}
		v.codes[field] = codes
		v.labels[field] = ordered
	}
	return v, nil
}

// Encode returns the code bound to value, or UnknownCode. Matching is exact
// after trimming surrounding whitespace. A field without a vocabulary encodes
// every value to UnknownCode.
func (v *LabelVocabulary) Encode(field, value string) int {
	codes, ok := v.codes[field]
	if !ok {
		return UnknownCode
	}
	code, ok := codes[strings.TrimSpace(value)]
	if !ok {
		return UnknownCode
	}
	return code
}

// Has reports whether field has a vocabulary.
func (v *LabelVocabulary) Has(field string) bool {
	_, ok := v.codes[field]
	return ok
}

// Labels returns a copy of field's labels in code order.
func (v *LabelVocabulary) Labels(field string) []string {
	out := make([]string, len(v.labels[field]))
	copy(out, v.labels[field])
	return out
}

// Fields returns the vocabulary's field names, sorted.
func (v *LabelVocabulary) Fields() []string {
	out := make([]string, 0, len(v.labels))
	for f := range v.labels {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// Encoder
// ---------------------------------------------------------------------------

// Encoder maps categorical values to integer codes and reports every
// sentinel hit as a data-quality note. It never fails.
type Encoder struct {
	vocab *LabelVocabulary
}

// NewEncoder returns an encoder over vocab.
func NewEncoder(vocab *LabelVocabulary) *Encoder {
	return &Encoder{vocab: vocab}
}

// Encode returns the code for value and, on a sentinel hit, a note
// describing it. The note is empty for known values.
func (e *Encoder) Encode(field, value string) (int, string) {
	code := e.vocab.Encode(field, value)
	if code != UnknownCode {
		return code, ""
	}
	v := strings.TrimSpace(value)
	switch {
	case !e.vocab.Has(field):
		return code, fmt.Sprintf("%s: no vocabulary, encoded as unknown", field)
	case v == "":
		return code, fmt.Sprintf("%s: empty value encoded as unknown", field)
	default:
		return code, fmt.Sprintf("%s: unseen value %q encoded as unknown", field, v)
	}
}

// Vocabulary returns the underlying vocabulary.
func (e *Encoder) Vocabulary() *LabelVocabulary { return e.vocab }
