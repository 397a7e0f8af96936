package service

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/bibbank/creditrisk/internal/domain/model"
)

// FeatureKind says how a feature's cell text becomes a number.
type FeatureKind int

const (
	KindNumeric FeatureKind = iota
	KindCategorical
)

func (k FeatureKind) String() string {
	if k == KindCategorical {
		return "categorical"
	}
	return "numeric"
}

// FeatureField declares one canonical feature.
type FeatureField struct {
	Name string
	Kind FeatureKind
}

// FeatureSchema declares the canonical feature set and the header synonyms
// under which uploads may carry it.
type FeatureSchema struct {
	order    []string
	kinds    map[string]FeatureKind
	synonyms map[string]string
}

// NewFeatureSchema builds a schema. Every synonym must point at a declared field.
func NewFeatureSchema(fields []FeatureField, synonyms map[string]string) (*FeatureSchema, error) {
	s := &FeatureSchema{
		kinds:    make(map[string]FeatureKind, len(fields)),
		synonyms: make(map[string]string, len(synonyms)),
	}
	for _, f := range fields {
		name := NormalizeHeader(f.Name)
		if name == "" {
			return nil, fmt.Errorf("feature schema: empty field name")
		}
		if _, dup := s.kinds[name]; dup {
			return nil, fmt.Errorf("feature schema: duplicate field %q", name)
		}
		s.kinds[name] = f.Kind
		s.order = append(s.order, name)
	}
	for alias, canonical := range synonyms {
		if _, ok := s.kinds[canonical]; !ok {
			return nil, fmt.Errorf("feature schema: synonym %q targets undeclared field %q", alias, canonical)
		}
		s.synonyms[NormalizeHeader(alias)] = canonical
	}
	return s, nil
}

// DefaultFeatureSchema is the applicant feature set with the header synonyms
// found in bank spreadsheets.
func DefaultFeatureSchema() *FeatureSchema {
	s, err := NewFeatureSchema([]FeatureField{
		{Name: model.FieldIncome, Kind: KindNumeric},
		{Name: model.FieldAge, Kind: KindNumeric},
		{Name: model.FieldExperience, Kind: KindNumeric},
		{Name: model.FieldMaritalStatus, Kind: KindCategorical},
		{Name: model.FieldHouseOwnership, Kind: KindCategorical},
		{Name: model.FieldCarOwnership, Kind: KindCategorical},
		{Name: model.FieldProfession, Kind: KindCategorical},
		{Name: model.FieldCity, Kind: KindCategorical},
		{Name: model.FieldState, Kind: KindCategorical},
		{Name: model.FieldJobYears, Kind: KindNumeric},
		{Name: model.FieldHouseYears, Kind: KindNumeric},
	}, map[string]string{
		"Married/Single":    model.FieldMaritalStatus,
		"CURRENT_JOB_YRS":   model.FieldJobYears,
		"CURRENT_HOUSE_YRS": model.FieldHouseYears,
	})
	if err != nil {
		panic(err)
	}
	return s
}

// NormalizeHeader applies Unicode NFKC normalization and trims whitespace.
func NormalizeHeader(h string) string {
	return strings.TrimSpace(norm.NFKC.String(h))
}

func fold(s string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(s)
}

// Fields returns the declared canonical field names in declaration order.
func (s *FeatureSchema) Fields() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Kind returns the declared kind of a canonical field.
func (s *FeatureSchema) Kind(field string) (FeatureKind, bool) {
	k, ok := s.kinds[field]
	return k, ok
}

// match ranks, lowest first.
const (
	matchCanonical = iota
	matchSynonym
	matchFoldedCanonical
	matchFoldedSynonym
	matchNone
)

func (s *FeatureSchema) resolve(header string) (string, int) {
	h := NormalizeHeader(header)
	if _, ok := s.kinds[h]; ok {
		return h, matchCanonical
	}
	if c, ok := s.synonyms[h]; ok {
		return c, matchSynonym
	}
	fh := fold(h)
	for _, name := range s.order {
		if fold(name) == fh {
			return name, matchFoldedCanonical
		}
	}
	aliases := make([]string, 0, len(s.synonyms))
	for alias := range s.synonyms {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		if fold(alias) == fh {
			return s.synonyms[alias], matchFoldedSynonym
		}
	}
	return h, matchNone
}

// Resolve maps a header to its canonical field name. Headers that are not
// part of the schema resolve to their normalized text with ok false.
func (s *FeatureSchema) Resolve(header string) (string, bool) {
	name, rank := s.resolve(header)
	return name, rank != matchNone
}

// ResolveColumns maps each canonical field present in header to its column
// index. When several columns resolve to one field the best-ranked match
// wins, so a canonical column beats a synonym column; ties go to the
// leftmost column. Columns outside the schema keep their normalized header
// as key unless that key is already taken.
func (s *FeatureSchema) ResolveColumns(header []string) map[string]int {
	type pick struct{ col, rank int }
	best := make(map[string]pick, len(header))
	for i, h := range header {
		name, rank := s.resolve(h)
		if cur, ok := best[name]; ok && cur.rank <= rank {
			continue
		}
		best[name] = pick{col: i, rank: rank}
	}
	out := make(map[string]int, len(best))
	for name, p := range best {
		out[name] = p.col
	}
	return out
}

// NormalizeRow rekeys a raw row by canonical field name.
func (s *FeatureSchema) NormalizeRow(row model.RawRow) model.RawRow {
	header := make([]string, 0, len(row))
	for h := range row {
		header = append(header, h)
	}
	sort.Strings(header)
	cols := s.ResolveColumns(header)
	out := make(model.RawRow, len(cols))
	for name, i := range cols {
		out[name] = row[header[i]]
	}
	return out
}

// RecordFromRow builds the typed record from a canonical row. Unparseable
// numbers become 0.
func (s *FeatureSchema) RecordFromRow(row model.RawRow) model.ApplicantRecord {
	num := func(f string) float64 {
		v, _ := parseNumber(row[f])
		return v
	}
	str := func(f string) string { return strings.TrimSpace(row[f]) }
	return model.ApplicantRecord{
		Income:         num(model.FieldIncome),
		Age:            num(model.FieldAge),
		Experience:     num(model.FieldExperience),
		MaritalStatus:  str(model.FieldMaritalStatus),
		HouseOwnership: str(model.FieldHouseOwnership),
		CarOwnership:   str(model.FieldCarOwnership),
		Profession:     str(model.FieldProfession),
		City:           str(model.FieldCity),
		State:          str(model.FieldState),
		JobYears:       num(model.FieldJobYears),
		HouseYears:     num(model.FieldHouseYears),
	}
}
