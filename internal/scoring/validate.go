package scoring

import (
	"fmt"
	"sort"
)

// IssueKind classifies a mismatch between a model and an input.
type IssueKind string

const (
	IssueUndeclared      IssueKind = "undeclared"
	IssueMissing         IssueKind = "missing"
	IssueUnknownCategory IssueKind = "unknown_category"
	IssueUnscaled        IssueKind = "unscaled"
	IssueNonFinite       IssueKind = "non_finite"
)

// Issue describes one feature that Predict silently tolerated.
type Issue struct {
	Feature Feature   `json:"feature"`
	Kind    IssueKind `json:"kind"`
	Detail  string    `json:"detail"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Feature, i.Detail, i.Kind)
}

// Validate lists the places where Predict fell back to a permissive default
// for this model/input pair. It does not affect Predict; callers decide
// whether to surface, log or reject.
func Validate(m *Model, fs Features) []Issue {
	var issues []Issue
	declared := make(map[Feature]struct{}, len(m.features))
	for _, name := range m.features {
		declared[name] = struct{}{}
		v, ok := fs[name]
		if !ok {
			issues = append(issues, Issue{Feature: name, Kind: IssueMissing, Detail: "declared by model but not supplied"})
			continue
		}
		switch v.kind {
		case KindCategory:
			if _, known := categoryLevels[name][v.cat]; !known {
				issues = append(issues, Issue{Feature: name, Kind: IssueUnknownCategory, Detail: fmt.Sprintf("category %q scores as 0", v.cat)})
			}
		case KindNumber:
			if !finite(v.num) {
				issues = append(issues, Issue{Feature: name, Kind: IssueNonFinite, Detail: "not a finite number, scores as 0"})
			} else if !HasNumericRule(name) {
				issues = append(issues, Issue{Feature: name, Kind: IssueUnscaled, Detail: "no scaling rule, raw value used"})
			}
		}
	}

	extra := make([]Feature, 0)
	for name := range fs {
		if _, ok := declared[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, name := range extra {
		issues = append(issues, Issue{Feature: name, Kind: IssueUndeclared, Detail: "not used by model"})
	}
	return issues
}
