package catalog

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/buildcheck/internal/ir"
)

// CompileError reports a malformed rule with its CUE source position.
type CompileError struct {
	Rule    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: rule %s: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Rule, e.Field, e.Message)
	}
	return fmt.Sprintf("rule %s: %s: %s", e.Rule, e.Field, e.Message)
}

// CompileRule parses one CUE rule struct into a ZoningRule. The id is the
// struct's label under rule, e.g. "kc-height-max".
func CompileRule(id string, v cue.Value) (ir.ZoningRule, error) {
	r := ir.ZoningRule{ID: id}
	if err := v.Err(); err != nil {
		return r, formatCUEError(err)
	}

	var err error
	if r.JurisdictionID, err = requiredString(v, r.ID, "jurisdiction"); err != nil {
		return r, err
	}
	ruleType, err := requiredString(v, r.ID, "rule_type")
	if err != nil {
		return r, err
	}
	r.RuleType = ir.RuleType(ruleType)
	if r.Unit, err = requiredString(v, r.ID, "unit"); err != nil {
		return r, err
	}
	if r.OrdinanceSection, err = requiredString(v, r.ID, "section"); err != nil {
		return r, err
	}
	if r.OrdinanceText, err = requiredString(v, r.ID, "text"); err != nil {
		return r, err
	}

	if r.AppliesTo, err = stringList(v, r.ID, "applies_to"); err != nil {
		return r, err
	}
	if len(r.AppliesTo) == 0 {
		return r, &CompileError{Rule: r.ID, Field: "applies_to", Message: "at least one structure type is required", Pos: v.Pos()}
	}
	if r.Districts, err = stringList(v, r.ID, "districts"); err != nil {
		return r, err
	}

	if uv := v.LookupPath(cue.ParsePath("url")); uv.Exists() {
		if r.SourceURL, err = uv.String(); err != nil {
			return r, formatCUEError(err)
		}
	}

	// A rule carries a numeric value, a text value, or neither. A numeric rule
	// without a value still loads; evaluation reports it as unknown.
	if nv := v.LookupPath(cue.ParsePath("value")); nv.Exists() {
		f, err := nv.Float64()
		if err != nil {
			return r, &CompileError{Rule: r.ID, Field: "value", Message: "value must be a number", Pos: nv.Pos()}
		}
		r.ValueNumeric = ir.Float(f)
	}
	if tv := v.LookupPath(cue.ParsePath("text_value")); tv.Exists() {
		if r.ValueText, err = tv.String(); err != nil {
			return r, formatCUEError(err)
		}
	}
	if r.ValueNumeric != nil && r.ValueText != "" {
		return r, &CompileError{Rule: r.ID, Field: "value", Message: "value and text_value are mutually exclusive", Pos: v.Pos()}
	}

	return r, nil
}

func requiredString(v cue.Value, rule, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Rule: rule, Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if s == "" {
		return "", &CompileError{Rule: rule, Field: field, Message: field + " must not be empty", Pos: fv.Pos()}
	}
	return s, nil
}

func stringList(v cue.Value, rule, field string) ([]string, error) {
	lv := v.LookupPath(cue.ParsePath(field))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, &CompileError{Rule: rule, Field: field, Message: "must be a list of strings", Pos: lv.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// formatCUEError keeps the position of the first CUE error.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
