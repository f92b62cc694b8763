// Package validator classifies resources against the required-tag list.
package validator

import (
	"errors"

	"github.com/yairfalse/leima/types"
)

// maxARNLength bounds the resource_arn metric label. Truncation is lossy;
// the full ARN is not retained past validation.
const maxARNLength = 200

// ErrNoRequiredTags is returned by New when the required-tag list is empty.
// Every resource is then trivially compliant, which operators must be told
// about rather than discovering a silent 100% compliance figure.
var ErrNoRequiredTags = errors.New("required tag list is empty, every resource is trivially compliant")

// Validator checks resource tag sets against a fixed required-tag list.
type Validator struct {
	required []string
}

// New creates a Validator. When required is empty the returned Validator is
// still usable (everything validates as compliant) and ErrNoRequiredTags is
// returned alongside it as a configuration warning.
func New(required []string) (*Validator, error) {
	v := &Validator{required: required}
	if len(required) == 0 {
		return v, ErrNoRequiredTags
	}
	return v, nil
}

// RequiredTags returns the required-tag list in configuration order.
func (v *Validator) RequiredTags() []string {
	return v.required
}

// Validate partitions the required tags into present and missing for the
// given resource. Tag keys are compared case-sensitively.
func (v *Validator) Validate(rec types.ResourceRecord) types.ValidatedResource {
	var present, missing []string
	for _, tag := range v.required {
		if _, ok := rec.Tags[tag]; ok {
			present = append(present, tag)
		} else {
			missing = append(missing, tag)
		}
	}
	return types.ValidatedResource{
		ARN:         truncateARN(rec.ARN),
		Type:        rec.Type,
		PresentTags: present,
		MissingTags: missing,
	}
}

func truncateARN(arn string) string {
	if len(arn) > maxARNLength {
		return arn[:maxARNLength]
	}
	return arn
}
