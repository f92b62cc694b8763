// Package types defines the shared data model for Leima scan results.
package types

// ResourceRecord is a raw resource as yielded by discovery.
// Records are consumed once per scan cycle and never retained.
type ResourceRecord struct {
	ARN  string            `json:"arn"`
	Type string            `json:"type"`
	Tags map[string]string `json:"tags"`
}

// ValidatedResource is a resource after tag validation.
// PresentTags and MissingTags partition the required-tag list;
// the ARN is truncated to keep metric label cardinality bounded.
type ValidatedResource struct {
	ARN         string   `json:"arn"`
	Type        string   `json:"type"`
	PresentTags []string `json:"present_tags"`
	MissingTags []string `json:"missing_tags"`
}

// IsCompliant reports whether every required tag was present.
func (v ValidatedResource) IsCompliant() bool {
	return len(v.MissingTags) == 0
}

// HasTag reports whether the given required tag was present on the resource.
func (v ValidatedResource) HasTag(tag string) bool {
	for _, t := range v.PresentTags {
		if t == tag {
			return true
		}
	}
	return false
}

// RegionBucket collects validated resources for one account/region.
// Total counts only non-excluded resources; Excluded never feeds
// any percentage.
type RegionBucket struct {
	Compliant    []ValidatedResource `json:"compliant"`
	NonCompliant []ValidatedResource `json:"non_compliant"`
	Total        int                 `json:"total"`
	Excluded     int                 `json:"excluded"`
	Errors       []string            `json:"errors,omitempty"`
}

// AccountResult holds per-region buckets for one account.
// A non-empty Error means credential acquisition failed and the
// account contributes nothing to any statistic this cycle.
type AccountResult struct {
	AccountID   string                   `json:"account_id"`
	AccountName string                   `json:"account_name"`
	Regions     map[string]*RegionBucket `json:"regions"`
	Error       string                   `json:"error,omitempty"`
}

// ScanResult is the complete output of one scan cycle, keyed by account ID.
type ScanResult map[string]*AccountResult
