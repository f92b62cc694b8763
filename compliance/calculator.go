// Package compliance derives reportable statistics from a scan result.
package compliance

import (
	"sort"

	"github.com/yairfalse/leima/types"
)

// Compute derives the full statistics bundle for one scan cycle. It is a
// pure function of its input: computing the same scan twice yields an
// identical snapshot, down to entry order (accounts, regions and resource
// types are walked in sorted order).
//
// Accounts with a credential error contribute nothing. Division by zero is
// defined away: any percentage over zero resources is 0, never NaN and
// never an error.
func Compute(scan types.ScanResult, requiredTags []string) *Snapshot {
	snap := &Snapshot{}

	for _, accountID := range sortedKeys(scan) {
		acct := scan[accountID]
		if acct.Error != "" {
			continue
		}
		for _, region := range sortedKeys(acct.Regions) {
			computeRegion(snap, RegionKey{
				AccountID:   acct.AccountID,
				AccountName: acct.AccountName,
				Region:      region,
			}, acct.Regions[region], requiredTags)
		}
	}

	return snap
}

func computeRegion(snap *Snapshot, key RegionKey, bucket *types.RegionBucket, requiredTags []string) {
	total := bucket.Total

	snap.ResourcesScanned = append(snap.ResourcesScanned, RegionStat{key, float64(total)})
	snap.CompliancePercentage = append(snap.CompliancePercentage, RegionStat{key, percentage(len(bucket.Compliant), total)})
	snap.FullyCompliant = append(snap.FullyCompliant, RegionStat{key, float64(len(bucket.Compliant))})

	all := make([]types.ValidatedResource, 0, total)
	all = append(all, bucket.Compliant...)
	all = append(all, bucket.NonCompliant...)

	computeTagStats(snap, key, all, total, requiredTags)
	computeTypeStats(snap, key, bucket, all, requiredTags)
	computeMissingDetails(snap, key, bucket.NonCompliant)
}

// computeTagStats emits per-tag counts and percentages. The compliant and
// non-compliant counts partition the scanned total for every tag. A region
// with zero resources keeps its zero counts but gets no percentage series,
// so no 0/0 percentages exist.
func computeTagStats(snap *Snapshot, key RegionKey, all []types.ValidatedResource, total int, requiredTags []string) {
	for _, tag := range requiredTags {
		withTag := 0
		for _, r := range all {
			if r.HasTag(tag) {
				withTag++
			}
		}
		snap.TagCompliant = append(snap.TagCompliant, TagStat{key, tag, float64(withTag)})
		snap.TagNonCompliant = append(snap.TagNonCompliant, TagStat{key, tag, float64(total - withTag)})
		if total > 0 {
			snap.TagCompliancePercentage = append(snap.TagCompliancePercentage, TagStat{key, tag, percentage(withTag, total)})
		}
	}
}

// computeTypeStats emits fully-compliant counts by resource type and the
// per-(tag, type) percentages. Types with zero observed resources are never
// emitted, so no 0/0 series exist.
func computeTypeStats(snap *Snapshot, key RegionKey, bucket *types.RegionBucket, all []types.ValidatedResource, requiredTags []string) {
	byType := make(map[string][]types.ValidatedResource)
	for _, r := range all {
		byType[r.Type] = append(byType[r.Type], r)
	}

	for _, typ := range sortedKeys(byType) {
		ofType := byType[typ]

		fully := 0
		for _, r := range ofType {
			if r.IsCompliant() {
				fully++
			}
		}
		snap.FullyCompliantByType = append(snap.FullyCompliantByType, TypeStat{key, typ, float64(fully)})

		for _, tag := range requiredTags {
			withTag := 0
			for _, r := range ofType {
				if r.HasTag(tag) {
					withTag++
				}
			}
			snap.TagTypePercentage = append(snap.TagTypePercentage, TagTypeStat{key, tag, typ, percentage(withTag, len(ofType))})
		}
	}
}

// computeMissingDetails emits one entry per (resource, missing tag) pair.
// The slice is rebuilt from scratch every cycle; a resource that became
// compliant simply has no entry here.
func computeMissingDetails(snap *Snapshot, key RegionKey, nonCompliant []types.ValidatedResource) {
	for _, r := range nonCompliant {
		for _, tag := range r.MissingTags {
			snap.MissingDetails = append(snap.MissingDetails, MissingDetail{
				RegionKey:    key,
				Tag:          tag,
				ResourceType: r.Type,
				ResourceARN:  r.ARN,
			})
		}
	}
}

// percentage returns 100*n/total, with 0 for an empty total by policy.
func percentage(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
