package compliance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/leima/types"
)

var requiredTags = []string{"env", "owner"}

func compliant(arn, typ string) types.ValidatedResource {
	return types.ValidatedResource{ARN: arn, Type: typ, PresentTags: []string{"env", "owner"}}
}

func missingOwner(arn, typ string) types.ValidatedResource {
	return types.ValidatedResource{ARN: arn, Type: typ, PresentTags: []string{"env"}, MissingTags: []string{"owner"}}
}

func missingBoth(arn, typ string) types.ValidatedResource {
	return types.ValidatedResource{ARN: arn, Type: typ, MissingTags: []string{"env", "owner"}}
}

// scenarioScan builds the reference scenario: 10 resources, 7 with both
// tags, 2 with env only, 1 with neither.
func scenarioScan() types.ScanResult {
	bucket := &types.RegionBucket{Total: 10}
	for i := 0; i < 7; i++ {
		bucket.Compliant = append(bucket.Compliant, compliant(fmt.Sprintf("arn:c%d", i), "instance"))
	}
	bucket.NonCompliant = append(bucket.NonCompliant,
		missingOwner("arn:m1", "instance"),
		missingOwner("arn:m2", "bucket"),
		missingBoth("arn:m3", "bucket"),
	)
	return types.ScanResult{
		"1": {
			AccountID:   "1",
			AccountName: "prod",
			Regions:     map[string]*types.RegionBucket{"us-east-1": bucket},
		},
	}
}

func findTag(t *testing.T, stats []TagStat, tag string) TagStat {
	t.Helper()
	for _, s := range stats {
		if s.Tag == tag {
			return s
		}
	}
	t.Fatalf("no stat for tag %q", tag)
	return TagStat{}
}

func TestCompute_ReferenceScenario(t *testing.T) {
	snap := Compute(scenarioScan(), requiredTags)

	require.Len(t, snap.ResourcesScanned, 1)
	assert.Equal(t, 10.0, snap.ResourcesScanned[0].Value)
	assert.Equal(t, "prod", snap.ResourcesScanned[0].AccountName)

	require.Len(t, snap.FullyCompliant, 1)
	assert.Equal(t, 7.0, snap.FullyCompliant[0].Value)

	require.Len(t, snap.CompliancePercentage, 1)
	assert.InDelta(t, 70.0, snap.CompliancePercentage[0].Value, 1e-9)

	assert.Equal(t, 9.0, findTag(t, snap.TagCompliant, "env").Value)
	assert.Equal(t, 7.0, findTag(t, snap.TagCompliant, "owner").Value)
	assert.Equal(t, 1.0, findTag(t, snap.TagNonCompliant, "env").Value)
	assert.Equal(t, 3.0, findTag(t, snap.TagNonCompliant, "owner").Value)
	assert.InDelta(t, 90.0, findTag(t, snap.TagCompliancePercentage, "env").Value, 1e-9)
	assert.InDelta(t, 70.0, findTag(t, snap.TagCompliancePercentage, "owner").Value, 1e-9)
}

// Compliant and non-compliant counts partition the scanned total for
// every tag.
func TestCompute_TagCountsPartitionTotal(t *testing.T) {
	snap := Compute(scenarioScan(), requiredTags)

	total := snap.ResourcesScanned[0].Value
	for _, tag := range requiredTags {
		c := findTag(t, snap.TagCompliant, tag).Value
		n := findTag(t, snap.TagNonCompliant, tag).Value
		assert.Equal(t, total, c+n, "tag %q", tag)
	}
}

func TestCompute_ByTypeStats(t *testing.T) {
	snap := Compute(scenarioScan(), requiredTags)

	// instance: 7 compliant + 1 missing owner; bucket: 1 missing owner + 1 missing both
	require.Len(t, snap.FullyCompliantByType, 2)
	assert.Equal(t, "bucket", snap.FullyCompliantByType[0].ResourceType)
	assert.Equal(t, 0.0, snap.FullyCompliantByType[0].Value)
	assert.Equal(t, "instance", snap.FullyCompliantByType[1].ResourceType)
	assert.Equal(t, 7.0, snap.FullyCompliantByType[1].Value)

	// tag/type percentages: env on bucket = 1/2, owner on instance = 7/8
	byKey := make(map[string]float64)
	for _, s := range snap.TagTypePercentage {
		byKey[s.Tag+"/"+s.ResourceType] = s.Value
	}
	assert.InDelta(t, 50.0, byKey["env/bucket"], 1e-9)
	assert.InDelta(t, 0.0, byKey["owner/bucket"], 1e-9)
	assert.InDelta(t, 100.0, byKey["env/instance"], 1e-9)
	assert.InDelta(t, 87.5, byKey["owner/instance"], 1e-9)
}

func TestCompute_MissingDetails(t *testing.T) {
	snap := Compute(scenarioScan(), requiredTags)

	// 2 resources missing owner + 1 missing both = 4 detail entries
	require.Len(t, snap.MissingDetails, 4)

	seen := make(map[string]bool)
	for _, d := range snap.MissingDetails {
		seen[d.ResourceARN+"/"+d.Tag] = true
	}
	assert.True(t, seen["arn:m1/owner"])
	assert.True(t, seen["arn:m2/owner"])
	assert.True(t, seen["arn:m3/env"])
	assert.True(t, seen["arn:m3/owner"])
}

func TestCompute_ErroredAccountContributesNothing(t *testing.T) {
	scan := scenarioScan()
	scan["2"] = &types.AccountResult{
		AccountID:   "2",
		AccountName: "broken",
		Error:       "assume role failed",
		Regions:     map[string]*types.RegionBucket{},
	}

	snap := Compute(scan, requiredTags)

	require.Len(t, snap.ResourcesScanned, 1, "only the healthy account is present")
	assert.Equal(t, "1", snap.ResourcesScanned[0].AccountID)
}

func TestCompute_EmptyRegionZeroPolicy(t *testing.T) {
	scan := types.ScanResult{
		"1": {
			AccountID:   "1",
			AccountName: "prod",
			Regions:     map[string]*types.RegionBucket{"us-east-1": {}},
		},
	}

	snap := Compute(scan, requiredTags)

	require.Len(t, snap.CompliancePercentage, 1)
	assert.Equal(t, 0.0, snap.CompliancePercentage[0].Value, "0/0 is 0 by policy, not NaN")
	assert.Equal(t, 0.0, snap.ResourcesScanned[0].Value)
	assert.Equal(t, 0.0, findTag(t, snap.TagCompliant, "env").Value)
	assert.Empty(t, snap.TagCompliancePercentage, "no resources, no tag percentage series")
	assert.Empty(t, snap.FullyCompliantByType, "no observed types, no by-type series")
	assert.Empty(t, snap.TagTypePercentage)
}

func TestCompute_PercentagesWithinRange(t *testing.T) {
	snap := Compute(scenarioScan(), requiredTags)
	for _, s := range snap.CompliancePercentage {
		assert.GreaterOrEqual(t, s.Value, 0.0)
		assert.LessOrEqual(t, s.Value, 100.0)
	}
	for _, s := range snap.TagCompliancePercentage {
		assert.GreaterOrEqual(t, s.Value, 0.0)
		assert.LessOrEqual(t, s.Value, 100.0)
	}
	for _, s := range snap.TagTypePercentage {
		assert.GreaterOrEqual(t, s.Value, 0.0)
		assert.LessOrEqual(t, s.Value, 100.0)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	scan := scenarioScan()
	first := Compute(scan, requiredTags)
	second := Compute(scan, requiredTags)
	assert.Equal(t, first, second)
}

func TestCompute_ExcludedResourcesNeverAppear(t *testing.T) {
	scan := scenarioScan()
	scan["1"].Regions["us-east-1"].Excluded = 5

	snap := Compute(scan, requiredTags)
	assert.Equal(t, 10.0, snap.ResourcesScanned[0].Value, "excluded resources stay out of every statistic")
}
