package compliance

import "time"

// RegionKey identifies the account/region a statistic belongs to. Its
// fields are the common label set on every exported metric.
type RegionKey struct {
	AccountID   string
	AccountName string
	Region      string
}

// RegionStat is a statistic labelled by account/region only.
type RegionStat struct {
	RegionKey
	Value float64
}

// TagStat is a statistic labelled by account/region and required tag.
type TagStat struct {
	RegionKey
	Tag   string
	Value float64
}

// TypeStat is a statistic labelled by account/region and resource type.
type TypeStat struct {
	RegionKey
	ResourceType string
	Value        float64
}

// TagTypeStat is a statistic labelled by account/region, tag and type.
type TagTypeStat struct {
	RegionKey
	Tag          string
	ResourceType string
	Value        float64
}

// MissingDetail marks one (resource, missing tag) pair. Its exported value
// is the constant 1; the information lives in the labels.
type MissingDetail struct {
	RegionKey
	Tag          string
	ResourceType string
	ResourceARN  string
}

// Snapshot is the immutable statistics bundle for one scan cycle. It is
// published as a whole and dropped as a whole; nothing merges across cycles.
type Snapshot struct {
	ResourcesScanned        []RegionStat
	CompliancePercentage    []RegionStat
	FullyCompliant          []RegionStat
	FullyCompliantByType    []TypeStat
	TagCompliant            []TagStat
	TagNonCompliant         []TagStat
	TagCompliancePercentage []TagStat
	TagTypePercentage       []TagTypeStat
	MissingDetails          []MissingDetail

	ScannedAt    time.Time
	ScanDuration time.Duration
}
