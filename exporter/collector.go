package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
)

var regionLabels = []string{"account_name", "account_id", "region"}

// Collector exposes the registry's current snapshot as Prometheus gauges.
// Every Collect walks the snapshot of the moment, so series from prior
// cycles (stale missing-tag details in particular) vanish on publish.
type Collector struct {
	registry *Registry

	resourcesScanned     *prometheus.Desc
	compliancePct        *prometheus.Desc
	fullyCompliant       *prometheus.Desc
	fullyCompliantByType *prometheus.Desc
	tagCompliant         *prometheus.Desc
	tagNonCompliant      *prometheus.Desc
	tagCompliancePct     *prometheus.Desc
	tagTypePct           *prometheus.Desc
	tagMissingDetail     *prometheus.Desc
	scanDuration         *prometheus.Desc
	scanTimestamp        *prometheus.Desc
}

// NewCollector creates a Collector reading from the given registry.
func NewCollector(registry *Registry) *Collector {
	tagLabels := append([]string{"tag"}, regionLabels...)
	typeLabels := append(append([]string{}, regionLabels...), "resource_type")
	tagTypeLabels := append(append([]string{"tag"}, regionLabels...), "resource_type")
	detailLabels := append(append([]string{"tag"}, regionLabels...), "resource_type", "resource_arn")

	return &Collector{
		registry: registry,
		resourcesScanned: prometheus.NewDesc("resources_scanned_total",
			"Total number of resources scanned", regionLabels, nil),
		compliancePct: prometheus.NewDesc("compliance_percentage",
			"Overall compliance percentage by account and region", regionLabels, nil),
		fullyCompliant: prometheus.NewDesc("resources_fully_compliant_total",
			"Number of resources with every required tag present", regionLabels, nil),
		fullyCompliantByType: prometheus.NewDesc("resources_fully_compliant_by_type_total",
			"Number of fully compliant resources per resource type", typeLabels, nil),
		tagCompliant: prometheus.NewDesc("tag_compliant_total",
			"Number of resources compliant per tag", tagLabels, nil),
		tagNonCompliant: prometheus.NewDesc("tag_non_compliant_total",
			"Number of resources non-compliant per tag", tagLabels, nil),
		tagCompliancePct: prometheus.NewDesc("tag_compliance_percentage",
			"Compliance percentage per tag", tagLabels, nil),
		tagTypePct: prometheus.NewDesc("tag_resource_type_compliance_percentage",
			"Compliance percentage per tag and resource type", tagTypeLabels, nil),
		tagMissingDetail: prometheus.NewDesc("tag_missing_detail",
			"Detail gauge set to 1 for a missing-tag/resource combination", detailLabels, nil),
		scanDuration: prometheus.NewDesc("scan_duration_seconds",
			"Duration of the last scan in seconds", nil, nil),
		scanTimestamp: prometheus.NewDesc("scan_timestamp_seconds",
			"Timestamp of the last successful scan", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.resourcesScanned
	ch <- c.compliancePct
	ch <- c.fullyCompliant
	ch <- c.fullyCompliantByType
	ch <- c.tagCompliant
	ch <- c.tagNonCompliant
	ch <- c.tagCompliancePct
	ch <- c.tagTypePct
	ch <- c.tagMissingDetail
	ch <- c.scanDuration
	ch <- c.scanTimestamp
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.registry.Snapshot()
	if snap == nil {
		return
	}

	for _, s := range snap.ResourcesScanned {
		ch <- gauge(c.resourcesScanned, s.Value, s.AccountName, s.AccountID, s.Region)
	}
	for _, s := range snap.CompliancePercentage {
		ch <- gauge(c.compliancePct, s.Value, s.AccountName, s.AccountID, s.Region)
	}
	for _, s := range snap.FullyCompliant {
		ch <- gauge(c.fullyCompliant, s.Value, s.AccountName, s.AccountID, s.Region)
	}
	for _, s := range snap.FullyCompliantByType {
		ch <- gauge(c.fullyCompliantByType, s.Value, s.AccountName, s.AccountID, s.Region, s.ResourceType)
	}
	for _, s := range snap.TagCompliant {
		ch <- gauge(c.tagCompliant, s.Value, s.Tag, s.AccountName, s.AccountID, s.Region)
	}
	for _, s := range snap.TagNonCompliant {
		ch <- gauge(c.tagNonCompliant, s.Value, s.Tag, s.AccountName, s.AccountID, s.Region)
	}
	for _, s := range snap.TagCompliancePercentage {
		ch <- gauge(c.tagCompliancePct, s.Value, s.Tag, s.AccountName, s.AccountID, s.Region)
	}
	for _, s := range snap.TagTypePercentage {
		ch <- gauge(c.tagTypePct, s.Value, s.Tag, s.AccountName, s.AccountID, s.Region, s.ResourceType)
	}
	for _, d := range snap.MissingDetails {
		ch <- gauge(c.tagMissingDetail, 1, d.Tag, d.AccountName, d.AccountID, d.Region, d.ResourceType, d.ResourceARN)
	}

	ch <- gauge(c.scanDuration, snap.ScanDuration.Seconds())
	if !snap.ScannedAt.IsZero() {
		ch <- gauge(c.scanTimestamp, float64(snap.ScannedAt.Unix()))
	}
}

func gauge(desc *prometheus.Desc, value float64, labels ...string) prometheus.Metric {
	return prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, labels...)
}
