package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	taggingtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"

	"github.com/yairfalse/leima/scanner"
	"github.com/yairfalse/leima/types"
)

const (
	resourcesPerPage = 100
	maxRetryAttempts = 5
)

// ClientFactory builds a tagging API client for one region with the given
// credentials. Swappable in tests.
type ClientFactory func(ctx context.Context, creds scanner.Credentials, region string) (TaggingAPI, error)

// TaggingDiscoverer streams resources from the Resource Groups Tagging
// API, one region at a time.
type TaggingDiscoverer struct {
	newClient ClientFactory
}

// NewTaggingDiscoverer creates a discoverer using real regional clients.
func NewTaggingDiscoverer() *TaggingDiscoverer {
	return &TaggingDiscoverer{newClient: newTaggingClient}
}

// NewTaggingDiscovererWithFactory creates a discoverer with a custom
// client factory.
func NewTaggingDiscovererWithFactory(factory ClientFactory) *TaggingDiscoverer {
	return &TaggingDiscoverer{newClient: factory}
}

func newTaggingClient(ctx context.Context, creds scanner.Credentials, region string) (TaggingAPI, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(maxRetryAttempts),
	}
	if !creds.IsZero() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return resourcegroupstaggingapi.NewFromConfig(cfg), nil
}

// Discover implements scanner.Discoverer. It walks the GetResources
// paginator and invokes visit once per resource. A failure mid-pagination
// returns the error; records already visited stay with the caller.
func (d *TaggingDiscoverer) Discover(ctx context.Context, creds scanner.Credentials, region string, visit func(types.ResourceRecord)) error {
	client, err := d.newClient(ctx, creds, region)
	if err != nil {
		return err
	}

	paginator := resourcegroupstaggingapi.NewGetResourcesPaginator(client, &resourcegroupstaggingapi.GetResourcesInput{
		ResourcesPerPage: aws.Int32(resourcesPerPage),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("get resources page: %w", err)
		}
		for _, mapping := range page.ResourceTagMappingList {
			visit(toRecord(mapping))
		}
	}

	return nil
}

func toRecord(mapping taggingtypes.ResourceTagMapping) types.ResourceRecord {
	arn := aws.ToString(mapping.ResourceARN)
	_, resourceType := ParseARN(arn)
	return types.ResourceRecord{
		ARN:  arn,
		Type: resourceType,
		Tags: toTagMap(mapping.Tags),
	}
}

func toTagMap(tags []taggingtypes.Tag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return m
}
