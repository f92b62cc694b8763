package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseARN(t *testing.T) {
	tests := []struct {
		name         string
		arn          string
		service      string
		resourceType string
	}{
		{
			name:         "s3 bucket has no resource prefix",
			arn:          "arn:aws:s3:::my-bucket",
			service:      "s3",
			resourceType: "s3",
		},
		{
			name:         "ec2 instance",
			arn:          "arn:aws:ec2:us-east-1:111122223333:instance/i-0abc",
			service:      "ec2",
			resourceType: "instance",
		},
		{
			name:         "rds cluster",
			arn:          "arn:aws:rds:eu-west-1:111122223333:cluster/prod-db",
			service:      "rds",
			resourceType: "cluster",
		},
		{
			name:         "lambda uses colon separators in the resource",
			arn:          "arn:aws:lambda:us-east-1:111122223333:function:handler",
			service:      "lambda",
			resourceType: "lambda",
		},
		{
			name:         "resource with nested path keeps first segment",
			arn:          "arn:aws:elasticloadbalancing:us-east-1:111122223333:loadbalancer/app/web/50dc6c",
			service:      "elasticloadbalancing",
			resourceType: "loadbalancer",
		},
		{
			name:         "no colons at all",
			arn:          "garbage",
			service:      "unknown",
			resourceType: "garbage",
		},
		{
			name:         "empty input",
			arn:          "",
			service:      "unknown",
			resourceType: "",
		},
		{
			name:         "truncated arn falls back to service",
			arn:          "arn:aws:ec2",
			service:      "ec2",
			resourceType: "ec2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, resourceType := ParseARN(tt.arn)
			assert.Equal(t, tt.service, service)
			assert.Equal(t, tt.resourceType, resourceType)
		})
	}
}
