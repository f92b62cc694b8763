package aws

import "strings"

// ParseARN extracts the service and resource type from an ARN of the form
// arn:partition:service:region:account:resource. When the resource segment
// has a "/"-separated prefix that prefix is the type, otherwise the type
// falls back to the service. Unparseable input yields ("unknown", input).
func ParseARN(arn string) (service, resourceType string) {
	if arn == "" || !strings.Contains(arn, ":") {
		return "unknown", arn
	}

	parts := strings.SplitN(arn, ":", 6)
	if len(parts) > 2 {
		service = parts[2]
	} else {
		service = "unknown"
	}

	resourcePart := ""
	if len(parts) > 5 {
		resourcePart = parts[5]
	}
	if idx := strings.Index(resourcePart, "/"); idx >= 0 {
		resourceType = resourcePart[:idx]
	} else {
		resourceType = service
	}

	return service, resourceType
}
