package main

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/leima/config"
	"github.com/yairfalse/leima/filter"
	"github.com/yairfalse/leima/providers/aws"
	"github.com/yairfalse/leima/scanner"
	"github.com/yairfalse/leima/validator"
)

// buildScanner wires the AWS collaborators, filter and validator into a
// scanner for the configured account matrix.
func buildScanner(ctx context.Context, cfg *config.Config) (*scanner.Scanner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	v, err := validator.New(cfg.RequiredTags)
	if err != nil {
		if !errors.Is(err, validator.ErrNoRequiredTags) {
			return nil, err
		}
		log.Warn().Msg("required_tags is empty: every resource will report as compliant")
	}

	return scanner.New(
		cfg.Accounts,
		aws.NewAssumeRoleProvider(sts.NewFromConfig(awsCfg), cfg),
		aws.NewTaggingDiscoverer(),
		filter.Compile(cfg.ExcludedResourceTypes),
		v,
	), nil
}
