package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/leima/config"
	"github.com/yairfalse/leima/scanner"
)

const sessionDurationSeconds = 3600

// AssumeRoleProvider issues temporary credentials per account by assuming
// the configured audit role. Accounts without a role configured get
// zero-value credentials, meaning the process's ambient identity.
type AssumeRoleProvider struct {
	sts STSAPI
	cfg *config.Config
}

// NewAssumeRoleProvider creates a provider over the given STS client.
func NewAssumeRoleProvider(client STSAPI, cfg *config.Config) *AssumeRoleProvider {
	return &AssumeRoleProvider{sts: client, cfg: cfg}
}

// Credentials implements scanner.CredentialsProvider.
func (p *AssumeRoleProvider) Credentials(ctx context.Context, accountID string) (scanner.Credentials, error) {
	roleARN := p.cfg.RoleARN(accountID)
	if roleARN == "" {
		return scanner.Credentials{}, nil
	}

	log.Debug().
		Str("account_id", accountID).
		Str("role_arn", roleARN).
		Msg("assuming role")

	out, err := p.sts.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(fmt.Sprintf("leima-audit-%s", accountID)),
		DurationSeconds: aws.Int32(sessionDurationSeconds),
	})
	if err != nil {
		return scanner.Credentials{}, fmt.Errorf("assume role %s: %w", roleARN, err)
	}

	creds := out.Credentials
	return scanner.Credentials{
		AccessKeyID:     aws.ToString(creds.AccessKeyId),
		SecretAccessKey: aws.ToString(creds.SecretAccessKey),
		SessionToken:    aws.ToString(creds.SessionToken),
	}, nil
}
