// Package scanner drives resource discovery across the account/region
// matrix and assembles per-region compliance buckets.
package scanner

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/yairfalse/leima/config"
	"github.com/yairfalse/leima/filter"
	"github.com/yairfalse/leima/types"
	"github.com/yairfalse/leima/validator"
)

// Credentials are temporary credentials for one account. The zero value
// means ambient credentials (scan the account the process runs in).
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// IsZero reports whether no explicit credentials were issued.
func (c Credentials) IsZero() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == "" && c.SessionToken == ""
}

// CredentialsProvider yields temporary credentials for an account.
type CredentialsProvider interface {
	Credentials(ctx context.Context, accountID string) (Credentials, error)
}

// Discoverer streams raw resource records for one region. The visit
// callback is invoked once per record; a mid-stream failure returns an
// error after partial delivery, and records already visited stay counted.
type Discoverer interface {
	Discover(ctx context.Context, creds Credentials, region string, visit func(types.ResourceRecord)) error
}

// Scanner runs one scan cycle over the configured account matrix.
type Scanner struct {
	accounts  []config.Account
	creds     CredentialsProvider
	discovery Discoverer
	filter    *filter.Filter
	validator *validator.Validator
}

// New creates a Scanner over the given collaborators.
func New(accounts []config.Account, creds CredentialsProvider, discovery Discoverer, f *filter.Filter, v *validator.Validator) *Scanner {
	return &Scanner{
		accounts:  accounts,
		creds:     creds,
		discovery: discovery,
		filter:    f,
		validator: v,
	}
}

// Run executes one full scan. Accounts run concurrently, and regions run
// concurrently within each account; every goroutine writes to its own
// bucket, so the only shared state is the fan-in below. Credential and
// region errors are recorded in the result, never returned; the returned
// error is reserved for cycle-level failure (context cancellation).
func (s *Scanner) Run(ctx context.Context) (types.ScanResult, error) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = make(types.ScanResult, len(s.accounts))
	)

	for _, acct := range s.accounts {
		wg.Add(1)
		go func(acct config.Account) {
			defer wg.Done()
			res := s.scanAccount(ctx, acct)
			mu.Lock()
			result[acct.AccountID] = res
			mu.Unlock()
		}(acct)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan aborted: %w", err)
	}
	return result, nil
}

func (s *Scanner) scanAccount(ctx context.Context, acct config.Account) *types.AccountResult {
	res := &types.AccountResult{
		AccountID:   acct.AccountID,
		AccountName: acct.AccountName,
		Regions:     make(map[string]*types.RegionBucket, len(acct.Regions)),
	}

	creds, err := s.creds.Credentials(ctx, acct.AccountID)
	if err != nil {
		res.Error = fmt.Sprintf("credentials for account %s: %v", acct.AccountID, err)
		log.Error().
			Err(err).
			Str("account_id", acct.AccountID).
			Str("account_name", acct.AccountName).
			Msg("credential acquisition failed, skipping account")
		return res
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, region := range acct.Regions {
		wg.Add(1)
		go func(region string) {
			defer wg.Done()
			bucket := s.scanRegion(ctx, creds, acct, region)
			mu.Lock()
			res.Regions[region] = bucket
			mu.Unlock()
		}(region)
	}
	wg.Wait()

	return res
}

func (s *Scanner) scanRegion(ctx context.Context, creds Credentials, acct config.Account, region string) *types.RegionBucket {
	bucket := &types.RegionBucket{}

	err := s.discovery.Discover(ctx, creds, region, func(rec types.ResourceRecord) {
		if s.filter.Excluded(rec.Type) {
			bucket.Excluded++
			return
		}
		validated := s.validator.Validate(rec)
		if validated.IsCompliant() {
			bucket.Compliant = append(bucket.Compliant, validated)
		} else {
			bucket.NonCompliant = append(bucket.NonCompliant, validated)
		}
		bucket.Total++
	})
	if err != nil {
		bucket.Errors = append(bucket.Errors, fmt.Sprintf("discovery in region %s: %v", region, err))
		log.Warn().
			Err(err).
			Str("account_id", acct.AccountID).
			Str("region", region).
			Int("partial_total", bucket.Total).
			Msg("discovery failed, keeping partial results")
	}

	log.Debug().
		Str("account_id", acct.AccountID).
		Str("region", region).
		Int("total", bucket.Total).
		Int("compliant", len(bucket.Compliant)).
		Int("non_compliant", len(bucket.NonCompliant)).
		Int("excluded", bucket.Excluded).
		Msg("region scan complete")

	return bucket
}
