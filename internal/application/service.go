// Package application orchestrates proof verification, reputation lookup and
// credential issuance into access decisions.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethosgate/reputation-gate/internal/domain"
	"github.com/ethosgate/reputation-gate/internal/observability"
	"github.com/ethosgate/reputation-gate/internal/ports"
)

type Service struct {
	cfg        Config
	reputation ports.ReputationProvider
	nonces     ports.NonceLedger
	signer     ports.TokenSigner
	recoverer  ports.SignatureRecoverer
	nowFn      func() time.Time
}

type Dependencies struct {
	Config     Config
	Reputation ports.ReputationProvider
	Nonces     ports.NonceLedger
	Signer     ports.TokenSigner
	Recoverer  ports.SignatureRecoverer
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = 60 * time.Second
	}
	if cfg.MinScoreCap <= 0 {
		cfg.MinScoreCap = 2500
	}
	return &Service{
		cfg:        cfg,
		reputation: deps.Reputation,
		nonces:     deps.Nonces,
		signer:     deps.Signer,
		recoverer:  deps.Recoverer,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// CheckAccess resolves the caller's address from a token or a fresh proof,
// fetches the reputation snapshot and renders the decision.
func (s *Service) CheckAccess(ctx context.Context, req CheckAccessRequest) (CheckAccessResponse, error) {
	minScore := req.MinScore
	if minScore < 0 {
		minScore = 0
	}
	if minScore > s.cfg.MinScoreCap {
		minScore = s.cfg.MinScoreCap
	}

	var resolved string
	switch {
	case req.Token != "":
		claims, err := s.signer.Verify(req.Token)
		if err != nil {
			return CheckAccessResponse{}, err
		}
		resolved = claims.Address
		if req.Address != "" {
			supplied, err := domain.NormalizeAddress(req.Address)
			if err != nil {
				return CheckAccessResponse{}, err
			}
			if supplied != resolved {
				return CheckAccessResponse{}, domain.ErrTokenAddressMismatch
			}
		}
	default:
		addr, err := domain.NormalizeAddress(req.Address)
		if err != nil {
			return CheckAccessResponse{}, err
		}
		resolved = addr
		if req.Signature != "" {
			if err := s.verifyChallenge(ctx, resolved, req.Signature, req.Nonce, req.IssuedAt); err != nil {
				return CheckAccessResponse{}, err
			}
		}
	}

	masked := domain.MaskAddress(resolved)
	s.logger().InfoContext(ctx, "check access requested",
		"operation", "check_access",
		"address", masked,
		"min_score", minScore,
	)

	snapshot := s.reputation.Fetch(ctx, resolved)
	tier := domain.TierForScore(snapshot.Score)
	hasAccess := snapshot.Score >= minScore

	res := CheckAccessResponse{
		Address:         resolved,
		Score:           snapshot.Score,
		Tier:            string(tier),
		HasAccess:       hasAccess,
		Vouches:         snapshot.VouchCount,
		Reviews:         snapshot.ReviewCount,
		PositiveReviews: snapshot.PositiveReviewCount,
		NegativeReviews: snapshot.NegativeReviewCount,
	}

	if req.IssueToken {
		// A cached snapshot alone is not proof of liveness. Require that this
		// request carried a signature or a valid token.
		if req.Signature == "" && req.Token == "" {
			return CheckAccessResponse{}, domain.ErrProofRequired
		}
		token, err := s.issueToken(resolved, snapshot.Score, tier)
		if err != nil {
			return CheckAccessResponse{}, err
		}
		res.Token = token
	}

	outcome := "denied"
	if hasAccess {
		outcome = "granted"
	}
	observability.AccessDecisions.WithLabelValues(outcome).Inc()
	s.logger().InfoContext(ctx, "check access decided",
		"operation", "check_access",
		"outcome", outcome,
		"address", masked,
		"score", snapshot.Score,
		"tier", string(tier),
	)
	return res, nil
}

// IssueAccessToken is the challenge-response flow: a valid fresh proof buys a
// credential bound to the current score and tier.
func (s *Service) IssueAccessToken(ctx context.Context, req AccessTokenRequest) (AccessTokenResponse, error) {
	address, err := domain.NormalizeAddress(req.Address)
	if err != nil {
		return AccessTokenResponse{}, err
	}
	if err := s.verifyChallenge(ctx, address, req.Signature, req.Nonce, req.IssuedAt); err != nil {
		return AccessTokenResponse{}, err
	}

	snapshot := s.reputation.Fetch(ctx, address)
	tier := domain.TierForScore(snapshot.Score)

	token, err := s.issueToken(address, snapshot.Score, tier)
	if err != nil {
		return AccessTokenResponse{}, err
	}

	s.logger().InfoContext(ctx, "access token issued",
		"operation", "issue_access_token",
		"outcome", "success",
		"address", domain.MaskAddress(address),
		"tier", string(tier),
	)
	return AccessTokenResponse{
		Token:   token,
		Address: address,
		Score:   snapshot.Score,
		Tier:    string(tier),
		Vouches: snapshot.VouchCount,
		Reviews: snapshot.ReviewCount,
	}, nil
}

// VerifyToken validates a credential and returns its embedded claims.
func (s *Service) VerifyToken(_ context.Context, raw string) (ports.AccessClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return ports.AccessClaims{}, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	return s.signer.Verify(raw)
}

// verifyChallenge runs the ordered proof checks. address must already be
// normalized. The nonce is consumed synchronously on the success path so a
// concurrent replay with the same pair cannot also pass.
func (s *Service) verifyChallenge(ctx context.Context, address, signature, nonce, issuedAt string) error {
	if signature == "" {
		return domain.ErrSignatureRequired
	}
	if nonce == "" {
		return domain.ErrNonceRequired
	}
	if issuedAt == "" {
		return domain.ErrIssuedAtRequired
	}

	ts, err := time.Parse(time.RFC3339Nano, issuedAt)
	if err != nil {
		return domain.ErrInvalidIssuedAt
	}

	skew := s.nowFn().Sub(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > s.cfg.FreshnessWindow {
		return domain.ErrSignatureExpired
	}

	used, err := s.nonces.IsUsed(ctx, address, nonce)
	if err != nil {
		return fmt.Errorf("nonce ledger read: %w", err)
	}
	if used {
		return domain.ErrNonceUsed
	}

	recovered, err := s.recoverer.Recover(domain.ChallengeMessage(address, nonce, issuedAt), signature)
	if err != nil {
		return err
	}
	if !strings.EqualFold(recovered, address) {
		return domain.ErrSignatureMismatch
	}

	first, err := s.nonces.MarkUsed(ctx, address, nonce)
	if err != nil {
		return fmt.Errorf("nonce ledger write: %w", err)
	}
	if !first {
		return domain.ErrNonceUsed
	}
	return nil
}

func (s *Service) issueToken(address string, score int, tier domain.Tier) (string, error) {
	token, err := s.signer.Issue(ports.AccessClaims{
		Address: address,
		Score:   score,
		Tier:    string(tier),
	})
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	observability.TokensIssued.Inc()
	return token, nil
}

func (s *Service) logger() *slog.Logger {
	return slog.Default().With(
		"service", "reputation-gate",
		"module", "application",
		"layer", "application",
	)
}
