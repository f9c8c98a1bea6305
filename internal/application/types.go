package application

import "time"

// Config carries the decision engine's tunables.
type Config struct {
	// FreshnessWindow is the maximum allowed skew between a proof's issuedAt
	// and server time. The boundary is inclusive: skew of exactly the window
	// still passes.
	FreshnessWindow time.Duration
	// MinScoreCap bounds caller-supplied thresholds.
	MinScoreCap int
}

// CheckAccessRequest is the access-check endpoint's body. A caller presents
// either an existing token or an address, optionally with a challenge proof.
type CheckAccessRequest struct {
	Address    string `json:"address,omitempty"`
	MinScore   int    `json:"minScore,omitempty"`
	Signature  string `json:"signature,omitempty"`
	Nonce      string `json:"nonce,omitempty"`
	IssuedAt   string `json:"issuedAt,omitempty"`
	IssueToken bool   `json:"issueToken,omitempty"`
	Token      string `json:"token,omitempty"`
}

type CheckAccessResponse struct {
	Address         string `json:"address"`
	Score           int    `json:"score"`
	Tier            string `json:"tier"`
	HasAccess       bool   `json:"hasAccess"`
	Vouches         int    `json:"vouches"`
	Reviews         int    `json:"reviews"`
	PositiveReviews int    `json:"positiveReviews"`
	NegativeReviews int    `json:"negativeReviews"`
	Token           string `json:"token,omitempty"`
}

// AccessTokenRequest is the challenge-response body: a fresh proof traded for
// a credential.
type AccessTokenRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
	IssuedAt  string `json:"issuedAt"`
}

type AccessTokenResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
	Score   int    `json:"score"`
	Tier    string `json:"tier"`
	Vouches int    `json:"vouches"`
	Reviews int    `json:"reviews"`
}
