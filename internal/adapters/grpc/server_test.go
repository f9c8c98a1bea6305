package grpc

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ethosgate/reputation-gate/internal/adapters/cache"
	"github.com/ethosgate/reputation-gate/internal/adapters/security"
	"github.com/ethosgate/reputation-gate/internal/application"
	"github.com/ethosgate/reputation-gate/internal/ports"
)

type noopProvider struct{}

func (noopProvider) Fetch(_ context.Context, address string) ports.ReputationSnapshot {
	return ports.ReputationSnapshot{Address: address}
}

func newServer(t *testing.T) (*GateInternalServer, *security.HMACSigner) {
	t.Helper()
	signer, err := security.NewHMACSigner("grpc-test-secret", 5*time.Minute)
	if err != nil {
		t.Fatalf("build signer: %v", err)
	}
	svc := application.NewService(application.Dependencies{
		Reputation: noopProvider{},
		Nonces:     cache.NewMemoryNonceLedger(5*time.Minute, 100),
		Signer:     signer,
		Recoverer:  security.PersonalSignRecoverer{},
	})
	return NewGateInternalServer(svc), signer
}

func TestVerifyTokenReturnsClaims(t *testing.T) {
	srv, signer := newServer(t)

	token, err := signer.Issue(ports.AccessClaims{
		Address: "0xab5801a7d398351b8be11c439e05c5b3259aec9b",
		Score:   1700,
		Tier:    "ELITE",
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req, err := structpb.NewStruct(map[string]any{"token": token})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	out, err := srv.VerifyToken(context.Background(), req)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}

	fields := out.GetFields()
	if fields["address"].GetStringValue() != "0xab5801a7d398351b8be11c439e05c5b3259aec9b" {
		t.Fatalf("unexpected address: %v", fields["address"])
	}
	if int(fields["score"].GetNumberValue()) != 1700 || fields["tier"].GetStringValue() != "ELITE" {
		t.Fatalf("unexpected claims: %v", fields)
	}
	if fields["expires_at"].GetNumberValue() <= fields["issued_at"].GetNumberValue() {
		t.Fatal("expiry must be after issuance")
	}
}

func TestVerifyTokenMissingToken(t *testing.T) {
	srv, _ := newServer(t)

	req, _ := structpb.NewStruct(map[string]any{})
	if _, err := srv.VerifyToken(context.Background(), req); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("got %v, want InvalidArgument", err)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	srv, _ := newServer(t)

	req, _ := structpb.NewStruct(map[string]any{"token": "garbage"})
	if _, err := srv.VerifyToken(context.Background(), req); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("got %v, want Unauthenticated", err)
	}
}
