// Package seeder populates a fresh development deployment with demo
// accounts and approval requests through the regular services, so audit
// events, vetting requests and metrics are produced the same way real
// traffic produces them.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	appmodels "dhruva/internal/approval/models"
	appservice "dhruva/internal/approval/service"
	idmodels "dhruva/internal/identity/models"
	idservice "dhruva/internal/identity/service"
)

// AccountRegistrar registers accounts.
type AccountRegistrar interface {
	Register(ctx context.Context, cmd idservice.RegisterCommand) (*idmodels.Account, error)
}

// ApprovalSubmitter opens approval requests.
type ApprovalSubmitter interface {
	Submit(ctx context.Context, cmd appservice.SubmitCommand) (*appmodels.Request, error)
}

// Demo wallets. Organizations register with a wallet so each opens a
// pending vetting request.
const (
	HolderWallet     = "0x00000000000000000000000000000000000000a1"
	HolderWallet2    = "0x00000000000000000000000000000000000000a2"
	UniversityWallet = "0x00000000000000000000000000000000000000b1"
	EmployerWallet   = "0x00000000000000000000000000000000000000b2"
	VerifierWallet   = "0x00000000000000000000000000000000000000c1"
)

// Seeder populates stores with demo data
type Seeder struct {
	accounts  AccountRegistrar
	approvals ApprovalSubmitter
	logger    *slog.Logger
}

func New(accounts AccountRegistrar, approvals ApprovalSubmitter, logger *slog.Logger) *Seeder {
	return &Seeder{accounts: accounts, approvals: approvals, logger: logger}
}

// Summary counts what SeedAll created.
type Summary struct {
	Accounts  int
	Approvals int
}

// SeedAll registers the demo accounts, then submits approval requests
// from the holders to the organizations.
func (s *Seeder) SeedAll(ctx context.Context) (Summary, error) {
	s.logger.Info("seeding demo data...")

	var sum Summary
	n, err := s.seedAccounts(ctx)
	sum.Accounts = n
	if err != nil {
		return sum, fmt.Errorf("failed to seed accounts: %w", err)
	}
	if sum.Approvals, err = s.seedApprovals(ctx); err != nil {
		return sum, fmt.Errorf("failed to seed approval requests: %w", err)
	}

	s.logger.Info("demo data seeded successfully",
		"accounts", sum.Accounts,
		"approval_requests", sum.Approvals,
	)
	return sum, nil
}

func (s *Seeder) seedAccounts(ctx context.Context) (int, error) {
	demo := []idservice.RegisterCommand{
		{Username: "alice", Role: string(idmodels.RoleHolder), WalletAddress: HolderWallet},
		{Username: "bob", Role: string(idmodels.RoleHolder), WalletAddress: HolderWallet2},
		{
			Username:      "northfield-university",
			Role:          string(idmodels.RoleOrganization),
			WalletAddress: UniversityWallet,
			Organization: idmodels.OrganizationProfile{
				Name:        "Northfield University",
				Website:     "https://northfield.example.edu",
				Description: "Issues degree certificates",
			},
		},
		{
			Username:      "acme-corp",
			Role:          string(idmodels.RoleOrganization),
			WalletAddress: EmployerWallet,
			Organization:  idmodels.OrganizationProfile{Name: "Acme Corp"},
		},
		{Username: "checkpoint", Role: string(idmodels.RoleVerifier), WalletAddress: VerifierWallet},
	}

	for i, cmd := range demo {
		if _, err := s.accounts.Register(ctx, cmd); err != nil {
			return i, fmt.Errorf("register %s: %w", cmd.Username, err)
		}
	}
	return len(demo), nil
}

func (s *Seeder) seedApprovals(ctx context.Context) (int, error) {
	demo := []appservice.SubmitCommand{
		{
			Requester:    HolderWallet,
			Organization: UniversityWallet,
			DocumentHash: "0x6465677265652d616c696365",
			DocumentName: "Bachelor of Science",
			DocumentType: "degree",
			Metadata:     map[string]any{"graduationYear": 2024, "major": "Physics"},
		},
		{
			Requester:    HolderWallet,
			Organization: EmployerWallet,
			DocumentHash: "0x656d706c6f796d656e742d616c696365",
			DocumentName: "Employment letter",
			DocumentType: "employment",
		},
		{
			Requester:    HolderWallet2,
			Organization: UniversityWallet,
			DocumentHash: "0x7472616e7363726970742d626f62",
			DocumentName: "Transcript",
			DocumentType: "transcript",
		},
	}

	for i, cmd := range demo {
		if _, err := s.approvals.Submit(ctx, cmd); err != nil {
			return i, fmt.Errorf("submit %s: %w", cmd.DocumentName, err)
		}
	}
	return len(demo), nil
}
