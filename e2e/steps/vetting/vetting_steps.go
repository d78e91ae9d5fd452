package vetting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"

	"dhruva/e2e/steps/common"
)

// RegisterSteps registers organization signup and vetting steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc common.TestContext) {
	steps := &vettingSteps{tc: tc}

	ctx.Step(`^organization "([^"]*)" signs up without a wallet$`, steps.signUp)
	ctx.Step(`^the organization links wallet "([^"]*)"$`, steps.linkWallet)
	ctx.Step(`^the organization should have a "([^"]*)" vetting request$`, steps.shouldHaveRequest)
	ctx.Step(`^admin "([^"]*)" rejects the vetting request with reason "([^"]*)"$`, steps.reject)
	ctx.Step(`^admin "([^"]*)" approves the vetting request$`, steps.approve)
	ctx.Step(`^the organization account should not be approved$`, steps.accountNotApproved)
}

type vettingSteps struct {
	tc common.TestContext
}

func (s *vettingSteps) signUp(ctx context.Context, username string) error {
	if err := s.tc.POST("/accounts", map[string]any{
		"username":         username,
		"role":             "organization",
		"organizationName": username,
	}); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusCreated {
		return fmt.Errorf("signup returned %d: %s", status, s.tc.GetLastResponseBody())
	}
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Set("accountId", fmt.Sprint(id))
	return nil
}

func (s *vettingSteps) linkWallet(ctx context.Context, wallet string) error {
	if err := s.tc.POST("/accounts/{accountId}/wallet", map[string]any{"walletAddress": wallet}); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusOK {
		return fmt.Errorf("link wallet returned %d: %s", status, s.tc.GetLastResponseBody())
	}
	return nil
}

type listing struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	Status    string `json:"status"`
}

func (s *vettingSteps) shouldHaveRequest(ctx context.Context, status string) error {
	if err := s.tc.Admin(http.MethodGet, "/admin/org-requests", nil); err != nil {
		return err
	}
	if code := s.tc.GetLastResponseStatus(); code != http.StatusOK {
		return fmt.Errorf("list returned %d: %s", code, s.tc.GetLastResponseBody())
	}
	var resp struct {
		Requests []listing `json:"requests"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &resp); err != nil {
		return fmt.Errorf("failed to parse list: %w", err)
	}
	accountID := s.tc.Expand("{accountId}")
	for _, r := range resp.Requests {
		if r.AccountID != accountID {
			continue
		}
		if r.Status != status {
			return fmt.Errorf("vetting request %s is %s, want %s", r.ID, r.Status, status)
		}
		s.tc.Set("vettingId", r.ID)
		return nil
	}
	return fmt.Errorf("no vetting request listed for account %s", accountID)
}

func (s *vettingSteps) reject(ctx context.Context, admin, reason string) error {
	return s.tc.Admin(http.MethodPost, "/admin/org-requests/{vettingId}/reject", map[string]any{
		"adminUsername": admin,
		"reason":        reason,
	})
}

func (s *vettingSteps) approve(ctx context.Context, admin string) error {
	return s.tc.Admin(http.MethodPost, "/admin/org-requests/{vettingId}/approve", map[string]any{
		"adminUsername": admin,
	})
}

func (s *vettingSteps) accountNotApproved(ctx context.Context) error {
	if err := s.tc.GET("/accounts/{accountId}"); err != nil {
		return err
	}
	approved, err := s.tc.GetResponseField("isApproved")
	if err != nil {
		return err
	}
	if approved != false {
		return fmt.Errorf("expected isApproved false, got %v", approved)
	}
	return nil
}
