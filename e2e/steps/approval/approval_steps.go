package approval

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cucumber/godog"

	"dhruva/e2e/steps/common"
)

// RegisterSteps registers the document approval workflow steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc common.TestContext) {
	steps := &approvalSteps{tc: tc}

	ctx.Step(`^holder "([^"]*)" submits document "([^"]*)" with hash "([^"]*)" to organization "([^"]*)"$`, steps.submit)
	ctx.Step(`^organization "([^"]*)" approves the request with credential "([^"]*)"$`, steps.approve)
	ctx.Step(`^organization "([^"]*)" rejects the request with message "([^"]*)"$`, steps.reject)
	ctx.Step(`^"([^"]*)" cancels the request$`, steps.cancel)
	ctx.Step(`^I fetch the approval request$`, steps.fetch)
	ctx.Step(`^the approval request should no longer exist$`, steps.shouldBeGone)
}

type approvalSteps struct {
	tc common.TestContext
}

func (s *approvalSteps) submit(ctx context.Context, requester, name, hash, organization string) error {
	err := s.tc.POST("/approval-requests", map[string]any{
		"requester":    requester,
		"organization": organization,
		"documentHash": hash,
		"documentName": name,
	})
	if err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != http.StatusCreated {
		return nil
	}
	id, err := s.tc.GetResponseField("request.id")
	if err != nil {
		return err
	}
	s.tc.Set("approvalId", fmt.Sprint(id))
	return nil
}

func (s *approvalSteps) approve(ctx context.Context, organization, credential string) error {
	return s.tc.Do(http.MethodPatch, "/approval-requests/{approvalId}", map[string]any{
		"status":               "approved",
		"responder":            organization,
		"issuedCredentialHash": credential,
	}, nil)
}

func (s *approvalSteps) reject(ctx context.Context, organization, message string) error {
	return s.tc.Do(http.MethodPatch, "/approval-requests/{approvalId}", map[string]any{
		"status":          "rejected",
		"responder":       organization,
		"responseMessage": message,
	}, nil)
}

func (s *approvalSteps) cancel(ctx context.Context, requester string) error {
	return s.tc.Do(http.MethodDelete, "/approval-requests/{approvalId}?requester="+url.QueryEscape(requester), nil, nil)
}

func (s *approvalSteps) fetch(ctx context.Context) error {
	return s.tc.GET("/approval-requests/{approvalId}")
}

func (s *approvalSteps) shouldBeGone(ctx context.Context) error {
	if err := s.fetch(ctx); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusNotFound {
		return fmt.Errorf("expected approval request to be deleted, got status %d", status)
	}
	return nil
}
