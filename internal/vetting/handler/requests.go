package handler

import (
	"strings"

	"dhruva/pkg/domain"
	"dhruva/pkg/platform/validation"
)

type SubmitRequest struct {
	AccountID        string `json:"accountId" validate:"required,notblank"`
	WalletAddress    string `json:"walletAddress" validate:"omitempty,address,max=128"`
	OrganizationName string `json:"organizationName" validate:"max=256"`
	Website          string `json:"website" validate:"omitempty,url,max=2048"`
	Description      string `json:"description" validate:"max=4096"`
}

func (r *SubmitRequest) Sanitize() {
	r.AccountID = strings.TrimSpace(r.AccountID)
	r.OrganizationName = strings.TrimSpace(r.OrganizationName)
	r.Website = strings.TrimSpace(r.Website)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *SubmitRequest) Normalize() {
	r.WalletAddress = domain.CanonicalAddress(r.WalletAddress)
}

func (r *SubmitRequest) Validate() error {
	return validation.Validate(r)
}

// DecideRequest is the body of the approve and reject routes. The body is
// optional; the reviewer falls back to the admin actor header.
type DecideRequest struct {
	AdminUsername string `json:"adminUsername" validate:"max=256"`
	Reason        string `json:"reason" validate:"max=1024"`
}

func (r *DecideRequest) Sanitize() {
	r.AdminUsername = strings.TrimSpace(r.AdminUsername)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *DecideRequest) Validate() error {
	return validation.Validate(r)
}
