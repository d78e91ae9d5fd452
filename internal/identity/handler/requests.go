package handler

import (
	"strings"

	"dhruva/pkg/domain"
	"dhruva/pkg/platform/validation"
)

type RegisterRequest struct {
	Username         string `json:"username" validate:"required,notblank,max=256"`
	Role             string `json:"role" validate:"required,oneof=holder organization verifier admin"`
	WalletAddress    string `json:"walletAddress" validate:"omitempty,address,max=128"`
	OrganizationName string `json:"organizationName" validate:"max=256"`
	Website          string `json:"website" validate:"omitempty,url,max=2048"`
	Description      string `json:"description" validate:"max=4096"`
}

func (r *RegisterRequest) Sanitize() {
	r.Username = strings.TrimSpace(r.Username)
	r.OrganizationName = strings.TrimSpace(r.OrganizationName)
	r.Website = strings.TrimSpace(r.Website)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *RegisterRequest) Normalize() {
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	r.WalletAddress = domain.CanonicalAddress(r.WalletAddress)
}

func (r *RegisterRequest) Validate() error {
	return validation.Validate(r)
}

type WalletRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required,address,max=128"`
}

func (r *WalletRequest) Normalize() {
	r.WalletAddress = domain.CanonicalAddress(r.WalletAddress)
}

func (r *WalletRequest) Validate() error {
	return validation.Validate(r)
}
