package handler

import (
	"strings"

	"dhruva/pkg/domain"
	"dhruva/pkg/platform/validation"
)

type SubmitRequest struct {
	Requester    string         `json:"requester" validate:"omitempty,address,max=128"`
	Organization string         `json:"organization" validate:"required,address,max=128"`
	DocumentHash string         `json:"documentHash" validate:"required,notblank,max=256"`
	DocumentName string         `json:"documentName" validate:"required,notblank,max=256"`
	DocumentType string         `json:"documentType" validate:"max=256"`
	Description  string         `json:"description" validate:"max=4096"`
	FileURL      string         `json:"fileUrl" validate:"omitempty,url,max=2048"`
	ExpiryDate   int64          `json:"expiryDate" validate:"gte=0"`
	Metadata     map[string]any `json:"metadata"`
}

func (r *SubmitRequest) Sanitize() {
	r.DocumentHash = strings.TrimSpace(r.DocumentHash)
	r.DocumentName = strings.TrimSpace(r.DocumentName)
	r.DocumentType = strings.TrimSpace(r.DocumentType)
	r.Description = strings.TrimSpace(r.Description)
	r.FileURL = strings.TrimSpace(r.FileURL)
}

func (r *SubmitRequest) Normalize() {
	r.Requester = domain.CanonicalAddress(r.Requester)
	r.Organization = domain.CanonicalAddress(r.Organization)
}

func (r *SubmitRequest) Validate() error {
	if err := validation.CheckMapSize("metadata", len(r.Metadata), validation.MaxMetadataKeys); err != nil {
		return err
	}
	return validation.Validate(r)
}

// DecideRequest mirrors the status-patch body: status is approved or
// rejected.
type DecideRequest struct {
	Status               string `json:"status" validate:"required,oneof=approved rejected"`
	Responder            string `json:"responder" validate:"omitempty,address,max=128"`
	ResponseMessage      string `json:"responseMessage" validate:"max=1024"`
	IssuedCredentialHash string `json:"issuedCredentialHash" validate:"max=256"`
}

func (r *DecideRequest) Sanitize() {
	r.ResponseMessage = strings.TrimSpace(r.ResponseMessage)
	r.IssuedCredentialHash = strings.TrimSpace(r.IssuedCredentialHash)
}

func (r *DecideRequest) Normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	r.Responder = domain.CanonicalAddress(r.Responder)
}

func (r *DecideRequest) Validate() error {
	return validation.Validate(r)
}

type IssueRequest struct {
	Caller          string `json:"caller" validate:"omitempty,address,max=128"`
	Responder       string `json:"responder" validate:"omitempty,address,max=128"`
	CredentialHash  string `json:"credentialHash" validate:"max=256"`
	ExpiryDate      int64  `json:"expiryDate" validate:"gte=0"`
	ResponseMessage string `json:"responseMessage" validate:"max=1024"`
}

func (r *IssueRequest) Sanitize() {
	r.CredentialHash = strings.TrimSpace(r.CredentialHash)
	r.ResponseMessage = strings.TrimSpace(r.ResponseMessage)
}

func (r *IssueRequest) Normalize() {
	r.Caller = domain.CanonicalAddress(r.Caller)
	r.Responder = domain.CanonicalAddress(r.Responder)
}

func (r *IssueRequest) Validate() error {
	return validation.Validate(r)
}
