package handler

import (
	"time"

	"dhruva/internal/approval/models"
)

type RequestResponse struct {
	ID                   string         `json:"id"`
	Requester            string         `json:"requester"`
	Organization         string         `json:"organization"`
	DocumentHash         string         `json:"documentHash"`
	DocumentName         string         `json:"documentName"`
	DocumentType         string         `json:"documentType,omitempty"`
	Description          string         `json:"description,omitempty"`
	FileURL              string         `json:"fileUrl,omitempty"`
	Status               string         `json:"status"`
	ResponseMessage      string         `json:"responseMessage,omitempty"`
	IssuedCredentialHash string         `json:"issuedCredentialHash,omitempty"`
	RequestedAt          time.Time      `json:"requestedAt"`
	RespondedAt          *time.Time     `json:"respondedAt,omitempty"`
	ExpiryDate           int64          `json:"expiryDate,omitempty"`
	Metadata             map[string]any `json:"metadata"`
}

type OutcomeResponse struct {
	Success  bool            `json:"success"`
	Request  RequestResponse `json:"request"`
	Warnings []string        `json:"warnings,omitempty"`
}

type IssueResponse struct {
	OutcomeResponse
	CredentialHash string `json:"credentialHash"`
	TxHash         string `json:"txHash,omitempty"`
}

type CancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func toRequestResponse(r *models.Request) RequestResponse {
	return RequestResponse{
		ID:                   r.ID.String(),
		Requester:            r.Requester,
		Organization:         r.Organization,
		DocumentHash:         r.DocumentHash,
		DocumentName:         r.DocumentName,
		DocumentType:         r.DocumentType,
		Description:          r.Description,
		FileURL:              r.FileURL,
		Status:               r.Status.String(),
		ResponseMessage:      r.ResponseMessage,
		IssuedCredentialHash: r.IssuedCredentialHash,
		RequestedAt:          r.RequestedAt,
		RespondedAt:          r.RespondedAt,
		ExpiryDate:           r.ExpiryDate,
		Metadata:             r.Metadata,
	}
}

func toRequestResponses(rs []*models.Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRequestResponse(r))
	}
	return out
}
