package dto

import "time"

// UploadDocumentRequest attaches one file to a case. Content is base64.
type UploadDocumentRequest struct {
	CaseID   string `json:"case_id" validate:"required"`
	Filename string `json:"filename" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

// DocumentInfo describes a stored attachment and its signed download token.
type DocumentInfo struct {
	CaseID    string    `json:"case_id"`
	URI       string    `json:"uri"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Size      int       `json:"size"`
}
