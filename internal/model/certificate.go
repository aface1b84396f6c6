package model

import (
	"fmt"
	"time"
)

// Status classifies a certificate by its remaining validity.
type Status string

const (
	StatusValid        Status = "VALID"
	StatusExpired      Status = "EXPIRED"
	StatusExpiringSoon Status = "EXPIRING_SOON"
	StatusWeak         Status = "WEAK"
)

// ExpiringSoonDays is the threshold below which a still-valid certificate
// is reported as EXPIRING_SOON.
const ExpiringSoonDays = 30

// StatusAt derives the status of a certificate from its validity end date.
func StatusAt(validTo, now time.Time) Status {
	remaining := validTo.Sub(now)
	switch {
	case remaining < 0:
		return StatusExpired
	case remaining <= ExpiringSoonDays*24*time.Hour:
		return StatusExpiringSoon
	default:
		return StatusValid
	}
}

// VulnerabilityCount holds lint findings split by severity.
type VulnerabilityCount struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Summary renders the count the way the dashboard table displays it.
func (v VulnerabilityCount) Summary() string {
	switch {
	case v.Errors > 0:
		return fmt.Sprintf("%d Critical", v.Errors)
	case v.Warnings > 0:
		return fmt.Sprintf("%d Warning", v.Warnings)
	default:
		return "0 Found"
	}
}

// GradeFor maps lint error/warning counts to a coarse letter grade.
func GradeFor(v VulnerabilityCount) string {
	switch {
	case v.Errors >= 3:
		return "F"
	case v.Errors >= 2:
		return "C"
	case v.Errors >= 1:
		return "B"
	case v.Warnings >= 3:
		return "B+"
	case v.Warnings >= 1:
		return "A-"
	default:
		return "A+"
	}
}

// Certificate is the API representation of one scanned certificate.
// Immutable once fetched; identified by an opaque id.
type Certificate struct {
	ID                 string             `json:"id"`
	Domain             string             `json:"domain"`
	Issuer             string             `json:"issuer"`
	IssuerDN           string             `json:"issuerDn,omitempty"`
	ValidFrom          string             `json:"validFrom"`
	ValidTo            string             `json:"validTo"`
	Status             Status             `json:"status"`
	Grade              string             `json:"grade"`
	EncryptionType     string             `json:"encryptionType"`
	KeyLength          int                `json:"keyLength"`
	SignatureAlgorithm string             `json:"signatureAlgorithm"`
	Vulnerabilities    string             `json:"vulnerabilities"`
	VulnerabilityCount VulnerabilityCount `json:"vulnerabilityCount"`
	SAN                []string           `json:"san"`
	Country            string             `json:"country"`
	ScanDate           string             `json:"scanDate"`
	ValidationLevel    string             `json:"validationLevel"`
}

// CertificatePage is one page of a certificate listing together with its
// pagination metadata.
type CertificatePage struct {
	Certificates []Certificate `json:"certificates"`
	Pagination   Pagination    `json:"pagination"`
}
