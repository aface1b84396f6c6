package model

import "strings"

// FilterOptions is a set of independent filter predicates combined with
// AND semantics across categories and OR semantics within a category.
// A nil/empty category places no constraint.
type FilterOptions struct {
	StartDate        string   `json:"startDate,omitempty"`
	EndDate          string   `json:"endDate,omitempty"`
	Statuses         []Status `json:"statuses,omitempty"`
	Grades           []string `json:"grades,omitempty"`
	Issuers          []string `json:"issuers,omitempty"`
	Countries        []string `json:"countries,omitempty"`
	ValidationLevels []string `json:"validationLevels,omitempty"`
	Vulnerabilities  []string `json:"vulnerabilities,omitempty"`
}

// IsZero reports whether no category is constrained.
func (f FilterOptions) IsZero() bool {
	return f.StartDate == "" && f.EndDate == "" &&
		len(f.Statuses) == 0 && len(f.Grades) == 0 &&
		len(f.Issuers) == 0 && len(f.Countries) == 0 &&
		len(f.ValidationLevels) == 0 && len(f.Vulnerabilities) == 0
}

// Matches reports whether cert satisfies every active category.
func (f FilterOptions) Matches(cert Certificate) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, cert.Status) {
		return false
	}
	if len(f.Grades) > 0 && !containsFold(f.Grades, cert.Grade) {
		return false
	}
	if len(f.Issuers) > 0 && !issuerMatches(f.Issuers, cert.Issuer) {
		return false
	}
	if len(f.Countries) > 0 && !containsFold(f.Countries, cert.Country) {
		return false
	}
	if len(f.ValidationLevels) > 0 && !containsFold(f.ValidationLevels, cert.ValidationLevel) {
		return false
	}
	if len(f.Vulnerabilities) > 0 && !vulnerabilityMatches(f.Vulnerabilities, cert.VulnerabilityCount) {
		return false
	}
	if f.StartDate != "" && cert.ValidTo < f.StartDate {
		return false
	}
	if f.EndDate != "" && cert.ValidTo > f.EndDate {
		return false
	}
	return true
}

// SearchMatches reports whether the query appears, case-insensitively, in
// the certificate's domain, issuer, status or grade.
func SearchMatches(cert Certificate, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{cert.Domain, cert.Issuer, string(cert.Status), cert.Grade} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func containsStatus(set []Status, s Status) bool {
	for _, v := range set {
		if strings.EqualFold(string(v), string(s)) {
			return true
		}
	}
	return false
}

func containsFold(set []string, s string) bool {
	for _, v := range set {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// issuerMatches uses substring matching so that a selected "Let's Encrypt"
// also catches issuer strings carrying extra qualifiers.
func issuerMatches(selected []string, issuer string) bool {
	lower := strings.ToLower(issuer)
	for _, s := range selected {
		if strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func vulnerabilityMatches(selected []string, counts VulnerabilityCount) bool {
	for _, s := range selected {
		switch strings.ToLower(s) {
		case "critical", "error", "errors":
			if counts.Errors > 0 {
				return true
			}
		case "warning", "warnings":
			if counts.Warnings > 0 {
				return true
			}
		case "none", "clean":
			if counts.Errors == 0 && counts.Warnings == 0 {
				return true
			}
		}
	}
	return false
}
