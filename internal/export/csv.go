// Package export renders certificate inventories as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sslguardian/dashboard/internal/model"
)

// Columns is the fixed header row of every certificate export.
var Columns = []string{
	"Domain",
	"Start Date",
	"End Date",
	"SSL Grade",
	"Encryption",
	"Vulnerabilities",
	"Issuer",
	"Country",
	"Status",
}

// Record flattens a certificate into one CSV row matching Columns.
func Record(cert model.Certificate) []string {
	return []string{
		cert.Domain,
		dateOnly(cert.ValidFrom),
		dateOnly(cert.ValidTo),
		cert.Grade,
		cert.EncryptionType,
		cert.Vulnerabilities,
		cert.Issuer,
		cert.Country,
		string(cert.Status),
	}
}

// dateOnly trims an ISO timestamp down to its calendar date.
func dateOnly(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// Write emits the header row followed by one record per certificate.
func Write(w io.Writer, certs []model.Certificate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, cert := range certs {
		if err := cw.Write(Record(cert)); err != nil {
			return fmt.Errorf("writing row for %s: %w", cert.Domain, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
