package repository

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/sslguardian/dashboard/internal/country"
	"github.com/sslguardian/dashboard/internal/model"
)

// ListQuery carries every filter the certificate listing and the CSV
// download accept. Zero values place no constraint.
type ListQuery struct {
	Page               int
	PageSize           int
	Status             model.Status
	Country            string
	Issuer             string
	Search             string
	EncryptionType     string
	HasVulnerabilities bool
	ExpiringMonth      int
	ExpiringYear       int
	ExpiringDays       int
	IssuedMonth        int
	IssuedYear         int

	// Global multi-select filters shared by every dashboard page.
	Global model.FilterOptions
}

// buildFilter translates a ListQuery into a MongoDB match document.
// Categories combine with AND; selections within a category with OR.
func buildFilter(q ListQuery, now time.Time) bson.M {
	var clauses []bson.M

	if base := buildGlobalFilter(q.Global, now); len(base) > 0 {
		clauses = append(clauses, base)
	}

	if q.Search != "" {
		pattern := regexp.QuoteMeta(q.Search)
		clauses = append(clauses, bson.M{"$or": bson.A{
			bson.M{"parsed.subject.common_name": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"domain": bson.M{"$regex": pattern, "$options": "i"}},
		}})
	}

	if q.Issuer != "" {
		clauses = append(clauses, bson.M{
			"parsed.issuer.organization": bson.M{"$regex": regexp.QuoteMeta(q.Issuer), "$options": "i"},
		})
	}

	if q.Status != "" {
		if c := statusClause(q.Status, now); c != nil {
			clauses = append(clauses, c)
		}
	}

	if q.EncryptionType != "" {
		if c := encryptionClause(q.EncryptionType); len(c) > 0 {
			clauses = append(clauses, c)
		}
	}

	if q.ExpiringMonth >= 1 && q.ExpiringMonth <= 12 && q.ExpiringYear > 0 {
		start, end := monthWindow(q.ExpiringYear, time.Month(q.ExpiringMonth))
		clauses = append(clauses, bson.M{"parsed.validity.end": bson.M{"$gte": start, "$lte": end}})
	}

	if q.IssuedMonth >= 1 && q.IssuedMonth <= 12 && q.IssuedYear > 0 {
		start, end := monthWindow(q.IssuedYear, time.Month(q.IssuedMonth))
		clauses = append(clauses, bson.M{"parsed.validity.start": bson.M{"$gte": start, "$lte": end}})
	}

	if q.ExpiringDays > 0 {
		target := now.AddDate(0, 0, q.ExpiringDays)
		clauses = append(clauses, bson.M{"parsed.validity.end": bson.M{
			"$gt":  now.Format(isoFormat),
			"$lte": target.Format(isoFormat),
		}})
	}

	if q.HasVulnerabilities {
		clauses = append(clauses, bson.M{"zlint.errors_present": true})
	}

	if q.Country != "" {
		clauses = append(clauses, countryClause(q.Country))
	}

	return combine(clauses)
}

// buildGlobalFilter translates the multi-select dashboard filters.
func buildGlobalFilter(f model.FilterOptions, now time.Time) bson.M {
	var clauses []bson.M

	// Date range keeps certificates whose validity ends inside the range.
	// Each bound applies on its own, matching the client-side predicate.
	if f.StartDate != "" || f.EndDate != "" {
		bounds := bson.M{}
		if f.StartDate != "" {
			bounds["$gte"] = f.StartDate
		}
		if f.EndDate != "" {
			bounds["$lte"] = f.EndDate
		}
		clauses = append(clauses, bson.M{"parsed.validity.end": bounds})
	}

	if len(f.Issuers) > 0 {
		clauses = append(clauses, bson.M{
			"parsed.issuer.organization": bson.M{"$in": f.Issuers},
		})
	}

	if len(f.Statuses) > 0 {
		var or bson.A
		for _, status := range f.Statuses {
			if c := statusClause(status, now); c != nil {
				or = append(or, c)
			}
		}
		if len(or) > 0 {
			clauses = append(clauses, bson.M{"$or": or})
		}
	}

	if len(f.ValidationLevels) > 0 {
		var or bson.A
		for _, level := range f.ValidationLevels {
			switch strings.ToUpper(level) {
			case "EV":
				or = append(or, bson.M{"parsed.extensions.certificate_policies": bson.M{"$exists": true}})
			case "OV":
				or = append(or, bson.M{"parsed.subject.organization": bson.M{"$exists": true}})
			case "DV":
				or = append(or, bson.M{"parsed.subject.organization": bson.M{"$exists": false}})
			}
		}
		if len(or) > 0 {
			clauses = append(clauses, bson.M{"$or": or})
		}
	}

	if len(f.Countries) > 0 {
		var or bson.A
		for _, name := range f.Countries {
			or = append(or, countryClause(name))
		}
		clauses = append(clauses, bson.M{"$or": or})
	}

	return combine(clauses)
}

// statusClause expresses one status as a validity/key predicate. VALID is
// every non-expired certificate, expiring-soon included.
func statusClause(status model.Status, now time.Time) bson.M {
	nowISO := now.Format(isoFormat)
	soonISO := now.AddDate(0, 0, model.ExpiringSoonDays).Format(isoFormat)

	switch model.Status(strings.ToUpper(string(status))) {
	case model.StatusExpired:
		return bson.M{"parsed.validity.end": bson.M{"$lt": nowISO}}
	case model.StatusExpiringSoon:
		return bson.M{"parsed.validity.end": bson.M{"$gte": nowISO, "$lte": soonISO}}
	case model.StatusValid:
		return bson.M{"parsed.validity.end": bson.M{"$gt": nowISO}}
	case model.StatusWeak:
		return bson.M{
			"parsed.subject_key_info.key_algorithm.name":    "RSA",
			"parsed.subject_key_info.rsa_public_key.length": bson.M{"$lt": 2048},
		}
	default:
		return nil
	}
}

// encryptionClause parses a display string such as "RSA 2048" back into
// key algorithm and length predicates.
func encryptionClause(encryptionType string) bson.M {
	parts := strings.Fields(encryptionType)
	if len(parts) == 0 {
		return bson.M{}
	}
	clause := bson.M{"parsed.subject_key_info.key_algorithm.name": parts[0]}
	if len(parts) < 2 {
		return clause
	}
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return clause
	}
	switch strings.ToUpper(parts[0]) {
	case "RSA":
		clause["parsed.subject_key_info.rsa_public_key.length"] = length
	case "ECDSA", "EC":
		clause["parsed.subject_key_info.ecdsa_public_key.length"] = length
	}
	return clause
}

// countryClause matches domains whose TLD maps to the country. Country
// names are accepted as either display names or alpha-2 codes upstream;
// here only the display name reaches the query builder.
func countryClause(name string) bson.M {
	tlds := country.TLDs(name)
	if len(tlds) == 0 {
		// No TLD maps to this country: match nothing.
		return bson.M{"_id": bson.M{"$exists": false}}
	}
	patterns := make([]string, len(tlds))
	for i, tld := range tlds {
		patterns[i] = `.*\.` + strings.ReplaceAll(tld, ".", `\.`) + "$"
	}
	return bson.M{"domain": bson.M{"$regex": strings.Join(patterns, "|"), "$options": "i"}}
}

func monthWindow(year int, month time.Month) (string, string) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start.Format(isoFormat), end.Format(isoFormat)
}

func combine(clauses []bson.M) bson.M {
	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	default:
		anded := make(bson.A, len(clauses))
		for i, c := range clauses {
			anded[i] = c
		}
		return bson.M{"$and": anded}
	}
}
