// Package reports runs ad-hoc audit aggregations against the scanned
// certificate collection and renders them as CSV or JSON.
package reports

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultExpiringDays is the renewal window for the expiring-soon
	// report.
	DefaultExpiringDays = 30
	// DefaultSANThreshold flags certificates covering more names than
	// this as a blast-radius risk.
	DefaultSANThreshold = 50
)

const isoFormat = "2006-01-02T15:04:05Z"

// Report is one finished audit: a fixed column header plus string rows.
type Report struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Runner executes reports against one certificate collection.
type Runner struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewRunner(coll *mongo.Collection) *Runner {
	return &Runner{coll: coll, now: time.Now}
}

type reportDoc struct {
	Domain string `bson:"domain"`
	Parsed struct {
		Names    []string `bson:"names"`
		Validity struct {
			Start string `bson:"start"`
			End   string `bson:"end"`
		} `bson:"validity"`
		Subject struct {
			CommonName []string `bson:"common_name"`
		} `bson:"subject"`
		Issuer struct {
			Organization []string `bson:"organization"`
		} `bson:"issuer"`
		SignatureAlgorithm struct {
			Name string `bson:"name"`
		} `bson:"signature_algorithm"`
		SubjectKeyInfo struct {
			FingerprintSHA256 string `bson:"fingerprint_sha256"`
		} `bson:"subject_key_info"`
		Extensions struct {
			CertificatePolicies bson.A `bson:"certificate_policies"`
		} `bson:"extensions"`
	} `bson:"parsed"`
}

func (d *reportDoc) commonName() string {
	if len(d.Parsed.Subject.CommonName) > 0 {
		return d.Parsed.Subject.CommonName[0]
	}
	return "-"
}

func (d *reportDoc) issuer() string {
	if len(d.Parsed.Issuer.Organization) > 0 {
		return d.Parsed.Issuer.Organization[0]
	}
	return "Unknown"
}

func (d *reportDoc) validationLevel() string {
	blob := strings.ToLower(fmt.Sprintf("%v", d.Parsed.Extensions.CertificatePolicies))
	switch {
	case strings.Contains(blob, "extended-validation") || strings.Contains(blob, "ev-ssl"):
		return "EV"
	case strings.Contains(blob, "organization-validation") || strings.Contains(blob, "ov-ssl"):
		return "OV"
	default:
		return "DV"
	}
}

// ExpiringSoon lists certificates expiring within the next days days,
// soonest first.
func (r *Runner) ExpiringSoon(ctx context.Context, days int) (Report, error) {
	if days <= 0 {
		days = DefaultExpiringDays
	}
	now := r.now().UTC()
	cutoff := now.AddDate(0, 0, days)

	filter := bson.M{"parsed.validity.end": bson.M{
		"$gt":  now.Format(isoFormat),
		"$lte": cutoff.Format(isoFormat),
	}}
	docs, err := r.find(ctx, filter)
	if err != nil {
		return Report{}, fmt.Errorf("expiring-soon query: %w", err)
	}

	report := Report{
		Name:    "expiring-soon",
		Columns: []string{"Days Left", "Domain", "Common Name", "Validation Level", "Expiration Date"},
	}
	for _, d := range docs {
		end, err := time.Parse(isoFormat, d.Parsed.Validity.End)
		if err != nil {
			continue
		}
		daysLeft := int(end.Sub(now).Hours() / 24)
		report.Rows = append(report.Rows, []string{
			strconv.Itoa(daysLeft),
			d.Domain,
			d.commonName(),
			d.validationLevel(),
			d.Parsed.Validity.End,
		})
	}
	sortByIntColumn(report.Rows, 0, true)
	return report, nil
}

// Expired lists certificates past their validity end, most recently
// expired first.
func (r *Runner) Expired(ctx context.Context) (Report, error) {
	now := r.now().UTC()
	filter := bson.M{"parsed.validity.end": bson.M{"$lt": now.Format(isoFormat)}}
	docs, err := r.find(ctx, filter)
	if err != nil {
		return Report{}, fmt.Errorf("expired query: %w", err)
	}

	report := Report{
		Name:    "expired",
		Columns: []string{"Days Gone", "Domain", "Common Name", "Validation Level", "Expired On"},
	}
	for _, d := range docs {
		end, err := time.Parse(isoFormat, d.Parsed.Validity.End)
		if err != nil {
			continue
		}
		daysGone := int(now.Sub(end).Hours() / 24)
		report.Rows = append(report.Rows, []string{
			strconv.Itoa(daysGone),
			d.Domain,
			d.commonName(),
			d.validationLevel(),
			d.Parsed.Validity.End,
		})
	}
	sortByIntColumn(report.Rows, 0, true)
	return report, nil
}

// WeakHash lists certificates still signed with SHA-1 or MD5.
func (r *Runner) WeakHash(ctx context.Context) (Report, error) {
	filter := bson.M{"parsed.signature_algorithm.name": bson.M{
		"$regex": "sha-?1|md5", "$options": "i",
	}}
	docs, err := r.find(ctx, filter)
	if err != nil {
		return Report{}, fmt.Errorf("weak-hash query: %w", err)
	}

	report := Report{
		Name:    "weak-hash",
		Columns: []string{"Domain", "Signature Algorithm", "Issuer", "End Date"},
	}
	for _, d := range docs {
		report.Rows = append(report.Rows, []string{
			d.Domain,
			d.Parsed.SignatureAlgorithm.Name,
			d.issuer(),
			d.Parsed.Validity.End,
		})
	}
	return report, nil
}

// SharedKeys groups certificates by subject public key fingerprint and
// reports every key reused across more than one certificate.
func (r *Runner) SharedKeys(ctx context.Context) (Report, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"parsed.subject_key_info.fingerprint_sha256": bson.M{"$nin": bson.A{nil, ""}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$parsed.subject_key_info.fingerprint_sha256",
			"count":   bson.M{"$sum": 1},
			"domains": bson.M{"$addToSet": "$domain"},
		}}},
		{{Key: "$match", Value: bson.M{"count": bson.M{"$gt": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return Report{}, fmt.Errorf("shared-keys aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Fingerprint string   `bson:"_id"`
		Count       int      `bson:"count"`
		Domains     []string `bson:"domains"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return Report{}, fmt.Errorf("shared-keys decode: %w", err)
	}

	report := Report{
		Name:    "shared-keys",
		Columns: []string{"Key Fingerprint", "Certificates", "Domains"},
	}
	for _, g := range groups {
		sort.Strings(g.Domains)
		report.Rows = append(report.Rows, []string{
			g.Fingerprint,
			strconv.Itoa(g.Count),
			strings.Join(g.Domains, "; "),
		})
	}
	return report, nil
}

// SANBlastRadius lists certificates covering more than threshold names.
// One compromised key exposes every name on the certificate at once.
func (r *Runner) SANBlastRadius(ctx context.Context, threshold int) (Report, error) {
	if threshold <= 0 {
		threshold = DefaultSANThreshold
	}
	filter := bson.M{"$expr": bson.M{"$gt": bson.A{
		bson.M{"$size": bson.M{"$ifNull": bson.A{"$parsed.names", bson.A{}}}},
		threshold,
	}}}
	docs, err := r.find(ctx, filter)
	if err != nil {
		return Report{}, fmt.Errorf("san-blast-radius query: %w", err)
	}

	report := Report{
		Name:    "san-blast-radius",
		Columns: []string{"Domain", "SAN Count", "Issuer", "End Date"},
	}
	for _, d := range docs {
		report.Rows = append(report.Rows, []string{
			d.Domain,
			strconv.Itoa(len(d.Parsed.Names)),
			d.issuer(),
			d.Parsed.Validity.End,
		})
	}
	sortByIntColumn(report.Rows, 1, false)
	return report, nil
}

// Lifecycle audits crypto agility by validity-period length. Short
// lifespans indicate automated issuance; anything over 398 days is
// rejected outright by current browsers.
func (r *Runner) Lifecycle(ctx context.Context) (Report, error) {
	docs, err := r.find(ctx, bson.M{
		"parsed.validity.start": bson.M{"$nin": bson.A{nil, ""}},
		"parsed.validity.end":   bson.M{"$nin": bson.A{nil, ""}},
	})
	if err != nil {
		return Report{}, fmt.Errorf("lifecycle query: %w", err)
	}

	report := Report{
		Name:    "lifecycle",
		Columns: []string{"Lifespan (Days)", "Agility Status", "Domain", "Issuer", "Validity Start", "Validity End"},
	}
	for _, d := range docs {
		start, err := time.Parse(isoFormat, d.Parsed.Validity.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(isoFormat, d.Parsed.Validity.End)
		if err != nil {
			continue
		}
		lifespan := int(end.Sub(start).Hours() / 24)
		report.Rows = append(report.Rows, []string{
			strconv.Itoa(lifespan),
			agilityStatus(lifespan),
			d.Domain,
			d.issuer(),
			d.Parsed.Validity.Start,
			d.Parsed.Validity.End,
		})
	}
	sortByIntColumn(report.Rows, 0, false)
	return report, nil
}

// agilityStatus buckets a validity-period length per current CA/B forum
// and browser policy.
func agilityStatus(lifespanDays int) string {
	switch {
	case lifespanDays < 95:
		return "Excellent (Agile)"
	case lifespanDays <= 397:
		return "Standard (Commercial)"
	default:
		return "CRITICAL (Broken)"
	}
}

func (r *Runner) find(ctx context.Context, filter bson.M) ([]reportDoc, error) {
	opts := options.Find().SetSort(bson.D{{Key: "parsed.validity.end", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []reportDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// sortByIntColumn orders rows by the numeric value in column col.
func sortByIntColumn(rows [][]string, col int, asc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := strconv.Atoi(rows[i][col])
		b, _ := strconv.Atoi(rows[j][col])
		if asc {
			return a < b
		}
		return a > b
	})
}
