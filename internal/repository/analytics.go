package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/sslguardian/dashboard/internal/country"
	"github.com/sslguardian/dashboard/internal/model"
)

var caColors = []string{
	"#10b981", "#3b82f6", "#8b5cf6", "#f59e0b", "#ef4444", "#06b6d4",
	"#14b8a6", "#6366f1", "#ec4899", "#84cc16", "#f97316", "#a855f7",
	"#22c55e", "#0ea5e9", "#d946ef", "#eab308", "#6b7280",
}

var geoColors = []string{
	"#3b82f6", "#10b981", "#8b5cf6", "#f59e0b", "#ef4444", "#06b6d4", "#6b7280",
}

var encryptionColors = map[string]string{
	"RSA":   "#3b82f6",
	"ECDSA": "#10b981",
	"EC":    "#10b981",
	"DSA":   "#ef4444",
}

var encryptionLabels = map[string]string{
	"RSA":   "Standard",
	"ECDSA": "Modern",
	"EC":    "Modern",
	"DSA":   "Deprecated",
}

// DashboardMetrics computes the global-health card counters.
func (r *CertificateRepository) DashboardMetrics(ctx context.Context) (model.DashboardMetrics, error) {
	now := r.now().UTC()
	nowISO := now.Format(isoFormat)
	soonISO := now.AddDate(0, 0, model.ExpiringSoonDays).Format(isoFormat)

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return model.DashboardMetrics{}, fmt.Errorf("count total: %w", err)
	}
	if total == 0 {
		return model.DashboardMetrics{
			GlobalHealth: model.GlobalHealth{MaxScore: 100, Status: "CRITICAL", LastUpdated: now.Format("15:04")},
			ExpiringSoon: model.ExpiringCount{DaysThreshold: model.ExpiringSoonDays},
		}, nil
	}

	expired, err := r.coll.CountDocuments(ctx, bson.M{"parsed.validity.end": bson.M{"$lt": nowISO}})
	if err != nil {
		return model.DashboardMetrics{}, fmt.Errorf("count expired: %w", err)
	}
	expiring, err := r.coll.CountDocuments(ctx, bson.M{"parsed.validity.end": bson.M{"$gte": nowISO, "$lte": soonISO}})
	if err != nil {
		return model.DashboardMetrics{}, fmt.Errorf("count expiring: %w", err)
	}
	critical, err := r.coll.CountDocuments(ctx, bson.M{"zlint.errors_present": true})
	if err != nil {
		return model.DashboardMetrics{}, fmt.Errorf("count vulnerable: %w", err)
	}

	active := total - expired
	activePct := float64(active) / float64(total) * 100
	vulnPenalty := math.Min(20, float64(critical)/float64(total)*100)
	score := int(math.Min(100, math.Max(0, activePct-vulnPenalty)))

	status := "CRITICAL"
	switch {
	case score >= 80:
		status = "SECURE"
	case score >= 50:
		status = "AT_RISK"
	}

	return model.DashboardMetrics{
		GlobalHealth: model.GlobalHealth{
			Score:       score,
			MaxScore:    100,
			Status:      status,
			LastUpdated: now.Format("15:04"),
		},
		ActiveCertificates: model.ActiveCount{Count: int(active), Total: int(total)},
		ExpiringSoon: model.ExpiringCount{
			Count:         int(expiring),
			DaysThreshold: model.ExpiringSoonDays,
			ActionNeeded:  expiring > 100,
		},
		CriticalVulnerabilities: model.CriticalCount{Count: int(critical), New: int(critical) / 10},
		ExpiredCertificates:     model.ExpiredCount{Count: int(expired)},
	}, nil
}

// CADistribution returns the issuer leaderboard with an aggregated
// "Others" tail when more issuers exist than the limit shows.
func (r *CertificateRepository) CADistribution(ctx context.Context, limit int, global model.FilterOptions) ([]model.CAEntry, error) {
	if limit < 1 {
		limit = 10
	}
	base := buildGlobalFilter(global, r.now().UTC())

	total, err := r.coll.CountDocuments(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("count certificates: %w", err)
	}
	if total == 0 {
		return []model.CAEntry{}, nil
	}

	pipeline := mongoPipeline(base,
		bson.M{"$project": bson.M{
			"issuer_org": bson.M{"$arrayElemAt": bson.A{"$parsed.issuer.organization", 0}},
		}},
		bson.M{"$match": bson.M{"issuer_org": bson.M{"$exists": true, "$ne": nil}}},
		bson.M{"$group": bson.M{"_id": "$issuer_org", "count": bson.M{"$sum": 1}}},
		bson.M{"$sort": bson.M{"count": -1}},
		bson.M{"$limit": limit},
	)

	groups, err := r.aggregateGroups(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate issuers: %w", err)
	}

	maxCount := 1
	if len(groups) > 0 {
		maxCount = groups[0].Count
	}

	entries := make([]model.CAEntry, 0, len(groups)+1)
	topTotal := 0
	for i, g := range groups {
		topTotal += g.Count
		entries = append(entries, model.CAEntry{
			ID:         fmt.Sprintf("ca-%d", i),
			Name:       fmt.Sprintf("%v", g.ID),
			Count:      g.Count,
			MaxCount:   maxCount,
			Percentage: percentage(g.Count, int(total)),
			Color:      caColors[i%len(caColors)],
		})
	}
	if others := int(total) - topTotal; others > 0 {
		entries = append(entries, model.CAEntry{
			ID:         "ca-others",
			Name:       "Others",
			Count:      others,
			MaxCount:   maxCount,
			Percentage: percentage(others, int(total)),
			Color:      "#6b7280",
			IsOthers:   true,
		})
	}
	return entries, nil
}

// EncryptionStrength returns the key algorithm and length distribution.
func (r *CertificateRepository) EncryptionStrength(ctx context.Context, global model.FilterOptions) ([]model.EncryptionEntry, error) {
	base := buildGlobalFilter(global, r.now().UTC())

	total, err := r.coll.CountDocuments(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("count certificates: %w", err)
	}
	if total == 0 {
		return []model.EncryptionEntry{}, nil
	}

	pipeline := mongoPipeline(base,
		bson.M{"$project": bson.M{
			"algo":       "$parsed.subject_key_info.key_algorithm.name",
			"rsa_length": "$parsed.subject_key_info.rsa_public_key.length",
			"ec_length":  "$parsed.subject_key_info.ecdsa_public_key.length",
		}},
		bson.M{"$addFields": bson.M{
			"key_length": bson.M{"$ifNull": bson.A{"$rsa_length", "$ec_length"}},
		}},
		bson.M{"$group": bson.M{
			"_id":   bson.M{"algo": "$algo", "length": "$key_length"},
			"count": bson.M{"$sum": 1},
		}},
		bson.M{"$sort": bson.M{"count": -1}},
		bson.M{"$limit": 10},
	)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate encryption: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID struct {
			Algo   string `bson:"algo"`
			Length int    `bson:"length"`
		} `bson:"_id"`
		Count int `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode encryption groups: %w", err)
	}

	entries := make([]model.EncryptionEntry, 0, len(rows))
	for i, row := range rows {
		algo := row.ID.Algo
		if algo == "" {
			algo = "Unknown"
		}
		name := algo
		if row.ID.Length > 0 && (algo == "RSA" || algo == "ECDSA" || algo == "EC") {
			name = fmt.Sprintf("%s %d", algo, row.ID.Length)
		}
		label, ok := encryptionLabels[algo]
		if !ok {
			label = "Standard"
		}
		color, ok := encryptionColors[algo]
		if !ok {
			color = "#6b7280"
		}
		entries = append(entries, model.EncryptionEntry{
			ID:         fmt.Sprintf("enc-%d", i),
			Name:       name,
			Type:       label,
			Count:      row.Count,
			Percentage: percentage(row.Count, int(total)),
			Color:      color,
		})
	}
	return entries, nil
}

// ValidityTrends counts expirations per calendar month in a window around
// the current month.
func (r *CertificateRepository) ValidityTrends(ctx context.Context, monthsBefore, monthsAfter int) ([]model.TrendPoint, error) {
	now := r.now().UTC()
	trends := make([]model.TrendPoint, 0, monthsBefore+monthsAfter+1)

	for i := -monthsBefore; i <= monthsAfter; i++ {
		target := now.AddDate(0, i, 0)
		start, end := monthWindow(target.Year(), target.Month())

		count, err := r.coll.CountDocuments(ctx, bson.M{
			"parsed.validity.end": bson.M{"$gte": start, "$lte": end},
		})
		if err != nil {
			return nil, fmt.Errorf("count expirations for %s: %w", start, err)
		}

		trends = append(trends, model.TrendPoint{
			Month:       target.Format("Jan 2006"),
			Expirations: int(count),
			Year:        target.Year(),
			MonthNum:    int(target.Month()),
			IsCurrent:   i == 0,
			Granularity: "monthly",
		})
	}
	return trends, nil
}

// GeographicDistribution groups certificates by the country derived from
// the domain TLD. The TLD extraction runs inside the pipeline; the small
// TLD-to-country fold happens here.
func (r *CertificateRepository) GeographicDistribution(ctx context.Context, limit int, global model.FilterOptions) ([]model.GeoEntry, error) {
	if limit < 1 {
		limit = 10
	}
	base := buildGlobalFilter(global, r.now().UTC())

	total, err := r.coll.CountDocuments(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("count certificates: %w", err)
	}
	if total == 0 {
		return []model.GeoEntry{}, nil
	}

	pipeline := mongoPipeline(base,
		bson.M{"$match": bson.M{"domain": bson.M{"$exists": true, "$nin": bson.A{nil, ""}}}},
		bson.M{"$project": bson.M{"domain_parts": bson.M{"$split": bson.A{"$domain", "."}}}},
		bson.M{"$project": bson.M{"tld": bson.M{"$arrayElemAt": bson.A{"$domain_parts", -1}}}},
		bson.M{"$group": bson.M{"_id": "$tld", "count": bson.M{"$sum": 1}}},
		bson.M{"$sort": bson.M{"count": -1}},
	)

	groups, err := r.aggregateGroups(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate TLDs: %w", err)
	}

	counts := make(map[string]int)
	for _, g := range groups {
		name := country.ForTLD(fmt.Sprintf("%v", g.ID))
		if name != "Unknown" {
			counts[name] += g.Count
		}
	}

	type kv struct {
		country string
		count   int
	}
	sorted := make([]kv, 0, len(counts))
	for c, n := range counts {
		sorted = append(sorted, kv{c, n})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].country < sorted[j].country
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	maxCount := 1
	if len(sorted) > 0 {
		maxCount = sorted[0].count
	}

	entries := make([]model.GeoEntry, len(sorted))
	for i, item := range sorted {
		entries[i] = model.GeoEntry{
			ID:         fmt.Sprintf("geo-%d", i),
			Country:    item.country,
			Count:      item.count,
			MaxCount:   maxCount,
			Percentage: percentage(item.count, int(total)),
			Color:      geoColors[i%len(geoColors)],
		}
	}
	return entries, nil
}

// UniqueFilters gathers the dropdown values for the filter bar.
func (r *CertificateRepository) UniqueFilters(ctx context.Context) (model.UniqueFilters, error) {
	issuerPipeline := bson.A{
		bson.M{"$unwind": "$parsed.issuer.organization"},
		bson.M{"$group": bson.M{"_id": "$parsed.issuer.organization"}},
		bson.M{"$sort": bson.M{"_id": 1}},
		bson.M{"$limit": 50},
	}
	issuerGroups, err := r.aggregateGroups(ctx, issuerPipeline)
	if err != nil {
		return model.UniqueFilters{}, fmt.Errorf("aggregate issuers: %w", err)
	}
	issuers := make([]string, len(issuerGroups))
	for i, g := range issuerGroups {
		issuers[i] = fmt.Sprintf("%v", g.ID)
	}

	tldPipeline := bson.A{
		bson.M{"$match": bson.M{"domain": bson.M{"$exists": true, "$nin": bson.A{nil, ""}}}},
		bson.M{"$project": bson.M{"domain_parts": bson.M{"$split": bson.A{"$domain", "."}}}},
		bson.M{"$project": bson.M{"tld": bson.M{"$arrayElemAt": bson.A{"$domain_parts", -1}}}},
		bson.M{"$group": bson.M{"_id": "$tld"}},
	}
	tldGroups, err := r.aggregateGroups(ctx, tldPipeline)
	if err != nil {
		return model.UniqueFilters{}, fmt.Errorf("aggregate TLDs: %w", err)
	}
	seen := make(map[string]bool)
	var countries []string
	for _, g := range tldGroups {
		name := country.ForTLD(fmt.Sprintf("%v", g.ID))
		if name != "Unknown" && !seen[name] {
			seen[name] = true
			countries = append(countries, name)
		}
	}
	sort.Strings(countries)

	return model.UniqueFilters{
		Issuers:          issuers,
		Countries:        countries,
		Statuses:         []string{"VALID", "EXPIRED", "EXPIRING_SOON", "WEAK"},
		Grades:           []string{"A+", "A", "A-", "B+", "B", "C", "D", "F"},
		ValidationLevels: []string{"DV", "OV", "EV"},
	}, nil
}

// Notifications derives the alert feed from a single faceted query.
func (r *CertificateRepository) Notifications(ctx context.Context) (model.NotificationList, error) {
	now := r.now().UTC()
	nowISO := now.Format(isoFormat)
	plus2 := now.AddDate(0, 0, 2).Format(isoFormat)
	plus7 := now.AddDate(0, 0, 7).Format(isoFormat)
	yesterday := now.AddDate(0, 0, -1).Format(isoFormat)

	countFacet := func(match bson.M) bson.A {
		return bson.A{bson.M{"$match": match}, bson.M{"$count": "count"}}
	}
	pipeline := bson.A{bson.M{"$facet": bson.M{
		"expiring_2_days": countFacet(bson.M{"parsed.validity.end": bson.M{"$gte": nowISO, "$lte": plus2}}),
		"expiring_7_days": countFacet(bson.M{"parsed.validity.end": bson.M{"$gte": nowISO, "$lte": plus7}}),
		"vulnerabilities": countFacet(bson.M{
			"zlint.errors_present": true,
			"parsed.validity.end":  bson.M{"$gt": nowISO},
		}),
		"weak_encryption": countFacet(bson.M{
			"parsed.subject_key_info.key_algorithm.name":    "RSA",
			"parsed.subject_key_info.rsa_public_key.length": bson.M{"$lt": 2048},
		}),
		"newly_expired": countFacet(bson.M{"parsed.validity.end": bson.M{"$gte": yesterday, "$lt": nowISO}}),
	}}}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return model.NotificationList{}, fmt.Errorf("aggregate notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var facets []map[string][]struct {
		Count int `bson:"count"`
	}
	if err := cursor.All(ctx, &facets); err != nil {
		return model.NotificationList{}, fmt.Errorf("decode notification facets: %w", err)
	}
	if len(facets) == 0 {
		return model.NotificationList{Notifications: []model.Notification{}}, nil
	}

	get := func(key string) int {
		if rows := facets[0][key]; len(rows) > 0 {
			return rows[0].Count
		}
		return 0
	}

	timestamp := now.Format(time.RFC3339)
	var notifications []model.Notification
	add := func(n model.Notification) {
		n.Timestamp = timestamp
		notifications = append(notifications, n)
	}

	if n := get("expiring_2_days"); n > 0 {
		add(model.Notification{
			ID:           "expiring-2-days",
			Type:         "error",
			Category:     "expiring",
			Title:        fmt.Sprintf("%d %s expiring in 1-2 days", n, plural(n)),
			Description:  "Immediate attention required",
			Count:        n,
			FilterParams: map[string]string{"status": "EXPIRING_SOON", "days": "2"},
		})
	}
	if remaining := get("expiring_7_days") - get("expiring_2_days"); remaining > 0 {
		add(model.Notification{
			ID:           "expiring-7-days",
			Type:         "warning",
			Category:     "expiring",
			Title:        fmt.Sprintf("%d %s expiring in 3-7 days", remaining, plural(remaining)),
			Description:  "Plan renewal soon",
			Count:        remaining,
			FilterParams: map[string]string{"status": "EXPIRING_SOON", "days": "7"},
		})
	}
	if n := get("vulnerabilities"); n > 0 {
		add(model.Notification{
			ID:           "vulnerabilities",
			Type:         "error",
			Category:     "security",
			Title:        fmt.Sprintf("%d %s with vulnerabilities", n, plural(n)),
			Description:  "Lint checks detected security issues",
			Count:        n,
			FilterParams: map[string]string{"has_vulnerabilities": "true"},
		})
	}
	if n := get("weak_encryption"); n > 0 {
		add(model.Notification{
			ID:           "weak-encryption",
			Type:         "warning",
			Category:     "security",
			Title:        fmt.Sprintf("%d %s with weak encryption", n, plural(n)),
			Description:  "RSA key length below 2048 bits",
			Count:        n,
			FilterParams: map[string]string{"status": "WEAK"},
		})
	}
	if n := get("newly_expired"); n > 0 {
		add(model.Notification{
			ID:           "newly-expired",
			Type:         "error",
			Category:     "expired",
			Title:        fmt.Sprintf("%d %s expired recently", n, plural(n)),
			Description:  "Expired in the last 24 hours",
			Count:        n,
			FilterParams: map[string]string{"status": "EXPIRED"},
		})
	}

	if notifications == nil {
		notifications = []model.Notification{}
	}
	return model.NotificationList{
		Notifications: notifications,
		UnreadCount:   len(notifications),
		TotalCount:    len(notifications),
	}, nil
}

type group struct {
	ID    any `bson:"_id"`
	Count int `bson:"count"`
}

func (r *CertificateRepository) aggregateGroups(ctx context.Context, pipeline bson.A) ([]group, error) {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// mongoPipeline prepends an optional $match stage for the global filter.
func mongoPipeline(base bson.M, stages ...bson.M) bson.A {
	pipeline := bson.A{}
	if len(base) > 0 {
		pipeline = append(pipeline, bson.M{"$match": base})
	}
	for _, stage := range stages {
		pipeline = append(pipeline, stage)
	}
	return pipeline
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

func plural(n int) string {
	if n == 1 {
		return "certificate"
	}
	return "certificates"
}
