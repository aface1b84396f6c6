package model

// DashboardMetrics is the /dashboard/global-health/ payload.
type DashboardMetrics struct {
	GlobalHealth            GlobalHealth  `json:"globalHealth"`
	ActiveCertificates      ActiveCount   `json:"activeCertificates"`
	ExpiringSoon            ExpiringCount `json:"expiringSoon"`
	CriticalVulnerabilities CriticalCount `json:"criticalVulnerabilities"`
	ExpiredCertificates     ExpiredCount  `json:"expiredCertificates"`
}

type GlobalHealth struct {
	Score       int    `json:"score"`
	MaxScore    int    `json:"maxScore"`
	Status      string `json:"status"`
	LastUpdated string `json:"lastUpdated"`
}

type ActiveCount struct {
	Count int `json:"count"`
	Total int `json:"total"`
}

type ExpiringCount struct {
	Count         int  `json:"count"`
	DaysThreshold int  `json:"daysThreshold"`
	ActionNeeded  bool `json:"actionNeeded"`
}

type CriticalCount struct {
	Count int `json:"count"`
	New   int `json:"new"`
}

type ExpiredCount struct {
	Count int `json:"count"`
}

// CAEntry is one row of the certificate-authority leaderboard.
type CAEntry struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	MaxCount   int     `json:"maxCount"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
	IsOthers   bool    `json:"isOthers,omitempty"`
}

// EncryptionEntry is one slice of the encryption-strength distribution,
// e.g. "RSA 2048".
type EncryptionEntry struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// TrendPoint is one calendar period of the validity-trends chart.
type TrendPoint struct {
	Month       string `json:"month"`
	Expirations int    `json:"expirations"`
	Year        int    `json:"year"`
	MonthNum    int    `json:"monthNum"`
	IsCurrent   bool   `json:"isCurrent"`
	Granularity string `json:"granularity"`
}

// GeoEntry is one country of the geographic distribution.
type GeoEntry struct {
	ID         string  `json:"id"`
	Country    string  `json:"country"`
	Count      int     `json:"count"`
	MaxCount   int     `json:"maxCount"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// FutureRisk is the /future-risk/ payload derived from current metrics.
type FutureRisk struct {
	ConfidenceLevel  int      `json:"confidenceLevel"`
	RiskLevel        string   `json:"riskLevel"`
	ProjectedThreats []Threat `json:"projectedThreats"`
}

type Threat struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timeframe   string `json:"timeframe"`
	Icon        string `json:"icon"`
}

// Notification is one derived alert entry.
type Notification struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Category     string            `json:"category"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Count        int               `json:"count"`
	FilterParams map[string]string `json:"filterParams"`
	Timestamp    string            `json:"timestamp"`
	Read         bool              `json:"read"`
}

// NotificationList is the /notifications/ payload.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
	TotalCount    int            `json:"totalCount"`
}

// UniqueFilters feeds the dashboard filter dropdowns.
type UniqueFilters struct {
	Issuers          []string `json:"issuers"`
	Countries        []string `json:"countries"`
	Statuses         []string `json:"statuses"`
	Grades           []string `json:"grades"`
	ValidationLevels []string `json:"validationLevels"`
}
