package model

import "time"

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "info"
	SeverityWarning AlertSeverity = "warning"
	SeverityDanger  AlertSeverity = "danger"
)

type Badge string

const (
	BadgeDiversified  Badge = "diversified"
	BadgeConcentrated Badge = "concentrated"
	BadgeConservative Badge = "conservative"
	BadgeAggressive   Badge = "aggressive"
	BadgeBalanced     Badge = "balanced"
)

type RecommendationType string

const (
	RecommendDiversification RecommendationType = "diversification"
	RecommendRisk            RecommendationType = "risk"
	RecommendPerformance     RecommendationType = "performance"
	RecommendGeneral         RecommendationType = "general"
)

type AdvisorAlert struct {
	ID       string        `json:"id"`
	Severity AlertSeverity `json:"severity"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Icon     string        `json:"icon"`
}

type AdvisorRecommendation struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Type        RecommendationType `json:"type"`
}

type AssetRisk struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Volatility24h float64   `json:"volatility_24h"`
	RiskLevel     RiskLevel `json:"risk_level"`
	Allocation    float64   `json:"allocation"`
}

// AdvisorReport 启发式健康评估，分数范围 0-100
type AdvisorReport struct {
	HealthScore          int                     `json:"health_score"`
	DiversificationScore int                     `json:"diversification_score"`
	RiskScore            int                     `json:"risk_score"`
	PerformanceScore     int                     `json:"performance_score"`
	Badges               []Badge                 `json:"badges"`
	Alerts               []AdvisorAlert          `json:"alerts"`
	Recommendations      []AdvisorRecommendation `json:"recommendations"`
	AssetRisks           []AssetRisk             `json:"asset_risks"`
	GeneratedAt          time.Time               `json:"generated_at"`
}
