package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"horizon-finance/biz/model"
)

// 阈值与权重即业务规则，修改前需确认
const (
	highVolatilityPct   = 15.0
	mediumVolatilityPct = 5.0

	highConcentrationPct     = 60.0
	moderateConcentrationPct = 40.0
	topTwoConcentrationPct   = 80.0
	volatileExposurePct      = 50.0
	takeProfitPct            = 50.0
	significantLossPct       = -30.0
)

type SummaryProvider interface {
	Summarize(ctx context.Context, externalID string) (*model.PortfolioSummary, error)
}

type AdvisorService struct {
	summaries SummaryProvider
	now       func() time.Time
}

func NewAdvisorService(summaries SummaryProvider) *AdvisorService {
	return &AdvisorService{summaries: summaries, now: time.Now}
}

func (s *AdvisorService) Report(ctx context.Context, externalID string) (*model.AdvisorReport, error) {
	summary, err := s.summaries.Summarize(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return GenerateAdvisorReport(summary, s.now()), nil
}

func ClassifyVolatility(change24h float64) model.RiskLevel {
	abs := math.Abs(change24h)
	switch {
	case abs >= highVolatilityPct:
		return model.RiskHigh
	case abs >= mediumVolatilityPct:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func DiversificationScore(positions []model.PositionValuation) int {
	n := len(positions)
	if n == 0 {
		return 0
	}
	score := 10.0
	switch {
	case n >= 7:
		score = 40
	case n >= 5:
		score = 30
	case n >= 3:
		score = 20
	}

	ideal := 100 / float64(n)
	deviation := 0.0
	for _, p := range positions {
		deviation += math.Abs(p.Allocation.InexactFloat64() - ideal)
	}
	avgDeviation := deviation / float64(n)
	score += math.Max(0, 60-avgDeviation*1.5)

	return int(math.Max(0, math.Min(100, math.Round(score))))
}

func RiskScore(risks []model.AssetRisk) int {
	weighted := 0.0
	for _, r := range risks {
		weight := 20.0
		switch r.RiskLevel {
		case model.RiskHigh:
			weight = 90
		case model.RiskMedium:
			weight = 50
		}
		weighted += weight * (r.Allocation / 100)
	}
	return int(math.Round(weighted))
}

func PerformanceScore(totalProfitLossPct float64) int {
	switch {
	case totalProfitLossPct >= 50:
		return 100
	case totalProfitLossPct >= 25:
		return 85
	case totalProfitLossPct >= 10:
		return 70
	case totalProfitLossPct >= 0:
		return 55
	case totalProfitLossPct >= -10:
		return 40
	case totalProfitLossPct >= -25:
		return 25
	default:
		return 10
	}
}

func HealthScore(diversification, risk, performance int) int {
	return int(math.Round(float64(diversification)*0.3 + float64(100-risk)*0.3 + float64(performance)*0.4))
}

type reportBuilder struct {
	report *model.AdvisorReport
}

func (b *reportBuilder) alert(severity model.AlertSeverity, icon, title, format string, args ...interface{}) {
	b.report.Alerts = append(b.report.Alerts, model.AdvisorAlert{
		ID:       fmt.Sprintf("alert-%d", len(b.report.Alerts)+1),
		Severity: severity,
		Title:    title,
		Message:  fmt.Sprintf(format, args...),
		Icon:     icon,
	})
}

func (b *reportBuilder) recommend(kind model.RecommendationType, title, format string, args ...interface{}) {
	b.report.Recommendations = append(b.report.Recommendations, model.AdvisorRecommendation{
		ID:          fmt.Sprintf("rec-%d", len(b.report.Recommendations)+1),
		Title:       title,
		Description: fmt.Sprintf(format, args...),
		Type:        kind,
	})
}

// GenerateAdvisorReport 根据组合估值生成评分、提醒和建议。
// 依赖 summary.Positions 已按占比降序排列
func GenerateAdvisorReport(summary *model.PortfolioSummary, now time.Time) *model.AdvisorReport {
	b := &reportBuilder{report: &model.AdvisorReport{
		Badges:          []model.Badge{},
		Alerts:          []model.AdvisorAlert{},
		Recommendations: []model.AdvisorRecommendation{},
		AssetRisks:      []model.AssetRisk{},
		GeneratedAt:     now,
	}}
	positions := summary.Positions
	if len(positions) == 0 {
		b.alert(model.SeverityInfo, "info", "Empty portfolio",
			"You do not hold any assets yet. Deposit funds and buy your first crypto to get started.")
		b.recommend(model.RecommendGeneral, "Start investing",
			"Deposit funds into your account and buy your first cryptocurrency. Large-cap assets such as BTC or ETH are a good place to start.")
		return b.report
	}

	for _, p := range positions {
		change := p.PriceChange24h.InexactFloat64()
		b.report.AssetRisks = append(b.report.AssetRisks, model.AssetRisk{
			Symbol:        p.Symbol,
			Name:          p.Name,
			Volatility24h: math.Abs(change),
			RiskLevel:     ClassifyVolatility(change),
			Allocation:    p.Allocation.InexactFloat64(),
		})
	}

	top := positions[0]
	topAlloc := top.Allocation.InexactFloat64()
	if topAlloc > highConcentrationPct {
		b.alert(model.SeverityDanger, "alert-triangle", "High concentration",
			"%.1f%% of your portfolio is in %s. Keeping a single asset under 40%% is recommended.", topAlloc, top.Symbol)
		b.recommend(model.RecommendDiversification, "Reduce your exposure to "+top.Symbol,
			"Consider selling part of your %s position and investing in other assets to lower your risk.", top.Symbol)
	} else if topAlloc > moderateConcentrationPct {
		b.alert(model.SeverityWarning, "alert-circle", "Moderate concentration",
			"%s makes up %.1f%% of your portfolio. Consider diversifying a bit more.", top.Symbol, topAlloc)
	}

	if len(positions) >= 2 {
		topTwo := positions[0].Allocation.Add(positions[1].Allocation).InexactFloat64()
		if topTwo > topTwoConcentrationPct {
			b.alert(model.SeverityWarning, "pie-chart", "Poorly diversified portfolio",
				"Your top 2 assets (%s and %s) make up %.1f%% of the total.", positions[0].Symbol, positions[1].Symbol, topTwo)
		}
	}

	if len(positions) < 3 {
		b.recommend(model.RecommendDiversification, "Add more assets",
			"Holding at least 3-5 different cryptocurrencies can significantly reduce your portfolio risk.")
	}

	var volatile []string
	volatileAlloc := 0.0
	for _, r := range b.report.AssetRisks {
		if r.RiskLevel == model.RiskHigh {
			volatile = append(volatile, r.Symbol)
			volatileAlloc += r.Allocation
		}
	}
	if len(volatile) > 0 {
		severity := model.SeverityWarning
		if volatileAlloc > volatileExposurePct {
			severity = model.SeverityDanger
		}
		verb := "shows"
		if len(volatile) > 1 {
			verb = "show"
		}
		b.alert(severity, "trending-up", "High volatility assets",
			"%s %s high volatility (>15%% in 24h). They make up %.1f%% of your portfolio.",
			strings.Join(volatile, ", "), verb, volatileAlloc)
		if volatileAlloc > volatileExposurePct {
			b.recommend(model.RecommendRisk, "Reduce exposure to volatile assets",
				"More than half of your portfolio is in highly volatile assets. Consider moving part of it to more stable assets.")
		}
	}

	for _, p := range positions {
		pct := p.ProfitLossPercentage.InexactFloat64()
		if pct > takeProfitPct {
			b.recommend(model.RecommendPerformance, "Consider taking profits on "+p.Symbol,
				"Your %s position is up +%.1f%%. You could sell part of it to lock in gains.", p.Symbol, pct)
		} else if pct < significantLossPct {
			b.alert(model.SeverityWarning, "trending-down", "Significant loss on "+p.Symbol,
				"Your %s position is down %.1f%%. Decide whether to hold or cut the position.", p.Symbol, pct)
		}
	}

	totalPct := summary.TotalProfitLossPercentage.InexactFloat64()
	if totalPct > 0 {
		b.alert(model.SeverityInfo, "check-circle", "Portfolio in profit",
			"Your portfolio is up +%.2f%%. Good job!", totalPct)
	}

	r := b.report
	r.DiversificationScore = DiversificationScore(positions)
	r.RiskScore = RiskScore(r.AssetRisks)
	r.PerformanceScore = PerformanceScore(totalPct)
	r.HealthScore = HealthScore(r.DiversificationScore, r.RiskScore, r.PerformanceScore)

	if r.DiversificationScore >= 60 {
		r.Badges = append(r.Badges, model.BadgeDiversified)
	} else {
		r.Badges = append(r.Badges, model.BadgeConcentrated)
	}
	switch {
	case r.RiskScore >= 70:
		r.Badges = append(r.Badges, model.BadgeAggressive)
	case r.RiskScore <= 30:
		r.Badges = append(r.Badges, model.BadgeConservative)
	default:
		r.Badges = append(r.Badges, model.BadgeBalanced)
	}
	return r
}
