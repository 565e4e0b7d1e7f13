package goal

import (
	"context"
	"math"
)

// Progress is the derived readiness view for one goal.
type Progress struct {
	Percentage        int      `json:"percentage"`
	TimeRemainingDays int      `json:"timeRemaining"`
	OnTrack           bool     `json:"onTrack"`
	Recommendations   []string `json:"recommendations"`
}

// Recommendation rule thresholds. These are fixed product rules, not tunables.
const (
	behindProgressPct  = 25
	behindDaysLeft     = 30
	fewSessionsMin     = 5
	imminentDaysLeft   = 7
	nearCompletePct    = 90
	onTrackProgressPct = 50
	onTrackDaysLeft    = 30
)

const (
	recBehindSchedule = "You're behind schedule. Consider increasing your study frequency."
	recFewSessions    = "Complete more practice sessions to improve your readiness."
	recDeadlineSoon   = "Your target date is approaching. Focus on your weakest areas."
	recNearComplete   = "You're close to your goal. Keep up the great work!"
	recDefault        = "Stay consistent with your study schedule."
)

// Progress computes the completion percentage, remaining days, on-track flag,
// and rule-based recommendations for one goal. Ownership is enforced the same
// way as Get.
func (e *Engine) Progress(ctx context.Context, userID, goalID string) (*Progress, error) {
	g, err := e.Get(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	completed, err := e.recentCompleted(ctx, userID, g.Provider, g.Exam)
	if err != nil {
		return nil, err
	}

	percentage := 0
	if g.TargetScore > 0 {
		percentage = int(math.Round(float64(g.CurrentScore) / float64(g.TargetScore) * 100))
		if percentage > 100 {
			percentage = 100
		}
	}
	daysLeft := 0
	if until := g.TargetDate.Sub(e.now()); until > 0 {
		daysLeft = int(math.Ceil(until.Hours() / 24))
	}

	p := &Progress{
		Percentage:        percentage,
		TimeRemainingDays: daysLeft,
		OnTrack:           percentage >= onTrackProgressPct || daysLeft > onTrackDaysLeft,
	}
	if percentage < behindProgressPct && daysLeft < behindDaysLeft {
		p.Recommendations = append(p.Recommendations, recBehindSchedule)
	}
	if len(completed) < fewSessionsMin {
		p.Recommendations = append(p.Recommendations, recFewSessions)
	}
	if daysLeft < imminentDaysLeft {
		p.Recommendations = append(p.Recommendations, recDeadlineSoon)
	}
	if percentage >= nearCompletePct {
		p.Recommendations = append(p.Recommendations, recNearComplete)
	}
	if len(p.Recommendations) == 0 {
		p.Recommendations = append(p.Recommendations, recDefault)
	}
	return p, nil
}
