package usecase

import (
	"context"
	"errors"
	"time"

	"intervu/internal/domain"
)

// BuildFeedbackInput flattens the turn log into the scoring payload: one
// student row per turn, one persona row when a reply was committed.
// Timestamps are seconds since the interview started.
func BuildFeedbackInput(personaID string, turns []domain.Turn, startedAt time.Time) domain.FeedbackInput {
	rows := make([]domain.FeedbackTurn, 0, len(turns)*2)
	for i, turn := range turns {
		number := turn.TurnNumber
		if number <= 0 {
			number = i + 1
		}
		timestamp := turn.CreatedAt.Sub(startedAt).Seconds()
		if timestamp < 0 {
			timestamp = 0
		}
		rows = append(rows, domain.FeedbackTurn{
			Speaker:    domain.SpeakerStudent,
			Text:       turn.StudentText,
			TurnNumber: number,
			Timestamp:  timestamp,
		})
		if turn.PersonaText != "" {
			rows = append(rows, domain.FeedbackTurn{
				Speaker:    domain.SpeakerPersona,
				Text:       turn.PersonaText,
				TurnNumber: number,
				Timestamp:  timestamp,
			})
		}
	}
	return domain.FeedbackInput{PersonaID: personaID, InterviewTurns: rows}
}

// Report scores the interview so far.
func (c *InterviewController) Report(ctx context.Context) (domain.FeedbackReport, error) {
	turns := c.turns.Snapshot()
	if len(turns) == 0 {
		return domain.FeedbackReport{}, errors.New("nothing to score: no completed turns")
	}

	c.mu.Lock()
	personaID := c.personaID
	startedAt := c.startedAt
	c.mu.Unlock()

	report, err := c.svc.ScoreInterview(ctx, BuildFeedbackInput(personaID, turns, startedAt))
	if err != nil {
		c.events.Notice(domain.NoticeKindError, domain.ErrorCodeReport, err.Error())
		return domain.FeedbackReport{}, err
	}
	return report, nil
}

// Export renders a scored report in the requested format and places the
// result on the clipboard so the student can paste it elsewhere.
func (c *InterviewController) Export(ctx context.Context, format string, report domain.FeedbackReport) (domain.ExportedReport, error) {
	exported, err := c.svc.ExportReport(ctx, format, report)
	if err != nil {
		c.events.Notice(domain.NoticeKindError, domain.ErrorCodeReport, err.Error())
		return domain.ExportedReport{}, err
	}
	if c.clipboard != nil {
		_ = c.clipboard.SetText(ctx, exported.Content)
	}
	return exported, nil
}
