package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/clinisim/simulator-api/model"
)

// abandonedSessionAge is how long a session may stay in progress before the
// sweep marks it abandoned
const abandonedSessionAge = 24 * time.Hour

// SweepAbandonedSessions marks sessions that have been in progress for more
// than a day as abandoned. Runs every 30 minutes.
func (m *CronManager) SweepAbandonedSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "sweep_abandoned_sessions"

	swept, err := m.sessions.SweepAbandonedSessions(ctx, abandonedSessionAge)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to sweep sessions: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Marked %d sessions abandoned", swept))
}

// CleanupExpiredTokens removes blacklisted tokens that have passed their
// expiry. Runs hourly.
func (m *CronManager) CleanupExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "cleanup_expired_tokens"

	if err := m.blacklist.CleanupExpiredTokens(ctx); err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup tokens: %w", err))
		return
	}

	m.logJobComplete(jobName, "Expired blacklisted tokens removed")
}

// CleanupOldData removes stale rows: expired password reset tokens, cron job
// logs older than 30 days and user activity older than 90 days. Runs daily.
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"

	now := time.Now()
	removed := int64(0)

	result := m.db.Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&model.PasswordResetToken{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup reset tokens: %w", result.Error))
		return
	}
	removed += result.RowsAffected

	result = m.db.Where("started_at < ?", now.AddDate(0, 0, -30)).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup cron logs: %w", result.Error))
		return
	}
	removed += result.RowsAffected

	result = m.db.Where("created_at < ?", now.AddDate(0, 0, -90)).
		Delete(&model.UserActivity{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup user activities: %w", result.Error))
		return
	}
	removed += result.RowsAffected

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d stale rows", removed))
}

// ReconcileProgress rebuilds progress rollups for users active in the last
// day and re-evaluates their active goals. Corrects drift left by
// completions that crashed mid-transaction. Runs daily.
func (m *CronManager) ReconcileProgress() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	jobName := "reconcile_progress"

	userIDs, err := m.performance.RecentlyActiveUserIDs(ctx, 24)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to list active users: %w", err))
		return
	}

	reconciled := 0
	for _, userID := range userIDs {
		if err := m.performance.ReconcileProgress(ctx, userID); err != nil {
			log.Printf("[CRON] Failed to reconcile progress for user %d: %v", userID, err)
			continue
		}
		if err := m.goals.EvaluateActiveGoals(ctx, userID); err != nil {
			log.Printf("[CRON] Failed to evaluate goals for user %d: %v", userID, err)
			continue
		}
		reconciled++
	}

	m.logJobComplete(jobName, fmt.Sprintf("Reconciled %d of %d active users", reconciled, len(userIDs)))
}
