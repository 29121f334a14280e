package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/advisorly/api/model"
)

// PollDispatchedBots checks every dispatched bot whose session has not been
// captured yet and runs the completion pipeline for the ones that finished.
// Runs every 2 minutes so recaps land shortly after a meeting ends.
func (m *CronManager) PollDispatchedBots() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "poll_dispatched_bots"

	captured, err := m.scheduler.PollDispatchedBots(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to poll dispatched bots: %w", err))
		return
	}

	if captured == 0 {
		m.logJobComplete(jobName, "No finished meetings to capture")
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Captured %d finished meetings", captured))
}

// SyncCalendars pulls upcoming events from all connected advisor calendars,
// creates scheduled sessions for new meeting links and dispatches bots to them.
// Runs every 15 minutes.
func (m *CronManager) SyncCalendars() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "sync_calendars"

	created, err := m.scheduler.SyncCalendars(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to sync calendars: %w", err))
		return
	}

	if created == 0 {
		m.logJobComplete(jobName, "No new calendar meetings found")
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Created %d sessions from calendar events", created))
}

// CleanupOldData removes old data to keep the database clean
// Runs daily at 2 AM
func (m *CronManager) CleanupOldData() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "cleanup_old_data"

	totalCleaned := 0

	// 1. Clean up expired JWT tokens from blacklist (older than 30 days)
	cutoffTokens := time.Now().Add(-30 * 24 * time.Hour)
	result := m.db.Where("expires_at < ?", cutoffTokens).Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean token blacklist: %v", result.Error)
	} else {
		log.Printf("[CRON] Cleaned %d expired tokens", result.RowsAffected)
		totalCleaned += int(result.RowsAffected)
	}

	// 2. Clean up old cron job logs (keep only last 90 days)
	cutoffLogs := time.Now().Add(-90 * 24 * time.Hour)
	result = m.db.Where("created_at < ?", cutoffLogs).Delete(&model.CronJobLog{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean cron logs: %v", result.Error)
	} else {
		log.Printf("[CRON] Cleaned %d old cron logs", result.RowsAffected)
		totalCleaned += int(result.RowsAffected)
	}

	// 3. Clean up read notifications older than 90 days
	cleaned, err := m.notifications.CleanupOldNotifications(ctx, 90*24*time.Hour)
	if err != nil {
		log.Printf("[CRON] Failed to clean notifications: %v", err)
	} else {
		log.Printf("[CRON] Cleaned %d old notifications", cleaned)
		totalCleaned += int(cleaned)
	}

	// 4. Clean up old admin audit logs (keep only last 180 days)
	cutoffAudit := time.Now().Add(-180 * 24 * time.Hour)
	result = m.db.Where("created_at < ?", cutoffAudit).Delete(&model.AdminAuditLog{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean audit logs: %v", result.Error)
	} else {
		log.Printf("[CRON] Cleaned %d old audit logs", result.RowsAffected)
		totalCleaned += int(result.RowsAffected)
	}

	m.logJobComplete(jobName, fmt.Sprintf("Cleaned up %d total records", totalCleaned))
}
