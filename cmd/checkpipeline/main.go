package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type cronRun struct {
	JobName     string
	Status      string
	StartedAt   time.Time
	CompletedAt sql.NullTime
	Message     sql.NullString
	ErrorMsg    sql.NullString
}

type pendingMeeting struct {
	ID          uint
	Title       string
	ScheduledAt time.Time
	BotID       sql.NullString
	StudentID   sql.NullInt64
}

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Build database URL from individual variables
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER_NAME")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}

	dbURL := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	fmt.Println("========================================")
	fmt.Println("SESSION PIPELINE STATUS CHECK")
	fmt.Println("========================================")

	// Recent cron job runs
	rows, err := db.Query(`
		SELECT job_name, status, started_at, completed_at, message, error_msg
		FROM cron_job_logs
		WHERE deleted_at IS NULL
		ORDER BY started_at DESC
		LIMIT 20`)
	if err != nil {
		log.Fatalf("Failed to fetch cron logs: %v", err)
	}
	defer rows.Close()

	var runs []cronRun
	for rows.Next() {
		var r cronRun
		if err := rows.Scan(&r.JobName, &r.Status, &r.StartedAt, &r.CompletedAt, &r.Message, &r.ErrorMsg); err != nil {
			log.Fatalf("Failed to scan cron log row: %v", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Failed to read cron logs: %v", err)
	}

	if len(runs) == 0 {
		fmt.Println("\n❌ No cron job runs found in database")
	} else {
		fmt.Printf("\n📋 Last %d cron job runs:\n\n", len(runs))
		for _, r := range runs {
			statusIcon := "⏳"
			switch r.Status {
			case "completed":
				statusIcon = "✅"
			case "failed":
				statusIcon = "❌"
			case "running":
				statusIcon = "🔄"
			}

			fmt.Printf("%s %-22s %s", statusIcon, r.JobName, r.StartedAt.Format("2006-01-02 15:04:05"))
			if r.CompletedAt.Valid {
				fmt.Printf("  (%s)", r.CompletedAt.Time.Sub(r.StartedAt).Round(time.Millisecond))
			}
			fmt.Println()
			if r.Message.Valid && r.Message.String != "" {
				fmt.Printf("   %s\n", r.Message.String)
			}
			if r.ErrorMsg.Valid && r.ErrorMsg.String != "" {
				fmt.Printf("   Error: %s\n", r.ErrorMsg.String)
			}
		}
	}

	// Dispatched meetings awaiting capture
	fmt.Println("\n========================================")
	fmt.Println("DISPATCHED MEETINGS AWAITING CAPTURE")
	fmt.Println("========================================")

	pendingRows, err := db.Query(`
		SELECT id, title, scheduled_at, bot_id, student_id
		FROM scheduled_sessions
		WHERE deleted_at IS NULL AND bot_id IS NOT NULL AND done_at IS NULL
		ORDER BY scheduled_at ASC`)
	if err != nil {
		log.Fatalf("Failed to fetch pending meetings: %v", err)
	}
	defer pendingRows.Close()

	var pending []pendingMeeting
	for pendingRows.Next() {
		var p pendingMeeting
		if err := pendingRows.Scan(&p.ID, &p.Title, &p.ScheduledAt, &p.BotID, &p.StudentID); err != nil {
			log.Fatalf("Failed to scan meeting row: %v", err)
		}
		pending = append(pending, p)
	}
	if err := pendingRows.Err(); err != nil {
		log.Fatalf("Failed to read pending meetings: %v", err)
	}

	if len(pending) == 0 {
		fmt.Println("No dispatched meetings waiting for capture")
	} else {
		for _, p := range pending {
			studentStr := "unclaimed"
			if p.StudentID.Valid {
				studentStr = fmt.Sprintf("student %d", p.StudentID.Int64)
			}
			fmt.Printf("🔄 #%d %q at %s (%s, bot %s)\n",
				p.ID, p.Title, p.ScheduledAt.Format("2006-01-02 15:04"), studentStr, p.BotID.String)
		}
	}

	// Pipeline totals
	fmt.Println("\n========================================")
	fmt.Println("PIPELINE TOTALS")
	fmt.Println("========================================")

	printCount(db, "Scheduled sessions", `SELECT COUNT(*) FROM scheduled_sessions WHERE deleted_at IS NULL`)
	printCount(db, "  awaiting dispatch", `SELECT COUNT(*) FROM scheduled_sessions WHERE deleted_at IS NULL AND bot_id IS NULL`)
	printCount(db, "  captured", `SELECT COUNT(*) FROM scheduled_sessions WHERE deleted_at IS NULL AND done_at IS NOT NULL`)
	printCount(db, "Captured sessions", `SELECT COUNT(*) FROM sessions WHERE deleted_at IS NULL`)
	printCount(db, "  unclaimed", `SELECT COUNT(*) FROM sessions WHERE deleted_at IS NULL AND student_id IS NULL`)
	printCount(db, "  summarized", `SELECT COUNT(*) FROM sessions WHERE deleted_at IS NULL AND summary != ''`)

	fmt.Println("\n========================================")
}

func printCount(db *sql.DB, label, query string) {
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		fmt.Printf("%-22s error: %v\n", label+":", err)
		return
	}
	fmt.Printf("%-22s %d\n", label+":", count)
}
