// internal/store/archive.go
//
// Registration archive (MySQL, optional).
//
// Context
// -------
// The spreadsheet script is the system of record.  The archive keeps a
// local copy of every relayed registration together with the relay
// outcome, so operators can reconcile the sheet after an outage:
//
//	registration (id CHAR(36) PK, full_name, student_code, level, phone,
//	              question, ok, error, client_ip, browser, created_at)
//
// Archive.Observe has the signup.Observer signature and is registered on
// every form controller when `database.dsn` is set.  Write failures are
// logged and counted, never shown to the user.
//
// Notes
// -----
// • Ids are random UUIDs so rows can be merged across instances.
// • Oxford commas, two spaces after periods.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/eventsignup/internal/form"
	"github.com/yanizio/eventsignup/internal/metrics"
	"github.com/yanizio/eventsignup/internal/relay"
	"github.com/yanizio/eventsignup/internal/requestinfo"
)

// Schema creates the archive table when missing.
const Schema = `CREATE TABLE IF NOT EXISTS registration (
    id           CHAR(36)      NOT NULL PRIMARY KEY,
    full_name    VARCHAR(255)  NOT NULL,
    student_code CHAR(7)       NOT NULL,
    level        VARCHAR(64)   NOT NULL,
    phone        CHAR(11)      NOT NULL,
    question     TEXT          NOT NULL,
    ok           BOOLEAN       NOT NULL,
    error        VARCHAR(512)  NOT NULL DEFAULT '',
    client_ip    VARCHAR(45)   NOT NULL DEFAULT '',
    browser      VARCHAR(128)  NOT NULL DEFAULT '',
    created_at   DATETIME      NOT NULL,
    KEY idx_registration_code (student_code)
) CHARACTER SET utf8mb4`

// errorWidth matches the error column.  Longer relay errors are cut.
const errorWidth = 512

const insertRegistration = `INSERT INTO registration
    (id, full_name, student_code, level, phone, question, ok, error, client_ip, browser, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Record is one archived registration.
type Record struct {
	ID          string    `db:"id"`
	FullName    string    `db:"full_name"`
	StudentCode string    `db:"student_code"`
	Level       string    `db:"level"`
	Phone       string    `db:"phone"`
	Question    string    `db:"question"`
	OK          bool      `db:"ok"`
	Error       string    `db:"error"`
	ClientIP    string    `db:"client_ip"`
	Browser     string    `db:"browser"`
	CreatedAt   time.Time `db:"created_at"`
}

// Archive writes Records to MySQL.
type Archive struct {
	db    *sqlx.DB
	log   *zap.SugaredLogger
	newID func() string
	now   func() time.Time
}

// New wraps an open database.
func New(db *sqlx.DB, log *zap.SugaredLogger) *Archive {
	if log == nil {
		log = zap.S()
	}
	return &Archive{
		db:    db,
		log:   log,
		newID: func() string { return uuid.NewString() },
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// EnsureSchema creates the registration table if needed.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// Save inserts rec, filling ID and CreatedAt when empty.
func (a *Archive) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = a.newID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = a.now()
	}
	_, err := a.db.ExecContext(ctx, insertRegistration,
		rec.ID, rec.FullName, rec.StudentCode, rec.Level, rec.Phone, rec.Question,
		rec.OK, rec.Error, rec.ClientIP, rec.Browser, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: insert registration: %w", err)
	}
	return nil
}

// Count returns the number of archived registrations, accepted or not.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM registration`); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Observe archives one settled submission.  It matches signup.Observer.
func (a *Archive) Observe(ctx context.Context, p form.Payload, res relay.Result) {
	rec := &Record{
		FullName:    p.FullName,
		StudentCode: p.StudentCode,
		Level:       p.Level,
		Phone:       p.Phone,
		Question:    p.Question,
		OK:          res.OK,
		Error:       clip(res.Error, errorWidth),
	}
	if info := requestinfo.FromContext(ctx); info != nil {
		if info.Geo.IP != nil {
			rec.ClientIP = info.Geo.IP.String()
		}
		rec.Browser = info.UA.Summary()
	}

	if err := a.Save(context.WithoutCancel(ctx), rec); err != nil {
		metrics.ArchiveErrorsTotal.Inc()
		a.log.Errorw("archive write failed", "student_code", rec.StudentCode, "err", err)
		return
	}
	a.log.Debugw("registration archived", "id", rec.ID, "ok", rec.OK)
}

// clip cuts s to at most n characters.
func clip(s string, n int) string {
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}
