package feedstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
	"github.com/threatwatch-io/threatwatch/internal/core/ports"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteRepository implements ports.ThreatRepository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (and if necessary initializes) a threat store.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

const threatColumns = `id, cve_id, title, description, threat_type, source_feed,
       cvss_score, cvss_vector, known_exploited, products,
       published_date, last_modified, refs`

// GetByID retrieves a threat by its internal ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, threatID string) (*domain.Threat, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+threatColumns+" FROM threats WHERE id = ?", threatID)

	threat, err := scanThreat(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get threat: %w", err)
	}
	return &threat, nil
}

// GetByCVE retrieves a threat by CVE identifier.
func (r *SQLiteRepository) GetByCVE(ctx context.Context, cveID string) (*domain.Threat, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+threatColumns+" FROM threats WHERE cve_id = ? ORDER BY last_modified DESC LIMIT 1",
		domain.NormalizeCVEID(cveID))

	threat, err := scanThreat(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get threat by CVE: %w", err)
	}
	return &threat, nil
}

// List returns all stored threats ordered by publication date.
func (r *SQLiteRepository) List(ctx context.Context) ([]domain.Threat, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+threatColumns+" FROM threats ORDER BY published_date DESC")
	if err != nil {
		return nil, fmt.Errorf("list query failed: %w", err)
	}
	defer rows.Close()

	var threats []domain.Threat
	for rows.Next() {
		threat, err := scanThreat(rows)
		if err != nil {
			return nil, err
		}
		threats = append(threats, threat)
	}
	return threats, rows.Err()
}

// UpsertThreat inserts or updates a threat record keyed by its ID.
func (r *SQLiteRepository) UpsertThreat(ctx context.Context, threat domain.Threat) error {
	productsJSON, err := json.Marshal(threat.Products)
	if err != nil {
		return fmt.Errorf("failed to marshal products: %w", err)
	}
	refsJSON, err := json.Marshal(threat.References)
	if err != nil {
		return fmt.Errorf("failed to marshal references: %w", err)
	}

	var score sql.NullFloat64
	if threat.CVSSBaseScore != nil {
		score = sql.NullFloat64{Float64: *threat.CVSSBaseScore, Valid: true}
	}

	query := `
		INSERT INTO threats (
			id, cve_id, title, description, threat_type, source_feed,
			cvss_score, cvss_vector, known_exploited, products,
			published_date, last_modified, refs
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cve_id = excluded.cve_id,
			title = excluded.title,
			description = excluded.description,
			threat_type = excluded.threat_type,
			source_feed = excluded.source_feed,
			cvss_score = excluded.cvss_score,
			cvss_vector = excluded.cvss_vector,
			known_exploited = excluded.known_exploited,
			products = excluded.products,
			published_date = excluded.published_date,
			last_modified = excluded.last_modified,
			refs = excluded.refs,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err = r.db.ExecContext(ctx, query,
		threat.ID, threat.CVEID, threat.Title, threat.Description,
		threat.ThreatType, threat.SourceFeed, score, threat.CVSSVector,
		threat.KnownExploited, string(productsJSON),
		threat.PublishedDate.Format(time.RFC3339),
		threat.LastModified.Format(time.RFC3339), string(refsJSON),
	)
	return err
}

// UpdateSyncStatus records the outcome of a feed synchronization run.
func (r *SQLiteRepository) UpdateSyncStatus(ctx context.Context, status ports.FeedSyncStatus) error {
	query := `
		INSERT INTO feed_sync_status (feed_name, last_sync_time, record_count, error_message)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(feed_name) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			record_count = excluded.record_count,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query,
		status.FeedName, status.LastSyncTime.Format(time.RFC3339),
		status.RecordCount, status.ErrorMessage)
	return err
}

// GetSyncStatus returns the last recorded status for a feed, or nil when the
// feed has never synced.
func (r *SQLiteRepository) GetSyncStatus(ctx context.Context, feedName string) (*ports.FeedSyncStatus, error) {
	var status ports.FeedSyncStatus
	var lastSync string

	err := r.db.QueryRowContext(ctx,
		"SELECT feed_name, last_sync_time, record_count, error_message FROM feed_sync_status WHERE feed_name = ?",
		feedName).Scan(&status.FeedName, &lastSync, &status.RecordCount, &status.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}

	status.LastSyncTime, _ = time.Parse(time.RFC3339, lastSync)
	return &status, nil
}

// GetTotalCount returns the total number of stored threats.
func (r *SQLiteRepository) GetTotalCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM threats").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// scanner abstracts *sql.Row and *sql.Rows so a single scan path serves both.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanThreat(row scanner) (domain.Threat, error) {
	var threat domain.Threat
	var score sql.NullFloat64
	var vector sql.NullString
	var knownExploited int
	var productsJSON, refsJSON, publishedDate, lastModified string

	err := row.Scan(
		&threat.ID, &threat.CVEID, &threat.Title, &threat.Description,
		&threat.ThreatType, &threat.SourceFeed, &score, &vector,
		&knownExploited, &productsJSON, &publishedDate, &lastModified, &refsJSON,
	)
	if err != nil {
		return threat, err
	}

	if score.Valid {
		v := score.Float64
		threat.CVSSBaseScore = &v
	}
	threat.CVSSVector = vector.String
	threat.KnownExploited = knownExploited != 0

	threat.PublishedDate, _ = time.Parse(time.RFC3339, publishedDate)
	threat.LastModified, _ = time.Parse(time.RFC3339, lastModified)

	if productsJSON != "" {
		json.Unmarshal([]byte(productsJSON), &threat.Products)
	}
	if refsJSON != "" {
		json.Unmarshal([]byte(refsJSON), &threat.References)
	}

	return threat, nil
}
