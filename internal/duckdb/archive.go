package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/raccoon/internal/ledger"
	"github.com/inodb/raccoon/internal/output"
	"github.com/inodb/raccoon/internal/sanitize"
)

// Phase names the pipeline step a run belongs to.
type Phase string

const (
	PhaseIntegrate Phase = "integrate"
	PhaseSanitize  Phase = "sanitize"
)

// Run is one archived pipeline invocation.
type Run struct {
	ID        string
	Phase     Phase
	CreatedAt time.Time
	Input     FileFingerprint
}

// BeginRun registers a new run for the given input and returns its id.
func (s *Store) BeginRun(phase Phase, inputPath string) (string, error) {
	fp, err := StatFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("stat run input: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(`INSERT INTO runs (run_id, phase, created_at, input, input_size, input_modtime)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(phase), time.Now().UTC(), fp.Path, fp.Size, fp.ModTime)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Runs returns every archived run, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT run_id, phase, created_at, input, input_size, input_modtime
		FROM runs ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var phase string
		if err := rows.Scan(&r.ID, &phase, &r.CreatedAt, &r.Input.Path, &r.Input.Size, &r.Input.ModTime); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Phase = Phase(phase)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// appendRows opens an Appender on table and passes it to fn, flushing on success.
func (s *Store) appendRows(table string, fn func(a *goduckdb.Appender) error) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	if err := fn(appender); err != nil {
		return err
	}
	return appender.Flush()
}

// WriteLedger batch-inserts the ledger entries of a run using the Appender API.
func (s *Store) WriteLedger(runID string, l *ledger.Ledger) error {
	if l.Len() == 0 {
		return nil
	}
	return s.appendRows("ledger_entries", func(a *goduckdb.Appender) error {
		for i, e := range l.Entries() {
			if err := a.AppendRow(
				runID, int64(i), e.Contig, e.Start, e.End,
				e.Inserted, e.Original, int64(e.Coverage),
			); err != nil {
				return fmt.Errorf("append ledger entry: %w", err)
			}
		}
		return nil
	})
}

// WriteDecisions batch-inserts the sanitize decisions of a run.
func (s *Store) WriteDecisions(runID string, decisions []sanitize.Decision) error {
	if len(decisions) == 0 {
		return nil
	}
	return s.appendRows("sanitize_decisions", func(a *goduckdb.Appender) error {
		for i, d := range decisions {
			if err := a.AppendRow(
				runID, int64(i), d.Contig, d.Start, d.End,
				d.Inserted, d.Original, int64(d.Recorded), int64(d.New), d.Reverted,
			); err != nil {
				return fmt.Errorf("append decision: %w", err)
			}
		}
		return nil
	})
}

// WriteCounters stores the end-of-run counters.
func (s *Store) WriteCounters(runID string, counters []output.Counter) error {
	if len(counters) == 0 {
		return nil
	}
	return s.appendRows("run_counters", func(a *goduckdb.Appender) error {
		for i, c := range counters {
			if err := a.AppendRow(runID, int64(i), c.Name, int64(c.Value)); err != nil {
				return fmt.Errorf("append counter: %w", err)
			}
		}
		return nil
	})
}

// LedgerEntries returns the archived ledger of a run in ledger order.
func (s *Store) LedgerEntries(runID string) (*ledger.Ledger, error) {
	rows, err := s.db.Query(`SELECT contig, ins_start, ins_end, inserted, original, coverage
		FROM ledger_entries WHERE run_id=? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	l := ledger.New()
	for rows.Next() {
		var e ledger.Entry
		var cov int64
		if err := rows.Scan(&e.Contig, &e.Start, &e.End, &e.Inserted, &e.Original, &cov); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Coverage = int(cov)
		if err := l.Append(e); err != nil {
			return nil, fmt.Errorf("rebuild ledger: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return l, nil
}

// RevertedEntries returns the decisions of a sanitize run that reverted an edit.
func (s *Store) RevertedEntries(runID string) ([]sanitize.Decision, error) {
	rows, err := s.db.Query(`SELECT contig, ins_start, ins_end, inserted, original,
		recorded_coverage, new_coverage, reverted
		FROM sanitize_decisions WHERE run_id=? AND reverted ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []sanitize.Decision
	for rows.Next() {
		var d sanitize.Decision
		var recorded, current int64
		if err := rows.Scan(&d.Contig, &d.Start, &d.End, &d.Inserted, &d.Original,
			&recorded, &current, &d.Reverted); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Recorded, d.New = int(recorded), int(current)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}

// Counters returns the counters of a run in the order they were written.
func (s *Store) Counters(runID string) ([]output.Counter, error) {
	rows, err := s.db.Query(`SELECT name, value FROM run_counters WHERE run_id=? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query counters: %w", err)
	}
	defer rows.Close()

	var out []output.Counter
	for rows.Next() {
		var c output.Counter
		var v int64
		if err := rows.Scan(&c.Name, &v); err != nil {
			return nil, fmt.Errorf("scan counter: %w", err)
		}
		c.Value = int(v)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counters: %w", err)
	}
	return out, nil
}
