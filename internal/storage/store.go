package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nixlim/mission-control/internal/alerts"
)

const (
	writeChannelSize = 1000
	batchSize        = 50
	flushInterval    = 100 * time.Millisecond
)

// tsLayout sorts lexically and is understood by SQLite date functions.
const tsLayout = "2006-01-02T15:04:05.000Z"

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

type observationRow struct {
	Severity string
	Message  string
	ID       string
	SeenAt   string
}

type writeOp struct {
	opType       string
	observations []observationRow
	poll         *PollRecord
	report       *ReportRecord
}

// SQLiteJournal is the persistent Journal. Writes are queued to a single
// writer goroutine and committed in batches.
type SQLiteJournal struct {
	db              *sql.DB
	log             zerolog.Logger
	chanSize        int
	retentionDays   int
	writeChan       chan writeOp
	droppedWrites   atomic.Int64
	doneChan        chan struct{}
	closed          atomic.Bool
	cancelMaint     context.CancelFunc
	maintenanceDone chan struct{}
}

type Option func(*SQLiteJournal)

func WithLogger(log zerolog.Logger) Option {
	return func(s *SQLiteJournal) {
		s.log = log.With().Str("component", "journal").Logger()
	}
}

func withChannelSize(n int) Option {
	return func(s *SQLiteJournal) { s.chanSize = n }
}

func NewSQLiteJournal(dbPath string, retentionDays int, opts ...Option) (*SQLiteJournal, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	j := &SQLiteJournal{
		db:              db,
		log:             zerolog.Nop(),
		chanSize:        writeChannelSize,
		retentionDays:   retentionDays,
		doneChan:        make(chan struct{}),
		cancelMaint:     cancel,
		maintenanceDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.writeChan = make(chan writeOp, j.chanSize)

	go j.writerLoop()
	j.startMaintenance(ctx, retentionDays)

	return j, nil
}

// RecordSnapshot upserts one observation per displayed (severity, message).
func (s *SQLiteJournal) RecordSnapshot(items []alerts.Item) {
	if len(items) == 0 {
		return
	}
	rows := make([]observationRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, observationRow{
			Severity: string(it.Severity),
			Message:  it.Message,
			ID:       it.ID,
			SeenAt:   formatTS(it.Timestamp),
		})
	}
	s.sendWrite(writeOp{opType: "observations", observations: rows})
}

func (s *SQLiteJournal) RecordPoll(p PollRecord) {
	s.sendWrite(writeOp{opType: "poll", poll: &p})
}

func (s *SQLiteJournal) RecordReport(r ReportRecord) {
	s.sendWrite(writeOp{opType: "report", report: &r})
}

func (s *SQLiteJournal) sendWrite(op writeOp) {
	if s.closed.Load() {
		return
	}
	defer func() { _ = recover() }()
	select {
	case s.writeChan <- op:
	default:
		s.droppedWrites.Add(1)
		s.log.Warn().Str("type", op.opType).Msg("journal write channel full, dropped write")
	}
}

func (s *SQLiteJournal) DroppedWrites() int64 {
	return s.droppedWrites.Load()
}

// Close stops maintenance, drains queued writes, rolls up today's polls and
// closes the database. Further writes are discarded.
func (s *SQLiteJournal) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.cancelMaint()
	select {
	case <-s.maintenanceDone:
	case <-time.After(30 * time.Second):
		s.log.Warn().Msg("maintenance goroutine did not stop within 30s")
	}

	close(s.writeChan)

	select {
	case <-s.doneChan:
	case <-time.After(10 * time.Second):
		s.log.Error().Msg("failed to drain journal writes within 10s, data may be lost")
	}

	if err := s.runDailyAggregation(time.Now()); err != nil {
		s.log.Error().Err(err).Msg("final poll aggregation failed")
	}

	return s.db.Close()
}

func (s *SQLiteJournal) writerLoop() {
	defer close(s.doneChan)

	batch := make([]writeOp, 0, batchSize)
	flushTimer := time.NewTimer(flushInterval)
	defer flushTimer.Stop()

	for {
		select {
		case op, ok := <-s.writeChan:
			if !ok {
				if len(batch) > 0 {
					s.flushBatch(batch)
				}
				return
			}

			batch = append(batch, op)

			if len(batch) >= batchSize {
				s.flushBatch(batch)
				batch = batch[:0]
				flushTimer.Reset(flushInterval)
			}

		case <-flushTimer.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
			flushTimer.Reset(flushInterval)
		}
	}
}

func (s *SQLiteJournal) flushBatch(batch []writeOp) {
	tx, err := s.db.Begin()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to begin transaction")
		return
	}
	defer func() { _ = tx.Rollback() }()

	for _, op := range batch {
		if err := s.executeOp(tx, op); err != nil {
			s.log.Error().Err(err).Str("type", op.opType).Msg("failed to execute journal write")
		}
	}

	if err := tx.Commit(); err != nil {
		s.log.Error().Err(err).Msg("failed to commit transaction")
	}
}

func (s *SQLiteJournal) executeOp(tx *sql.Tx, op writeOp) error {
	switch op.opType {
	case "observations":
		return writeObservations(tx, op.observations)
	case "poll":
		return writePoll(tx, op.poll)
	case "report":
		return writeReport(tx, op.report)
	default:
		return fmt.Errorf("unknown op type: %s", op.opType)
	}
}
