package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/penum-labs/penum-ingress/internal/domain"
	"github.com/penum-labs/penum-ingress/internal/ports"
)

const auditFileName = "audit.jsonl"

// Audit event names written to the log.
const (
	eventCommitmentRecorded = "commitment_recorded"
	eventRevealVerified     = "reveal_verified"
	eventRevealRejected     = "reveal_rejected"
)

// auditRecord is one line of the audit log.
type auditRecord struct {
	Time       time.Time `json:"time"`
	Event      string    `json:"event"`
	BatchID    string    `json:"batch_id"`
	Commitment string    `json:"commitment,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// AuditLog implements ports.AuditSink as an append-only JSONL file. Each
// event is one line, flushed per write, so a crash loses at most the line
// being written. Write failures are reported to the logger rather than the
// caller; audit is fire and forget.
type AuditLog struct {
	logger ports.Logger
	clock  func() time.Time
	dir    string
	path   string

	mu   sync.Mutex
	file *os.File
}

// NewAuditLog opens (creating if needed) the audit log in dir.
func NewAuditLog(dir string, logger ports.Logger) (*AuditLog, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, auditFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return &AuditLog{
		logger: logger,
		clock:  time.Now,
		dir:    dir,
		path:   path,
		file:   file,
	}, nil
}

// WithClock overrides the clock for testing.
func (l *AuditLog) WithClock(clock func() time.Time) *AuditLog {
	l.clock = clock
	return l
}

// CommitmentRecorded appends a commitment_recorded line.
func (l *AuditLog) CommitmentRecorded(batchID uuid.UUID, commitment domain.Digest) {
	l.append(auditRecord{
		Event:      eventCommitmentRecorded,
		BatchID:    batchID.String(),
		Commitment: commitment.String(),
	})
}

// RevealVerified appends a reveal_verified line.
func (l *AuditLog) RevealVerified(batchID uuid.UUID) {
	l.append(auditRecord{
		Event:   eventRevealVerified,
		BatchID: batchID.String(),
	})
}

// RevealRejected appends a reveal_rejected line.
func (l *AuditLog) RevealRejected(batchID uuid.UUID, reason error) {
	rec := auditRecord{
		Event:   eventRevealRejected,
		BatchID: batchID.String(),
	}
	if reason != nil {
		rec.Reason = reason.Error()
	}
	l.append(rec)
}

// Close closes the underlying file.
func (l *AuditLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Path returns the full path of the active audit log file.
func (l *AuditLog) Path() string {
	return l.path
}

// Dir returns the directory holding the active and rotated log files.
func (l *AuditLog) Dir() string {
	return l.dir
}

// Rotate renames the active log aside and starts a fresh one. Rotated
// names sort lexicographically by rotation time so retention can prune
// oldest first. Returns the rotated file's path.
func (l *AuditLog) Rotate() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return "", err
	}
	rotated := filepath.Join(l.dir, fmt.Sprintf("audit-%020d.jsonl", l.clock().UnixNano()))
	if err := os.Rename(l.path, rotated); err != nil {
		// Reopen the original so appends keep a destination.
		l.file, _ = os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		return "", err
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return "", err
	}
	l.file = file
	return rotated, nil
}

func (l *AuditLog) append(rec auditRecord) {
	rec.Time = l.clock()

	data, err := json.Marshal(rec)
	if err != nil {
		l.logger.Error("marshal audit record", ports.Err(err))
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	_, err = l.file.Write(data)
	l.mu.Unlock()
	if err != nil {
		l.logger.Error("write audit record",
			ports.String("event", rec.Event),
			ports.Err(err),
		)
	}
}
