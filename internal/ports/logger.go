package ports

import "github.com/penum-labs/penum-ingress/pkg/log"

// Logger is the structured logging port. It aliases the public pkg/log
// interface so one concrete logger satisfies both names.
type Logger = log.Logger

// Field is a structured logging field.
type Field = log.Field

// Field constructors re-exported for internal use.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Uint64   = log.Uint64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Time     = log.Time
	Err      = log.Err
	Any      = log.Any
)
