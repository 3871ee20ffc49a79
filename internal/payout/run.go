package payout

import (
	"time"

	"github.com/guildtools/raidpay-bot/internal/roster"
)

// Run is the request-scoped state of a single payout invocation. It is built
// inside the command handler, flows through parse, compute, log, generate,
// and deliver, and is discarded when the invocation ends. Nothing shares it
// across invocations.
type Run struct {
	Date        string
	ReportLink  string
	TotalGold   int64
	Roster      roster.Classified
	Result      Result
	ProcessedBy ProcessedBy
	Timestamp   time.Time
}

// ProcessedBy identifies the operator who ran the payout.
type ProcessedBy struct {
	UserID   string
	Username string
}
