package observability

// Metric name prefixes
const (
	MetricPrefix = "coinflip"
)

// Metric names
const (
	// Betting metrics
	BetsPlacedTotal    = MetricPrefix + ".bets.placed_total"
	BetsSettledTotal   = MetricPrefix + ".bets.settled_total"
	WageredAmountTotal = MetricPrefix + ".bets.wagered_amount_total"
	PayoutAmountTotal  = MetricPrefix + ".bets.payout_amount_total"

	// Ledger metrics
	TransfersTotal = MetricPrefix + ".ledger.transfers_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Command metrics
	CommandsTotal   = MetricPrefix + ".commands.total"
	CommandDuration = MetricPrefix + ".commands.duration"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelOutcome   = "outcome"
	LabelGuess     = "guess"
	LabelDelegated = "delegated"
	LabelSubject   = "subject"
	LabelCode      = "code"
)

// Settlement outcomes
const (
	OutcomeUserWon  = "user_won"
	OutcomeHouseWon = "house_won"
)
