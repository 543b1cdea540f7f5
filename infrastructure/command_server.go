package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"coinflip/database"
	"coinflip/infrastructure/observability"
	"coinflip/models"
	"coinflip/service"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Command subjects served over NATS request/reply
const (
	CommandSubjectPrefix = "coinflip.cmd."

	SubjectHouseInitialize = CommandSubjectPrefix + "house.initialize"
	SubjectHouseDeposit    = CommandSubjectPrefix + "house.deposit"
	SubjectHouseWithdraw   = CommandSubjectPrefix + "house.withdraw"
	SubjectHouseGet        = CommandSubjectPrefix + "house.get"
	SubjectBetPlace        = CommandSubjectPrefix + "bet.place"
	SubjectBetSettle       = CommandSubjectPrefix + "bet.settle"
	SubjectBetGet          = CommandSubjectPrefix + "bet.get"
	SubjectBetList         = CommandSubjectPrefix + "bet.list"
	SubjectAccountOpen     = CommandSubjectPrefix + "account.open"
	SubjectAccountMint     = CommandSubjectPrefix + "account.mint"
	SubjectAccountGet      = CommandSubjectPrefix + "account.get"

	commandQueue = "coinflip-commands"
)

// Error codes returned in command replies
const (
	CodeOK                       = "ok"
	CodeInvalidRequest           = "invalid_request"
	CodeInvalidBetAmount         = "invalid_bet_amount"
	CodeInsufficientHouseBalance = "insufficient_house_balance"
	CodeDuplicateWager           = "duplicate_wager"
	CodeBetAlreadySettled        = "bet_already_settled"
	CodeUnauthorized             = "unauthorized"
	CodeArithmeticOverflow       = "arithmetic_overflow"
	CodeInsufficientFunds        = "insufficient_funds"
	CodeAlreadyExists            = "already_exists"
	CodeNotFound                 = "not_found"
	CodeInvalidTransfer          = "invalid_transfer"
	CodeConflict                 = "conflict"
	CodeInternal                 = "internal"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{models.ErrInvalidBetAmount, CodeInvalidBetAmount},
	{models.ErrInsufficientHouseBalance, CodeInsufficientHouseBalance},
	{models.ErrDuplicateWager, CodeDuplicateWager},
	{models.ErrBetAlreadySettled, CodeBetAlreadySettled},
	{models.ErrUnauthorized, CodeUnauthorized},
	{models.ErrArithmeticOverflow, CodeArithmeticOverflow},
	{models.ErrAmountOutOfRange, CodeArithmeticOverflow},
	{models.ErrInsufficientFunds, CodeInsufficientFunds},
	{models.ErrAlreadyExists, CodeAlreadyExists},
	{models.ErrAccountExists, CodeAlreadyExists},
	{models.ErrHouseNotInitialized, CodeNotFound},
	{models.ErrBetNotFound, CodeNotFound},
	{models.ErrAccountNotFound, CodeNotFound},
	{models.ErrInvalidTransfer, CodeInvalidTransfer},
}

// ErrorCode maps an operation error to its stable reply code
func ErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}
	var invalid *invalidRequestError
	if errors.As(err, &invalid) {
		return CodeInvalidRequest
	}
	if database.IsRetryable(err) {
		return CodeConflict
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

type invalidRequestError struct {
	cause error
}

func (e *invalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %v", e.cause)
}

func (e *invalidRequestError) Unwrap() error {
	return e.cause
}

// CommandError is the error body of a reply
type CommandError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CommandReply is the body of every reply. Exactly one field is set.
type CommandReply struct {
	Data  any           `json:"data,omitempty"`
	Error *CommandError `json:"error,omitempty"`
}

// Lookup payloads for commands that do not map to a service request
type (
	getBetRequest struct {
		Bet models.Address `json:"bet"`
	}
	listBetsRequest struct {
		User  models.Address `json:"user"`
		Limit int            `json:"limit"`
	}
	openAccountRequest struct {
		Owner models.Address `json:"owner"`
	}
	getAccountRequest struct {
		Account models.Address `json:"account"`
	}
)

// CommandHandler handles one decoded command and returns the reply data.
// caller is the verified signer for signed commands and zero otherwise.
type CommandHandler func(ctx context.Context, caller models.Address, data []byte) (any, error)

type command struct {
	handle CommandHandler
	signed bool
}

// commandSubscriber is the subset of NATSClient the server needs
type commandSubscriber interface {
	QueueSubscribe(subject, queue string, handler nats.MsgHandler) error
}

// CommandServices are the operations the command server exposes
type CommandServices struct {
	Houses     service.HouseService
	Betting    service.BettingService
	Settlement service.SettlementService
	Accounts   service.AccountService
}

// CommandServer exposes the service operations as NATS request/reply commands.
// Commands that spend or create funds for an identity must arrive as a
// SignedCommand from that identity.
type CommandServer struct {
	client   commandSubscriber
	auth     *CommandAuthenticator
	commands map[string]command
	timeout  time.Duration
}

// NewCommandServer creates a command server over the given services
func NewCommandServer(client commandSubscriber, auth *CommandAuthenticator, svc CommandServices) *CommandServer {
	s := &CommandServer{
		client:  client,
		auth:    auth,
		timeout: 10 * time.Second,
	}

	signed := func(h CommandHandler) command { return command{handle: h, signed: true} }
	public := func(h CommandHandler) command { return command{handle: h} }

	s.commands = map[string]command{
		SubjectHouseInitialize: signed(func(ctx context.Context, caller models.Address, data []byte) (any, error) {
			var req service.InitializeHouseRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			if err := bindCaller(&req.Authority, caller); err != nil {
				return nil, err
			}
			house, err := svc.Houses.InitializeHouse(ctx, req)
			if err != nil {
				return nil, err
			}
			return newHouseDTO(house), nil
		}),
		SubjectHouseDeposit: signed(func(ctx context.Context, caller models.Address, data []byte) (any, error) {
			var req service.DepositRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			if err := bindCaller(&req.Authority, caller); err != nil {
				return nil, err
			}
			view, err := svc.Houses.DepositHouse(ctx, req)
			if err != nil {
				return nil, err
			}
			return newHouseViewDTO(view), nil
		}),
		SubjectHouseWithdraw: signed(func(ctx context.Context, caller models.Address, data []byte) (any, error) {
			var req service.WithdrawRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			if err := bindCaller(&req.Authority, caller); err != nil {
				return nil, err
			}
			view, err := svc.Houses.WithdrawHouse(ctx, req)
			if err != nil {
				return nil, err
			}
			return newHouseViewDTO(view), nil
		}),
		SubjectHouseGet: public(func(ctx context.Context, _ models.Address, _ []byte) (any, error) {
			view, err := svc.Houses.GetHouse(ctx)
			if err != nil {
				return nil, err
			}
			return newHouseViewDTO(view), nil
		}),
		SubjectBetPlace: signed(func(ctx context.Context, caller models.Address, data []byte) (any, error) {
			var req service.PlaceBetRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			if err := bindCaller(&req.User, caller); err != nil {
				return nil, err
			}
			bet, err := svc.Betting.PlaceBet(ctx, req)
			if err != nil {
				return nil, err
			}
			return newBetDTO(bet), nil
		}),
		// Settlement stays open to any caller; the services check entity linkage
		SubjectBetSettle: public(func(ctx context.Context, _ models.Address, data []byte) (any, error) {
			var req service.SettleBetRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			result, err := svc.Settlement.SettleBet(ctx, req)
			if err != nil {
				return nil, err
			}
			return newSettlementDTO(result), nil
		}),
		SubjectBetGet: public(func(ctx context.Context, _ models.Address, data []byte) (any, error) {
			var req getBetRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			bet, err := svc.Betting.GetBet(ctx, req.Bet)
			if err != nil {
				return nil, err
			}
			return newBetDTO(bet), nil
		}),
		SubjectBetList: public(func(ctx context.Context, _ models.Address, data []byte) (any, error) {
			var req listBetsRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			bets, err := svc.Betting.ListBetsByUser(ctx, req.User, req.Limit)
			if err != nil {
				return nil, err
			}
			return newBetDTOs(bets), nil
		}),
		SubjectAccountOpen: public(func(ctx context.Context, _ models.Address, data []byte) (any, error) {
			var req openAccountRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			account, err := svc.Accounts.OpenWallet(ctx, req.Owner)
			if err != nil {
				return nil, err
			}
			return newAccountDTO(account), nil
		}),
		SubjectAccountMint: signed(func(ctx context.Context, caller models.Address, data []byte) (any, error) {
			var req service.MintRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			if err := bindCaller(&req.Minter, caller); err != nil {
				return nil, err
			}
			account, err := svc.Accounts.Mint(ctx, req)
			if err != nil {
				return nil, err
			}
			return newAccountDTO(account), nil
		}),
		SubjectAccountGet: public(func(ctx context.Context, _ models.Address, data []byte) (any, error) {
			var req getAccountRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			account, err := svc.Accounts.GetAccount(ctx, req.Account)
			if err != nil {
				return nil, err
			}
			return newAccountDTO(account), nil
		}),
	}

	return s
}

// Subjects returns the served subjects in sorted order
func (s *CommandServer) Subjects() []string {
	subjects := make([]string, 0, len(s.commands))
	for subject := range s.commands {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	return subjects
}

// Start subscribes every command subject in the shared queue group
func (s *CommandServer) Start() error {
	for _, subject := range s.Subjects() {
		err := s.client.QueueSubscribe(subject, commandQueue, func(msg *nats.Msg) {
			reply := s.Handle(context.Background(), subject, msg.Data)
			if err := msg.Respond(reply); err != nil {
				log.WithFields(log.Fields{
					"subject": subject,
					"error":   err,
				}).Error("Failed to respond to command")
			}
		})
		if err != nil {
			return fmt.Errorf("failed to start command server: %w", err)
		}
	}

	log.WithField("commands", len(s.commands)).Info("Command server started")
	return nil
}

// Handle runs one command and returns the encoded reply
func (s *CommandServer) Handle(ctx context.Context, subject string, data []byte) []byte {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.run(ctx, subject, data)

	code := ErrorCode(err)
	observability.GetMetrics().RecordCommand(subject, code, time.Since(start))

	reply := CommandReply{Data: result}
	if err != nil {
		reply = CommandReply{Error: &CommandError{Code: code, Message: err.Error()}}
		switch code {
		case CodeInternal:
			log.WithFields(log.Fields{
				"subject": subject,
				"error":   err,
			}).Error("Command failed")
			reply.Error.Message = "internal error"
		case CodeConflict:
			log.WithFields(log.Fields{
				"subject": subject,
				"error":   err,
			}).Warn("Command aborted by a concurrent transaction")
			reply.Error.Message = "concurrent update, retry the command"
		default:
			log.WithFields(log.Fields{
				"subject": subject,
				"code":    code,
			}).Debug("Command rejected")
		}
	}

	encoded, err := json.Marshal(reply)
	if err != nil {
		log.WithError(err).Error("Failed to marshal command reply")
		encoded, _ = json.Marshal(CommandReply{Error: &CommandError{Code: CodeInternal, Message: "internal error"}})
	}
	return encoded
}

func (s *CommandServer) run(ctx context.Context, subject string, data []byte) (any, error) {
	cmd, ok := s.commands[subject]
	if !ok {
		return nil, &invalidRequestError{cause: fmt.Errorf("unknown command %s", subject)}
	}
	if !cmd.signed {
		return cmd.handle(ctx, models.Address{}, data)
	}

	caller, payload, err := s.auth.Authenticate(ctx, subject, data)
	if err != nil {
		return nil, err
	}
	return cmd.handle(ctx, caller, payload)
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &invalidRequestError{cause: err}
	}
	return nil
}
