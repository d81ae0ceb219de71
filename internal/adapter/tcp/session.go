package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"bankline/internal/core/domain"
	"bankline/internal/core/ports"
	"bankline/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Prompts and notices sent to the client. The protocol is positional: the
// client recognizes where it is by the order of exchanges, not by content,
// so these strings are free-form but the sequence around them is not.
const (
	msgTopMenu        = "Please enter one of the following options:\n1. REGISTER\n2. LOGIN\n0. EXIT"
	msgInvalidOption  = "Invalid option. Please try again."
	msgGoBack         = "Enter 1 to go back: "
	msgLogout         = "Logout successful."
	msgPromptName     = "Please enter your name: "
	msgPromptPPS      = "Please enter your PPS number: "
	msgInvalidPPS     = "Invalid PPS number. It must be 9 characters with the first seven digits the last two being letters."
	msgPromptEmail    = "Please enter your e-mail address: "
	msgInvalidEmail   = "Invalid Email Address, must contain '@', '.' and 'com'."
	msgPromptPassword = "Please enter your password: "
	msgPromptAddress  = "Please enter your address: "
	msgPromptBalance  = "Please enter your current balance: "
	msgRegistered     = "Registration successful!"
	msgDuplicateKey   = "User with the same PPS Number or Email already exists."
	msgInvalidLogin   = "Invalid email or password."
	msgExitOrContinue = "Enter -1 to EXIT or any other key to CONTINUE: "
	msgOpsMenu        = "Please enter one of the following options:\n3. Lodge money\n4. Retrieve all registered users listing\n5. Transfer money\n6. View all transactions on your bank account\n7. Update your password\n8. Logout"
	msgPromptLodge    = "Please enter the amount to lodge: "
	msgInvalidAmount  = "Invalid amount. Please enter a valid number."
	msgUserCount      = "Total registered users: "
	msgPromptRcptMail = "Please enter the recipient's email: "
	msgPromptRcptPPS  = "Please enter the recipient's PPS number: "
	msgPromptTransfer = "Please enter the amount to transfer: "
	msgInsufficient   = "Insufficient funds for the transfer."
	msgRcptNotFound   = "Recipient not found."
	msgPromptNewPass  = "Please enter your new password: "
	msgPassUpdated    = "Password updated successfully."
)

// Session reply tokens.
const (
	tokenRegister = "1"
	tokenLogin    = "2"
	tokenExit     = "0"
	tokenRepeat   = "1"
	tokenLoginEnd = "-1"
	tokenLogout   = "8"
)

// errSessionDone signals a clean protocol-driven close (logout or exit), as
// opposed to an I/O failure.
var errSessionDone = errors.New("session done")

// Session drives one connection's protocol state machine. It owns the
// connection's framer and, once authenticated, a single opaque account
// reference. A session never touches account state directly; every effect
// goes through the shared ledger.
type Session struct {
	conn        net.Conn
	framer      *Framer
	ledger      ports.Ledger
	current     ports.AccountRef
	readTimeout time.Duration
	log         zerolog.Logger
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithReadTimeout bounds each wait for a client frame. Zero (the default)
// waits forever, matching the historical behavior.
func WithReadTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.readTimeout = d }
}

// WithMaxFrameBytes caps incoming and outgoing frame sizes.
func WithMaxFrameBytes(n uint32) SessionOption {
	return func(s *Session) { s.framer = NewFramer(s.conn, n) }
}

// NewSession creates a session over an accepted connection.
func NewSession(conn net.Conn, ledger ports.Ledger, log zerolog.Logger, opts ...SessionOption) *Session {
	s := &Session{
		conn:   conn,
		framer: NewFramer(conn, 0),
		ledger: ledger,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the top-level menu loop until the client exits, logs out, or
// the connection fails. The connection is closed on return. Protocol errors
// are fatal to this session only.
func (s *Session) Run(ctx context.Context) error {
	defer s.conn.Close()

	err := s.topLoop(ctx)
	switch {
	case err == nil, errors.Is(err, errSessionDone):
		s.log.Info().Msg("session closed")
		return nil
	default:
		s.log.Warn().Err(err).Msg("session aborted")
		return err
	}
}

func (s *Session) topLoop(ctx context.Context) error {
	for {
		if err := s.send(msgTopMenu); err != nil {
			return err
		}
		choice, err := s.recv(ctx)
		if err != nil {
			return err
		}

		switch choice {
		case tokenRegister:
			if err := s.register(ctx); err != nil {
				return err
			}
		case tokenLogin:
			if err := s.login(ctx); err != nil {
				return err
			}
		case tokenExit:
			// Exit closes without further exchange.
			return errSessionDone
		default:
			if err := s.send(msgInvalidOption); err != nil {
				return err
			}
			continue
		}

		if err := s.send(msgGoBack); err != nil {
			return err
		}
		repeat, err := s.recv(ctx)
		if err != nil {
			return err
		}
		if repeat != tokenRepeat {
			if err := s.send(msgLogout); err != nil {
				return err
			}
			return errSessionDone
		}
	}
}

// register runs the registration sub-protocol: one prompt and one reply per
// field in fixed order. PPS number and email re-prompt until valid with no
// retry limit; the remaining fields are taken as-is.
func (s *Session) register(ctx context.Context) error {
	name, err := s.ask(ctx, msgPromptName)
	if err != nil {
		return err
	}

	var pps string
	for {
		pps, err = s.ask(ctx, msgPromptPPS)
		if err != nil {
			return err
		}
		if ValidPPSNumber(pps) {
			break
		}
		if err := s.send(msgInvalidPPS); err != nil {
			return err
		}
	}

	var email string
	for {
		email, err = s.ask(ctx, msgPromptEmail)
		if err != nil {
			return err
		}
		if ValidEmail(email) {
			break
		}
		if err := s.send(msgInvalidEmail); err != nil {
			return err
		}
	}

	password, err := s.ask(ctx, msgPromptPassword)
	if err != nil {
		return err
	}
	address, err := s.ask(ctx, msgPromptAddress)
	if err != nil {
		return err
	}
	balance, err := s.ask(ctx, msgPromptBalance)
	if err != nil {
		return err
	}

	_, regErr := s.ledger.Register(ctx, ports.RegisterRequest{
		Name:        name,
		PPSNumber:   pps,
		Email:       email,
		Password:    password,
		Address:     address,
		BalanceText: balance,
	})
	// A failed registration ends the attempt; there is no retry loop here.
	switch {
	case regErr == nil:
		return s.send(msgRegistered)
	case errors.Is(regErr, apperror.ErrDuplicateKey()):
		return s.send(msgDuplicateKey)
	case errors.Is(regErr, apperror.ErrInvalidAmount()):
		return s.send(msgInvalidAmount)
	default:
		s.log.Error().Err(regErr).Msg("registration failed")
		return s.send(msgDuplicateKey)
	}
}

// login runs the authentication sub-protocol. On success the session enters
// the operations menu; a logout there ends the whole session. On failure the
// client chooses between exiting the loop and retrying.
func (s *Session) login(ctx context.Context) error {
	for {
		email, err := s.ask(ctx, msgPromptEmail)
		if err != nil {
			return err
		}
		password, err := s.ask(ctx, msgPromptPassword)
		if err != nil {
			return err
		}

		ref, authErr := s.ledger.Authenticate(ctx, email, password)
		if authErr == nil {
			s.current = ref
			if err := s.send("Login successful. Welcome, " + strings.ToUpper(ref.Name())); err != nil {
				return err
			}
			if err := s.operations(ctx); err != nil {
				return err
			}
		} else {
			// Deliberately generic: does not reveal which field was wrong.
			if err := s.send(msgInvalidLogin); err != nil {
				return err
			}
		}

		if err := s.send(msgExitOrContinue); err != nil {
			return err
		}
		token, err := s.recv(ctx)
		if err != nil {
			return err
		}
		if token == tokenLoginEnd {
			return nil
		}
	}
}

// operations runs the authenticated menu. The loop exits only when the
// client sends "8" on a round where the input was recognized as valid; an
// invalid entry never counts as an exit, even an invalid "8"-adjacent one.
func (s *Session) operations(ctx context.Context) error {
	choice := ""
	valid := true
	for choice != tokenLogout || !valid {
		if err := s.send(msgOpsMenu); err != nil {
			return err
		}
		var err error
		choice, err = s.recv(ctx)
		if err != nil {
			return err
		}

		valid = true
		switch choice {
		case "3":
			err = s.lodge(ctx)
		case "4":
			err = s.listAccounts(ctx)
		case "5":
			err = s.transfer(ctx)
		case "6":
			err = s.viewTransactions(ctx)
		case "7":
			err = s.updatePassword(ctx)
		case "8":
			err = s.logout()
		default:
			valid = false
			err = s.send(msgInvalidOption)
		}
		if err != nil {
			return err
		}
	}
	return errSessionDone
}

func (s *Session) lodge(ctx context.Context) error {
	text, err := s.ask(ctx, msgPromptLodge)
	if err != nil {
		return err
	}

	amount, perr := decimal.NewFromString(text)
	if perr != nil {
		// One failure report, no retry loop: amounts are single-shot unlike
		// the PPS/email fields.
		return s.send(msgInvalidAmount)
	}

	newBalance, lerr := s.ledger.Lodge(ctx, s.current, amount)
	if lerr != nil {
		if errors.Is(lerr, apperror.ErrInvalidAmount()) {
			return s.send(msgInvalidAmount)
		}
		s.log.Error().Err(lerr).Msg("lodge failed")
		return s.send(msgInvalidAmount)
	}
	return s.send("Money lodged successfully. Updated balance: " + newBalance.StringFixed(2))
}

func (s *Session) listAccounts(ctx context.Context) error {
	snapshots, err := s.ledger.ListAccounts(ctx)
	if err != nil {
		return err
	}

	if err := s.send(msgUserCount); err != nil {
		return err
	}
	if err := s.send(strconv.Itoa(len(snapshots))); err != nil {
		return err
	}
	for _, snap := range snapshots {
		line := fmt.Sprintf("Name: %s, PPS Number: %s, Email: %s, Address: %s, Balance: %s",
			strings.ToUpper(snap.Name), snap.PPSNumber, snap.Email, snap.Address, snap.Balance.StringFixed(2))
		if err := s.send(line); err != nil {
			return err
		}
	}
	return nil
}

// transfer prompts for the recipient's email and PPS number before the
// amount. If the recipient does not resolve, or the PPS does not match, the
// amount is never requested.
func (s *Session) transfer(ctx context.Context) error {
	email, err := s.ask(ctx, msgPromptRcptMail)
	if err != nil {
		return err
	}
	pps, err := s.ask(ctx, msgPromptRcptPPS)
	if err != nil {
		return err
	}

	recipient, findErr := s.ledger.FindByEmail(ctx, email)
	if findErr != nil || recipient.PPSNumber() != pps {
		return s.send(msgRcptNotFound)
	}

	text, err := s.ask(ctx, msgPromptTransfer)
	if err != nil {
		return err
	}
	amount, perr := decimal.NewFromString(text)
	if perr != nil {
		return s.send(msgInvalidAmount)
	}

	newBalance, terr := s.ledger.Transfer(ctx, s.current, recipient, amount)
	switch {
	case terr == nil:
		return s.send("Money transferred successfully. Updated balance: " + newBalance.StringFixed(2))
	case errors.Is(terr, apperror.ErrInsufficientFunds()):
		return s.send(msgInsufficient)
	case errors.Is(terr, apperror.ErrInvalidAmount()):
		return s.send(msgInvalidAmount)
	default:
		s.log.Error().Err(terr).Msg("transfer failed")
		return s.send(msgInvalidAmount)
	}
}

func (s *Session) viewTransactions(ctx context.Context) error {
	records, err := s.ledger.GetTransactions(ctx, s.current)
	if err != nil {
		return err
	}

	if err := s.send("Transactions for user " + strings.ToUpper(s.current.Name()) + ":"); err != nil {
		return err
	}
	if err := s.send(strconv.Itoa(len(records))); err != nil {
		return err
	}
	for _, rec := range records {
		if err := s.send(formatRecord(rec)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) updatePassword(ctx context.Context) error {
	// No confirmation, no strength check.
	newPassword, err := s.ask(ctx, msgPromptNewPass)
	if err != nil {
		return err
	}
	if err := s.ledger.ChangePassword(ctx, s.current, newPassword); err != nil {
		return err
	}
	return s.send(msgPassUpdated)
}

// formatRecord renders one transaction line for the history listing.
func formatRecord(rec domain.TransactionRecord) string {
	line := fmt.Sprintf("%s | %s | Amount: %s",
		rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Kind, rec.Amount.StringFixed(2))
	if rec.Counterparty != "" {
		line += ", Counterparty: " + rec.Counterparty
	}
	return line + ", Balance: " + rec.ResultingBalance.StringFixed(2)
}

func (s *Session) logout() error {
	s.current = nil
	return s.send(msgLogout)
}

// ask sends a prompt and waits for the single reply.
func (s *Session) ask(ctx context.Context, prompt string) (string, error) {
	if err := s.send(prompt); err != nil {
		return "", err
	}
	return s.recv(ctx)
}

func (s *Session) send(msg string) error {
	return s.framer.WriteMessage(msg)
}

// recv blocks on the next client frame. This is the session's only
// suspension point; the optional read timeout and a cancelled context are
// resource-safety hooks and fire only when configured.
func (s *Session) recv(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.readTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return "", err
		}
	}
	return s.framer.ReadMessage()
}
