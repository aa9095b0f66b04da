package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/service/inventory"
	"github.com/mamadbah2/pantry/internal/service/reporting"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// HelpText lists the commands understood by the bot.
const HelpText = `Pantry commands:
/add <name> [qty] - add units (default 1)
/remove <name> - take one unit (asks to confirm)
/set <name> <qty> - overwrite a quantity
/list - show the pantry
/search <text> - find items
/show <name> - item details
/summary - totals and low stock`

var usage = map[models.CommandType]string{
	models.CommandAdd:    "Usage: /add <name> [quantity], e.g. /add Rice 3.",
	models.CommandRemove: "Usage: /remove <name>, e.g. /remove Rice.",
	models.CommandSet:    "Usage: /set <name> <quantity>, e.g. /set Rice 5.",
	models.CommandSearch: "Usage: /search <text>, e.g. /search ap.",
	models.CommandShow:   "Usage: /show <name>, e.g. /show Rice.",
}

// InventoryController is the part of the inventory service used by chat commands. Reads go
// through Load so chat traffic never raises page notifications; writes still notify the page
// like any other mutation.
type InventoryController interface {
	Load(ctx context.Context) ([]models.Item, error)
	Add(ctx context.Context, name string, incrementBy int) error
	Remove(ctx context.Context, name string) error
	Set(ctx context.Context, name string, quantity int) error
	Search(query string) []models.Item
	Find(name string) (models.Item, bool)
}

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	Summarize(items []models.Item) models.InventorySummary
}

// Dispatcher executes parsed chat commands against the inventory.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	inventory InventoryController
	reporting ReportingAdapter
	sessions  *SessionManager
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a command dispatcher. reporting may be nil, which disables /summary.
func NewService(inv InventoryController, reporting ReportingAdapter, sessions *SessionManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessions == nil {
		sessions = NewSessionManager()
	}
	return &Service{
		inventory: inv,
		reporting: reporting,
		sessions:  sessions,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleCommand runs cmd for sender and returns the reply text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandAdd:
		name, qty, err := parseNameAndQuantity(cmd.Args, 1, false)
		if err != nil {
			return "", err
		}
		if err := s.inventory.Add(ctx, name, qty); err != nil {
			return "", err
		}
		return s.afterWrite(inventory.MsgAdded, name), nil
	case models.CommandSet:
		name, qty, err := parseNameAndQuantity(cmd.Args, -1, true)
		if err != nil {
			return "", err
		}
		if err := s.inventory.Set(ctx, name, qty); err != nil {
			return "", err
		}
		return s.afterWrite(inventory.MsgUpdated, name), nil
	case models.CommandRemove:
		return s.requestRemoval(ctx, cmd, sender)
	case models.CommandConfirm:
		return s.confirmRemoval(ctx, sender)
	case models.CommandCancel:
		pending := s.sessions.GetSession(sender).PendingRemoval
		s.sessions.ClearSession(sender)
		if pending == "" {
			return "Nothing to cancel.", nil
		}
		return fmt.Sprintf("Kept %s.", pending), nil
	case models.CommandList:
		items, err := s.inventory.Load(ctx)
		if err != nil {
			return "", err
		}
		return formatItems(items, "The pantry is empty."), nil
	case models.CommandSearch:
		if len(cmd.Args) == 0 {
			return "", ErrInvalidArguments
		}
		if _, err := s.inventory.Load(ctx); err != nil {
			return "", err
		}
		query := strings.Join(cmd.Args, " ")
		return formatItems(s.inventory.Search(query), fmt.Sprintf("No item matches %q.", query)), nil
	case models.CommandShow:
		if len(cmd.Args) == 0 {
			return "", ErrInvalidArguments
		}
		name := strings.Join(cmd.Args, " ")
		if _, err := s.inventory.Load(ctx); err != nil {
			return "", err
		}
		item, ok := s.inventory.Find(name)
		if !ok {
			return fmt.Sprintf("%s is not in the pantry.", name), nil
		}
		return fmt.Sprintf("%s\nQuantity: %d", item.DisplayName(), item.Quantity), nil
	case models.CommandSummary:
		if s.reporting == nil {
			return "", ErrUnsupportedCommand
		}
		items, err := s.inventory.Load(ctx)
		if err != nil {
			return "", err
		}
		return reporting.FormatSummary(s.reporting.Summarize(items), s.now()), nil
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) requestRemoval(ctx context.Context, cmd models.Command, sender string) (string, error) {
	if len(cmd.Args) == 0 {
		return "", ErrInvalidArguments
	}
	name := strings.Join(cmd.Args, " ")

	if _, err := s.inventory.Load(ctx); err != nil {
		return "", err
	}
	if _, ok := s.inventory.Find(name); !ok {
		return fmt.Sprintf("%s is not in the pantry.", name), nil
	}

	s.sessions.UpdateSession(sender, Session{PendingRemoval: name})
	return fmt.Sprintf("Are you sure you want to remove %s? Reply /confirm or /cancel.", name), nil
}

func (s *Service) confirmRemoval(ctx context.Context, sender string) (string, error) {
	name := s.sessions.GetSession(sender).PendingRemoval
	s.sessions.ClearSession(sender)
	if name == "" {
		return "Nothing to confirm.", nil
	}

	if err := s.inventory.Remove(ctx, name); err != nil {
		return "", err
	}
	return s.afterWrite(inventory.MsgRemoved, name), nil
}

// afterWrite appends the refreshed quantity of name to the outcome message.
func (s *Service) afterWrite(outcome, name string) string {
	item, ok := s.inventory.Find(name)
	if !ok {
		return fmt.Sprintf("%s %s is no longer in the pantry.", outcome, name)
	}
	return fmt.Sprintf("%s %s: %d.", outcome, item.DisplayName(), item.Quantity)
}

// ReplyFor maps a dispatch error to the text sent back to the user.
func ReplyFor(cmd models.Command, err error) string {
	switch {
	case errors.Is(err, ErrInvalidArguments), errors.Is(err, models.ErrInvalidItem):
		if text, ok := usage[cmd.Type]; ok {
			return text
		}
		return HelpText
	case errors.Is(err, ErrUnsupportedCommand):
		return "Unknown command.\n" + HelpText
	case errors.Is(err, inventory.ErrFetchFailure):
		return inventory.MsgFetchFailed
	case errors.Is(err, inventory.ErrWriteFailure):
		switch cmd.Type {
		case models.CommandRemove, models.CommandConfirm:
			return inventory.MsgRemoveFailed
		case models.CommandSet:
			return inventory.MsgUpdateFailed
		}
		return inventory.MsgAddFailed
	}
	return "Something went wrong, please try again."
}

// parseNameAndQuantity splits "<name words...> <qty>". When the last argument is not a
// number the whole argument list is the name and fallback is used, unless required.
func parseNameAndQuantity(args []string, fallback int, required bool) (string, int, error) {
	if len(args) == 0 {
		return "", 0, ErrInvalidArguments
	}

	if len(args) > 1 {
		if qty, err := strconv.Atoi(args[len(args)-1]); err == nil {
			return strings.Join(args[:len(args)-1], " "), qty, nil
		}
	}

	if required {
		return "", 0, ErrInvalidArguments
	}
	return strings.Join(args, " "), fallback, nil
}

func formatItems(items []models.Item, empty string) string {
	if len(items) == 0 {
		return empty
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s: %d", item.DisplayName(), item.Quantity))
	}
	return strings.Join(lines, "\n")
}
