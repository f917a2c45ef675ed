package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/clambin/go-common/slackbot"
	"github.com/clambin/homeshift/internal/controller"
	"github.com/slack-go/slack"
)

// Registry holds the coordinator of each household.
type Registry interface {
	Names() []string
	Get(name string) (*controller.Coordinator, error)
}

var _ Registry = &controller.Manager{}

type SlackBot interface {
	Register(name string, command slackbot.CommandFunc)
	Run(ctx context.Context) error
	Send(channel string, attachments []slack.Attachment) error
}

// Bot lets users inspect and change the state of their households through Slack.
type Bot struct {
	slack    SlackBot
	registry Registry
	logger   *slog.Logger
	now      func() time.Time
}

func New(bot SlackBot, registry Registry, logger *slog.Logger) *Bot {
	b := Bot{
		slack:    bot,
		registry: registry,
		logger:   logger.With(slog.String("component", "homeshiftbot")),
		now:      time.Now,
	}
	bot.Register("status", b.ReportStatus)
	bot.Register("daymode", b.SetDayMode)
	bot.Register("thermostat", b.SetThermostatMode)
	bot.Register("override", b.SetOverrideDuration)
	bot.Register("refresh", b.DoRefresh)
	bot.Register("check", b.DoCheck)
	return &b
}

// Run the bot
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Debug("started")
	defer b.logger.Debug("stopped")
	if err := b.slack.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("slackbot: %w", err)
	}
	return nil
}

func (b *Bot) ReportStatus(_ context.Context, args ...string) []slack.Attachment {
	names := b.registry.Names()
	if len(args) > 0 {
		names = args
	}

	attachments := make([]slack.Attachment, 0, len(names))
	for _, name := range names {
		h, err := b.registry.Get(name)
		if err != nil {
			return failed(err)
		}
		attachments = append(attachments, slack.Attachment{
			Color: "good",
			Title: name + ":",
			Text:  b.describe(h.Snapshot()),
		})
	}
	if len(attachments) == 0 {
		return []slack.Attachment{{Color: "bad", Text: "no households configured"}}
	}
	return attachments
}

func (b *Bot) describe(s controller.Snapshot) string {
	lines := []string{
		"day mode: " + s.DayMode,
		"thermostat mode: " + s.ThermostatMode,
	}
	if s.TodayType != "" {
		lines = append(lines, "today: "+s.TodayType)
	}
	if s.CurrentEvent != "" {
		lines = append(lines, "event: "+s.CurrentEvent+" ("+string(s.EventPeriod)+")")
	}
	if remaining := s.OverrideRemaining(b.now()); remaining > 0 {
		lines = append(lines, "manual day mode for "+remaining.Round(time.Minute).String())
	}
	lines = append(lines, "override duration: "+strconv.Itoa(s.OverrideDuration)+" min")
	return strings.Join(lines, "\n")
}

func (b *Bot) SetDayMode(ctx context.Context, args ...string) []slack.Attachment {
	h, args, err := b.household(args, "daymode [<household>] <mode>")
	if err != nil {
		return failed(err)
	}
	if err = h.SetDayMode(ctx, strings.Join(args, " ")); err != nil {
		return failed(fmt.Errorf("%w\nValid modes: %s", err, strings.Join(h.Snapshot().DayModes, ", ")))
	}
	s := h.Snapshot()
	return []slack.Attachment{{Color: "good", Text: h.Name() + ": day mode set to " + s.DayMode + " for " + strconv.Itoa(s.OverrideDuration) + " min"}}
}

func (b *Bot) SetThermostatMode(ctx context.Context, args ...string) []slack.Attachment {
	h, args, err := b.household(args, "thermostat [<household>] <mode>")
	if err != nil {
		return failed(err)
	}
	if err = h.SetThermostatMode(ctx, strings.Join(args, " ")); err != nil {
		return failed(fmt.Errorf("%w\nValid modes: %s", err, strings.Join(h.Snapshot().ThermostatModes, ", ")))
	}
	return []slack.Attachment{{Color: "good", Text: h.Name() + ": thermostat mode set to " + h.Snapshot().ThermostatMode}}
}

func (b *Bot) SetOverrideDuration(ctx context.Context, args ...string) []slack.Attachment {
	const usage = "override [<household>] <minutes>"
	h, args, err := b.household(args, usage)
	if err != nil {
		return failed(err)
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil || len(args) != 1 {
		return failed(fmt.Errorf("invalid duration: %q\nUsage: %s", strings.Join(args, " "), usage))
	}
	minutes = h.SetOverrideDuration(ctx, minutes)
	return []slack.Attachment{{Color: "good", Text: h.Name() + ": override duration set to " + strconv.Itoa(minutes) + " min"}}
}

func (b *Bot) DoRefresh(ctx context.Context, args ...string) []slack.Attachment {
	return b.forEach(args, func(h *controller.Coordinator) string {
		h.RefreshSchedulers(ctx)
		return h.Name() + ": refreshing schedulers"
	})
}

func (b *Bot) DoCheck(ctx context.Context, args ...string) []slack.Attachment {
	return b.forEach(args, func(h *controller.Coordinator) string {
		s, ok := h.CheckDayType(ctx)
		if !ok {
			return h.Name() + ": absence mode active. day type not checked"
		}
		return h.Name() + ": day mode is " + s.DayMode
	})
}

func (b *Bot) forEach(args []string, f func(*controller.Coordinator) string) []slack.Attachment {
	names := b.registry.Names()
	if len(args) > 0 {
		names = args
	}
	households := make([]*controller.Coordinator, 0, len(names))
	for _, name := range names {
		h, err := b.registry.Get(name)
		if err != nil {
			return failed(err)
		}
		households = append(households, h)
	}
	text := make([]string, 0, len(households))
	for _, h := range households {
		text = append(text, f(h))
	}
	return []slack.Attachment{{Color: "good", Text: strings.Join(text, "\n")}}
}

// household returns the household named by the first argument and the remaining arguments. With a single
// household, the name may be omitted.
func (b *Bot) household(args []string, usage string) (*controller.Coordinator, []string, error) {
	names := b.registry.Names()
	if len(names) == 0 {
		return nil, nil, errors.New("no households configured")
	}
	h, err := b.registry.Get(names[0])
	if err != nil {
		return nil, nil, err
	}
	rest := args
	if len(names) > 1 || (len(args) > 1 && slices.Contains(names, args[0])) {
		if len(args) == 0 {
			return nil, nil, errors.New("missing parameters\nUsage: " + usage)
		}
		if h, err = b.registry.Get(args[0]); err != nil {
			return nil, nil, fmt.Errorf("%w\nUsage: %s", err, usage)
		}
		rest = args[1:]
	}
	if len(rest) == 0 {
		return nil, nil, errors.New("missing parameters\nUsage: " + usage)
	}
	return h, rest, nil
}

func failed(err error) []slack.Attachment {
	return []slack.Attachment{{Color: "bad", Text: err.Error()}}
}
