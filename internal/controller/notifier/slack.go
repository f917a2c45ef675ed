package notifier

import (
	"context"
	"log/slog"

	"github.com/slack-go/slack"
)

const slackQueueSize = 32

// SlackSender posts attachments to a Slack channel. An empty channel posts to the default channel.
type SlackSender interface {
	Send(channel string, attachments []slack.Attachment) error
}

// SlackNotifier queues changes and posts them to Slack in the background, in the order they were queued.
type SlackNotifier struct {
	sender SlackSender
	logger *slog.Logger
	queue  chan slack.Attachment
}

var _ Notifier = &SlackNotifier{}

func NewSlackNotifier(sender SlackSender, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		sender: sender,
		logger: logger,
		queue:  make(chan slack.Attachment, slackQueueSize),
	}
}

// Notify queues a change. If the queue is full, the change is dropped.
func (s *SlackNotifier) Notify(_ context.Context, change Change) {
	color := "good"
	if change.Manual {
		color = "warning"
	}
	select {
	case s.queue <- slack.Attachment{Color: color, Title: change.Title(), Text: change.Text()}:
	default:
		s.logger.Warn("slack queue full: dropping notification", "change", change)
	}
}

// Run posts queued changes until ctx is canceled.
func (s *SlackNotifier) Run(ctx context.Context) error {
	s.logger.Debug("started")
	defer s.logger.Debug("stopped")
	for {
		select {
		case <-ctx.Done():
			return nil
		case attachment := <-s.queue:
			if err := s.sender.Send("", []slack.Attachment{attachment}); err != nil {
				s.logger.Error("failed to send slack notification", "err", err)
			}
		}
	}
}
