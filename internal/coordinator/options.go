package coordinator

import (
	"log/slog"
	"time"
)

// DefaultDebounce is the quiescence window used when none is set.
const DefaultDebounce = 400 * time.Millisecond

// Notifier receives every program edit. Notify must not block.
type Notifier interface {
	Notify(text string)
}

// Publisher receives every published outcome, in increasing sequence order.
type Publisher interface {
	Publish(out Outcome)
}

// PublisherFunc adapts a function to a Publisher.
type PublisherFunc func(out Outcome)

func (f PublisherFunc) Publish(out Outcome) {
	f(out)
}

type Option func(c *Coordinator)

func WithDebounce(delay time.Duration) Option {
	return func(c *Coordinator) {
		c.delay = delay
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		c.notifier = n
	}
}

// WithPublisher adds a Publisher. It can be given several times.
func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) {
		c.publishers = append(c.publishers, p)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithProgram sets the initial program text. It is not sent to the Notifier.
func WithProgram(text string) Option {
	return func(c *Coordinator) {
		c.program = text
	}
}
