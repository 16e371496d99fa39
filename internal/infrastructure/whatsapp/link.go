package whatsapp

import (
	"context"
	"errors"
	"net/url"
	"strings"

	domain "github.com/mkassab/orderlink/internal/domain/order"
	"github.com/mkassab/orderlink/internal/observability"
	"github.com/mkassab/orderlink/internal/observability/logctx"
)

var ErrNoDestination = errors.New("whatsapp: contact destination has no digits")

const linkBase = "https://wa.me/"

// EncodeText percent-encodes the rendered message for a URL query parameter:
// newlines become %0A and spaces %20. QueryEscape alone encodes spaces as
// '+', which wa.me renders literally, hence the rewrite.
func EncodeText(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// NormalizeDestination strips every non-digit rune from the contact number.
func NormalizeDestination(destination string) string {
	var b strings.Builder
	for _, r := range destination {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Composer renders a submitted order into the outbound text and the wa.me
// deep link carrying it. Compose is deterministic: identical orders and
// destinations produce byte-identical results.
type Composer struct{}

func NewComposer() Composer { return Composer{} }

func (Composer) Compose(o *domain.SubmittedOrder, contactDestination string) (string, string, error) {
	digits := NormalizeDestination(contactDestination)
	if digits == "" {
		return "", "", ErrNoDestination
	}
	text := RenderText(o)
	link := linkBase + digits + "?text=" + EncodeText(text)
	return text, link, nil
}

// Dispatcher hands a fully formed link to the out-of-process opener.
// Fire-and-forget: no delivery confirmation is tracked.
type Dispatcher interface {
	Open(ctx context.Context, link string)
}

const componentDispatcher = "link_dispatcher"

// LogDispatcher is the headless stand-in for a platform link opener. It marks
// the side-effect boundary by recording the link and nothing else.
type LogDispatcher struct {
	log observability.Logger
}

func NewLogDispatcher(logger observability.Logger) *LogDispatcher {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LogDispatcher{log: logger.With(observability.F("component", componentDispatcher))}
}

func (d *LogDispatcher) Open(ctx context.Context, link string) {
	logctx.FromOr(ctx, d.log).Info("order_link_dispatched",
		observability.F("link", link),
	)
}
