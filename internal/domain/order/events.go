package order

import "time"

// OrderSubmittedEvent is emitted after an order has been durably recorded and
// its outbound message composed. Subscribers handle the fire-and-forget side
// of checkout (link dispatch, notifications).
type OrderSubmittedEvent struct {
	Identifier  string
	CompanyName string
	City        string
	LineCount   int
	Total       string
	Link        string
	Fallback    bool
	OccurredAt  time.Time
}

func (OrderSubmittedEvent) EventName() string { return "order.submitted" }

func NewOrderSubmittedEvent(o *SubmittedOrder, link string, fallback bool) OrderSubmittedEvent {
	return OrderSubmittedEvent{
		Identifier:  o.Identifier,
		CompanyName: o.CompanyName,
		City:        o.City,
		LineCount:   len(o.Lines),
		Total:       o.Total.StringFixed(2),
		Link:        link,
		Fallback:    fallback,
		OccurredAt:  time.Now().UTC(),
	}
}
