package notifier

import "context"

// Sender delivers one message to one destination. The sender label is empty
// for anonymous messages and must then be omitted from the delivery.
type Sender interface {
	Send(ctx context.Context, destinatary, messageID, senderLabel string) error
}
