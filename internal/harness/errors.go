package harness

import "fmt"

var (
	ErrWriterBusy    = fmt.Errorf("writer already held")
	ErrNotExclusive  = fmt.Errorf("second writer acquired while one is outstanding")
	ErrMismatch      = fmt.Errorf("unexpected message")
	ErrMissing       = fmt.Errorf("message not delivered")
	ErrDuplicate     = fmt.Errorf("message delivered more than once")
	ErrTorn          = fmt.Errorf("torn message")
	ErrOutOfOrder    = fmt.Errorf("message out of order")
	ErrOverDelivered = fmt.Errorf("more messages delivered than published")
)
