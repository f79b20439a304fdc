/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/common/transaction.go
*/
package common

// Transaction of commands per client connection.
//
// Commands added while the client is in MULTI are queued here and executed
// together, in order, by EXEC. A Transaction is owned by exactly one Client and
// is only touched by that client's goroutine.
type Transaction struct {
	Cmds []*TxCommand
}

// NewTransaction creates and returns a new empty Transaction instance.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// TxCommand represents a single command queued within a transaction.
//
// Fields:
//   - Args: the command name (upper-cased) followed by its arguments
//
// The handler is looked up again at EXEC time; a command only reaches the
// queue after the dispatcher has checked that it exists and that its arity
// is right.
type TxCommand struct {
	Args []string
}

// Queue appends a command to the transaction.
func (tx *Transaction) Queue(args []string) {
	tx.Cmds = append(tx.Cmds, &TxCommand{Args: args})
}
