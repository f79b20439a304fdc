/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/queue.go
*/
package datasource

// pendingCommand is a queued command together with the slot its EXEC reply
// goes to.
type pendingCommand struct {
	cmd  Command
	slot *slot
}

// commandQueue records the commands of one attempt in call order. Its
// positions match the positions of the EXEC reply.
type commandQueue struct {
	items []pendingCommand
}

func (q *commandQueue) push(cmd Command, s *slot) {
	q.items = append(q.items, pendingCommand{cmd: cmd, slot: s})
}

func (q *commandQueue) len() int {
	return len(q.items)
}

// abandon leaves every slot empty.
func (q *commandQueue) abandon() {
	for _, p := range q.items {
		p.slot.abandon()
	}
}
