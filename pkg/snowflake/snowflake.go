package snowflake

import (
	"errors"
	"sync"
	"time"
)

const (
	nodeBits        = 10
	stepBits        = 12
	nodeMax         = -1 ^ (-1 << nodeBits)
	stepMask        = -1 ^ (-1 << stepBits)
	timeShift       = nodeBits + stepBits
	nodeShift       = stepBits
	epoch     int64 = 1704067200000 // 2024-01-01 00:00:00 UTC
)

// Node generates snowflake IDs. IDs from one node are strictly increasing,
// which is what gives messages and status posts their server-assigned
// send-time order: clustering on the ID is clustering on time.
type Node struct {
	mu   sync.Mutex
	time int64
	node int64
	step int64
}

func NewNode(node int64) (*Node, error) {
	if node < 0 || node > nodeMax {
		return nil, errors.New("node number must be between 0 and 1023")
	}
	return &Node{node: node}, nil
}

func (n *Node) Generate() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now().UnixMilli()

	if now < n.time {
		// Clock moved backwards, refuse to go back in time
		now = n.time
	}

	if n.time == now {
		n.step = (n.step + 1) & stepMask
		if n.step == 0 {
			for now <= n.time {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		n.step = 0
	}

	n.time = now

	return ((now - epoch) << timeShift) | (n.node << nodeShift) | n.step
}

// Time extracts the millisecond timestamp embedded in an ID.
func Time(id int64) time.Time {
	return time.UnixMilli((id >> timeShift) + epoch)
}

// Lowest returns the smallest ID any node could have generated at t. Used
// to turn a wall-clock cutoff (posts newer than 24h ago) into an ID range
// scan.
func Lowest(t time.Time) int64 {
	return (t.UnixMilli() - epoch) << timeShift
}
