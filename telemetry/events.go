package telemetry

import (
	"github.com/pthm-cable/boidmind/systems"
)

// FireRecord is one weapon activation as written to fire_events.csv.
type FireRecord struct {
	Tick    int32   `csv:"tick"`
	Time    float64 `csv:"time"`
	CraftID uint32  `csv:"craft_id"`
	Weapon  uint32  `csv:"weapon_id"`
	Class   string  `csv:"class"`
}

// NewFireRecord converts a weapon system event into a CSV row.
func NewFireRecord(tick int32, ev systems.FireEvent) FireRecord {
	return FireRecord{
		Tick:    tick,
		Time:    ev.Time,
		CraftID: ev.Craft.ID(),
		Weapon:  ev.Weapon.ID(),
		Class:   ev.Class.String(),
	}
}

// FireLog buffers fire records between flushes.
type FireLog struct {
	records []FireRecord
	total   int
}

// Append converts and buffers every event fired at tick.
func (l *FireLog) Append(tick int32, events []systems.FireEvent) {
	for _, ev := range events {
		l.records = append(l.records, NewFireRecord(tick, ev))
	}
	l.total += len(events)
}

// Drain returns the buffered records and clears the buffer.
func (l *FireLog) Drain() []FireRecord {
	out := l.records
	l.records = nil
	return out
}

// Pending returns the number of buffered records.
func (l *FireLog) Pending() int { return len(l.records) }

// Total returns the number of records ever appended.
func (l *FireLog) Total() int { return l.total }
