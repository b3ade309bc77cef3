package systems

// MindStats counts mind pipeline events for the current tick. Systems add to
// it single-threaded; the game drains it into telemetry after every tick.
type MindStats struct {
	RoutinesComputed int
	MissingTargets   int // routine targets that no longer exist
	NoOutput         int // routines that produced neither channel
	ComposerAborts   int // composers zeroed by a broken reference
	UntaggedRefs     int // composer references to routines the craft doesn't own
	Dodges           int // avoid-collision routines currently dodging
	StrategySwitches int
	CheckpointsHit   int
	FireEvents       int
}

// Reset zeroes all counters.
func (s *MindStats) Reset() {
	*s = MindStats{}
}
