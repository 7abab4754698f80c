package cache

// PressureLevel is the severity of a system memory-pressure event.
// Events arrive on Options.Pressure or via HandlePressure; where they come
// from (OS notifications, a runtime monitor, tests) is the caller's business.
type PressureLevel int

const (
	// PressureWarning — the host is running low on memory; shed half the
	// resident entries, least recently used first.
	PressureWarning PressureLevel = iota + 1
	// PressureCritical — the host is critically low; drop the whole
	// memory tier. The disk tier is never touched by pressure.
	PressureCritical
)

func (l PressureLevel) String() string {
	switch l {
	case PressureWarning:
		return "warning"
	case PressureCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// watchPressure consumes the pressure channel until Close. It is started at
// most once per cache instance.
func (c *cache[V]) watchPressure(events <-chan PressureLevel) {
	for {
		select {
		case lvl, ok := <-events:
			if !ok {
				return
			}
			c.HandlePressure(lvl)
		case <-c.done:
			return
		}
	}
}

// HandlePressure applies the memory-pressure response policy:
// warning sheds half the memory tier, critical clears it. Unknown levels are
// ignored. Disk state is never affected.
func (c *cache[V]) HandlePressure(lvl PressureLevel) {
	if c.closed.Load() {
		return
	}
	switch lvl {
	case PressureWarning:
		before := c.store.Len()
		c.store.EvictFraction(warningEvictFraction, EvictPressure)
		c.log.Info("memory pressure: shed half the memory tier",
			"level", lvl, "before", before, "after", c.store.Len())
	case PressureCritical:
		before := c.store.Len()
		c.store.RemoveAll(EvictPressure)
		c.log.Warn("memory pressure: cleared the memory tier",
			"level", lvl, "dropped", before)
	}
}
