package live

import "github.com/racesim/racesim/sim"

// dwellPits keeps a pitting driver stationary until the stop, and any
// penalty served with it, has elapsed.
type dwellPits struct {
	penalties   PenaltyGate
	lastPenalty int64 // penalty ns folded into the most recent entry
}

func (p *dwellPits) Enter(driver int, car sim.CarProfile, st *sim.DriverState, now int64) bool {
	st.InPit = true
	st.PitStart = now
	stop := int64(sim.PitStopSeconds(car) * 1e9)
	p.lastPenalty, _ = p.penalties.MarkServing(driver, now)
	stop += p.lastPenalty
	st.PitEnd = now + stop
	return true
}

func (p *dwellPits) Exit(driver int, st *sim.DriverState, now int64) bool {
	if now < st.PitEnd {
		return false
	}
	// A penalty issued while the car was already stationary starts now.
	p.penalties.MarkServing(driver, now)
	return p.penalties.IsComplete(driver, now)
}

func (p *dwellPits) Moved(*sim.DriverState, float64) {}

type noPenalties struct{}

func (noPenalties) MarkServing(int, int64) (int64, bool) { return 0, false }
func (noPenalties) IsComplete(int, int64) bool           { return true }
