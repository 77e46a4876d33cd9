// Package epochsim defines the boundary between this repository's agents
// and the external epoch-synchronized Simulation Manager / message bus
// framework that actually drives a production run (spec §1: out of
// scope, interfaces only). It also provides a minimal in-process
// Scheduler used by cmd/harness and by package tests, so the agent
// packages can be exercised without a real Simulation Manager process.
package epochsim

import "time"

// Epoch describes one simulation tick: its number, its wall-clock window,
// and the message IDs (if any) that triggered it, mirroring the fields an
// EpochMessage carries on the real bus (spec §6).
type Epoch struct {
	Number               int
	Start                time.Time
	End                  time.Time
	TriggeringMessageIDs []string
}

// Participant is implemented by anything the Scheduler can step through
// an epoch: cmd/harness adapts the Station and Grid agents to it with
// small wrapper types.
type Participant interface {
	// StartEpoch resets the participant's per-epoch state for a new Epoch.
	StartEpoch(epoch Epoch)
	// Advance runs the participant's re-entrant per-epoch routine. It is
	// safe to call repeatedly; each call only performs the next action the
	// participant's flags allow.
	Advance()
	// Ready reports whether the participant has completed its obligations
	// for the current epoch.
	Ready() bool
}

// Scheduler runs a fixed sequence of epochs, advancing every registered
// Participant until all report Ready or a round limit is hit. It is the
// local substitute for the Simulation Manager's epoch lifecycle: in a
// real deployment, StatusReady/Epoch/SimState messages on the bus play
// this role instead (spec §1).
type Scheduler struct {
	participants []Participant
	maxRounds    int
}

// NewScheduler builds a Scheduler. maxRounds bounds how many rounds are
// run per epoch, each round calling Advance once on every participant not
// yet Ready, guarding against a misconfigured agent that can never become
// Ready.
func NewScheduler(maxRounds int) *Scheduler {
	if maxRounds <= 0 {
		maxRounds = 64
	}
	return &Scheduler{maxRounds: maxRounds}
}

// Register adds a Participant the Scheduler will drive through every
// RunEpoch call from here on.
func (s *Scheduler) Register(p Participant) {
	s.participants = append(s.participants, p)
}

// RunEpoch starts epoch on every registered participant, then repeatedly
// calls Advance on each not-yet-Ready participant until all are Ready or
// maxRounds elapses. It returns false if the round budget was exhausted
// with some participant still not Ready, which indicates a stuck epoch
// (a message that never arrived, or an agent with a broken predicate)
// rather than a slow but converging one.
func (s *Scheduler) RunEpoch(epoch Epoch) bool {
	for _, p := range s.participants {
		p.StartEpoch(epoch)
	}

	for round := 0; round < s.maxRounds; round++ {
		allReady := true
		for _, p := range s.participants {
			if p.Ready() {
				continue
			}
			p.Advance()
			allReady = false
		}
		if allReady {
			return true
		}
	}

	for _, p := range s.participants {
		if !p.Ready() {
			return false
		}
	}
	return true
}
