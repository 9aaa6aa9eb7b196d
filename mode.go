package server

import (
	"context"

	"minion-keep/server/internal/geom"
	"minion-keep/server/logging"
	simlog "minion-keep/server/logging/simulation"
)

// CameraMode names the two viewing modes the world coordinates.
type CameraMode string

const (
	ModeIsometric   CameraMode = "isometric"
	ModeFirstPerson CameraMode = "firstPerson"
)

// modeState tracks the current camera mode and the blend window during which
// further toggles are rejected.
type modeState struct {
	mode            CameraMode
	transitioning   bool
	transitionTimer float64
}

func newModeState() modeState {
	return modeState{mode: ModeIsometric}
}

// ModeSnapshot is the broadcast form of the mode state.
type ModeSnapshot struct {
	Mode          CameraMode `json:"mode"`
	Transitioning bool       `json:"transitioning"`
}

func (m *modeState) snapshot() ModeSnapshot {
	return ModeSnapshot{Mode: m.mode, Transitioning: m.transitioning}
}

func (m *modeState) advance(dt float64) {
	if !m.transitioning {
		return
	}
	m.transitionTimer -= dt
	if m.transitionTimer <= 0 {
		m.transitioning = false
		m.transitionTimer = 0
	}
}

// toggleMode flips between isometric and first person. A toggle arriving
// mid-transition is dropped rather than queued; the client retries on the
// next keypress.
func (w *World) toggleMode() {
	if w.mode.transitioning {
		simlog.ImpossibleTransition(context.Background(), w.publisher, w.currentTick,
			logging.EntityRef{Kind: logging.EntityKindWorld}, "mode toggle during transition")
		return
	}
	if w.mode.mode == ModeIsometric {
		w.mode.mode = ModeFirstPerson
		// Autonomy pauses in first person, so a walk in flight would never
		// finish and would keep blocking avatar input.
		if wizard, ok := w.entities[w.wizardID]; ok && wizard.State == StateWalking {
			wizard.setState(StateIdle)
		}
	} else {
		w.mode.mode = ModeIsometric
	}
	w.mode.transitioning = true
	w.mode.transitionTimer = modeTransitionDelay
	w.avatarInput = geom.Vec3{}
}

// advanceAvatar moves the wizard under direct control using the most recent
// held input. Input is only honored in first person once the transition
// blend has finished.
func (w *World) advanceAvatar(dt float64) {
	if w.mode.mode != ModeFirstPerson || w.mode.transitioning {
		return
	}
	wizard, ok := w.entities[w.wizardID]
	if !ok || wizard.State != StateIdle {
		return
	}
	dir := w.avatarInput
	if dir.HorizontalLength() > 1 {
		// Normalize so diagonals are not faster.
		dir = dir.Normalized()
	}
	next := wizard.Position
	next.X += dir.X * wizard.speed * dt
	next.Z += dir.Z * wizard.speed * dt
	if !w.ground.IsWalkable(next.X, next.Z) {
		return
	}
	next.Y = w.ground.GroundHeight(next.X, next.Z)
	wizard.Position = next
	if dir.HorizontalLength() > 0.01 {
		wizard.Yaw = dir.Yaw()
	}
}
