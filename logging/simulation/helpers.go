// Package simulation defines the event vocabulary the world loop publishes
// and thin helpers for emitting each event consistently.
package simulation

import (
	"context"

	"minion-keep/server/logging"
)

const (
	// EventWanderExhausted is emitted when destination sampling runs out of
	// attempts and the entity re-arms its idle timer instead.
	EventWanderExhausted logging.EventType = "simulation.wander_exhausted"
	// EventWalkAborted is emitted when a walking entity's next step landed on
	// non-walkable ground mid-transit.
	EventWalkAborted logging.EventType = "simulation.walk_aborted"
	// EventScaffoldPathFailed is emitted when the elevated pathfinder returns
	// no path for a work-cycle destination.
	EventScaffoldPathFailed logging.EventType = "simulation.scaffold_path_failed"
	// EventImpossibleTransition is emitted when an external signal names an
	// entity or transition the store cannot honor; the signal is dropped.
	EventImpossibleTransition logging.EventType = "simulation.impossible_transition"
	// EventConversationPhase is emitted on every conversation phase change.
	EventConversationPhase logging.EventType = "simulation.conversation_phase"
	// EventProjectileSettled is emitted when a thrown entity lands for good.
	EventProjectileSettled logging.EventType = "simulation.projectile_settled"
	// EventTickBudgetOverrun is emitted when a tick exceeds its frame budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
)

// WalkAbortedPayload records where a walk was cut short.
type WalkAbortedPayload struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// WalkAborted publishes a walk abort for an entity.
func WalkAborted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload WalkAbortedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventWalkAborted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// WanderExhausted publishes a sampling-exhaustion fallback.
func WanderExhausted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, attempts int) {
	publish(ctx, pub, logging.Event{
		Type:     EventWanderExhausted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  map[string]any{"attempts": attempts},
	})
}

// ScaffoldPathFailedPayload names the endpoints of a failed path request.
type ScaffoldPathFailedPayload struct {
	BuildingID string  `json:"buildingId"`
	FromX      float64 `json:"fromX"`
	FromZ      float64 `json:"fromZ"`
	ToX        float64 `json:"toX"`
	ToZ        float64 `json:"toZ"`
}

// ScaffoldPathFailed publishes a pathfinding miss; the entity retries later.
func ScaffoldPathFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ScaffoldPathFailedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventScaffoldPathFailed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

// ImpossibleTransition publishes a dropped external signal.
func ImpossibleTransition(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, reason string) {
	publish(ctx, pub, logging.Event{
		Type:     EventImpossibleTransition,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  map[string]any{"reason": reason},
	})
}

// ConversationPhase publishes a phase change for the active conversation.
func ConversationPhase(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, phase string) {
	publish(ctx, pub, logging.Event{
		Type:     EventConversationPhase,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  map[string]any{"phase": phase},
	})
}

// ProjectileSettledPayload records how a throw ended.
type ProjectileSettledPayload struct {
	Bounces int     `json:"bounces"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// ProjectileSettled publishes the landing record for a thrown entity.
func ProjectileSettled(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ProjectileSettledPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventProjectileSettled,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// TickBudgetOverrunPayload captures timing details for a slow tick.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
}

// TickBudgetOverrun publishes a warning when the loop blows its frame budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
