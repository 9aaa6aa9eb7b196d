package server

import "time"

const (
	ProtocolVersion   = 1
	writeWait         = 10 * time.Second
	tickRate          = 30 // simulation frames per second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	// maxTickDelta clamps the integration step after a stall so entities do
	// not tunnel through the ground or overshoot targets.
	maxTickDelta = 0.1

	defaultWorldRadius = 40.0

	// Wander policy.
	wanderRadiusFactor   = 0.8
	wanderSampleAttempts = 15
	idleDelayMin         = 1.0
	idleDelayMax         = 4.0
	walkAbortDelayMin    = 0.5
	walkAbortDelayMax    = 1.5

	// Locomotion speeds in world units per second.
	minionMoveSpeed  = 3.0
	wizardMoveSpeed  = 3.5
	critterMoveSpeed = 2.2

	// Projectile integration.
	gravity          = 35.0
	bounceDamping    = 0.55
	bounceRetention  = 0.7
	bounceJitter     = 0.8
	bounceSpinJitter = 1.5
	settleMinSpeed   = 2.0
	maxBounces       = 4
	boundsReflect    = 0.5
	spinDecay        = 0.98
	maxThrowSpin     = 6.0
	settleDelayMin   = 2.0
	settleDelayMax   = 4.0

	// Scaffold work cycle.
	scaffoldSpeedFactor    = 0.6
	waypointReachedEpsilon = 0.3
	surfaceSnapTolerance   = 1.5
	standingOffset         = 0.45
	scaffoldRetryDelay     = 1.0
	workDurationMin        = 3.0
	workDurationMax        = 7.0
	hammerCycleHz          = 4.0

	// Coordinator timings, matching the client camera animations.
	conversationEnterDelay = 0.9
	conversationExitDelay  = 1.0
	teleportVisualDelay    = 0.45
	modeTransitionDelay    = 0.8

	// Animation.
	walkBobRate  = 9.0
	idleBobRate  = 2.0
	walkBobScale = 0.08
	idleBobScale = 0.03

	maxInboxEvents = 256
)
