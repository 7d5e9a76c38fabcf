package sim

import (
	"fmt"
	"math/rand"
	"time"
)

// BehaviorState is the bot's high-level behaviour.
type BehaviorState int

const (
	StateSpawning   BehaviorState = iota // idle spin after spawning
	StateExploring                       // choosing a random destination
	StateNavigating                      // travelling to the destination
	StatePursuing                        // chasing a visible player
	StateHunting                         // searching where the player was last seen
)

func (bs BehaviorState) String() string {
	switch bs {
	case StateSpawning:
		return "spawn"
	case StateExploring:
		return "explore"
	case StateNavigating:
		return "navigate"
	case StatePursuing:
		return "pursue"
	case StateHunting:
		return "hunt"
	default:
		return "unknown"
	}
}

// Entity is a moving body. MaxSpeed of zero means the entity has no sprint.
type Entity struct {
	Pos      Vec2
	Speed    float64
	MaxSpeed float64
}

func (e Entity) sprintSpeed() float64 {
	if e.MaxSpeed > 0 {
		return e.MaxSpeed
	}
	return e.Speed
}

// Bot is the autonomous agent: its body, facing, and behaviour fields.
type Bot struct {
	Entity
	Heading float64

	State     BehaviorState
	EnteredAt time.Duration // simulation clock when State was entered

	// Target is the destination while exploring or navigating.
	Target    Vec2
	HasTarget bool
	// LastSeen is the player's most recent sighted position.
	LastSeen    Vec2
	HasLastSeen bool

	Path Path
	// Commit counts down waypoint arrivals before switching to a straight
	// line to Target. -1 = inactive.
	Commit int

	// Set after a rejected move: the next plan starts from the current cell
	// centre and skips the straight-line shortcut until the target changes.
	directBlocked bool
	recenter      bool
}

// NewBot returns a bot at pos that starts spawning at time at.
func NewBot(pos Vec2, speed, maxSpeed float64, at time.Duration) Bot {
	return Bot{
		Entity:    Entity{Pos: pos, Speed: speed, MaxSpeed: maxSpeed},
		State:     StateSpawning,
		EnteredAt: at,
		Commit:    -1,
	}
}

// EventKind identifies something notable that happened during a tick.
type EventKind int

const (
	EventTargetPicked EventKind = iota
	EventPathPlanned
	EventDirectCommit
	EventWaypointReached
	EventMoveBlocked
	EventTargetUnreachable
	EventArrived
	EventPlayerSighted
	EventPlayerLost
	EventLastSeenReached
	EventHuntTimeout
)

func (k EventKind) String() string {
	switch k {
	case EventTargetPicked:
		return "target_picked"
	case EventPathPlanned:
		return "path_planned"
	case EventDirectCommit:
		return "direct_commit"
	case EventWaypointReached:
		return "waypoint"
	case EventMoveBlocked:
		return "move_blocked"
	case EventTargetUnreachable:
		return "unreachable"
	case EventArrived:
		return "arrived"
	case EventPlayerSighted:
		return "player_sighted"
	case EventPlayerLost:
		return "player_lost"
	case EventLastSeenReached:
		return "last_seen_reached"
	case EventHuntTimeout:
		return "hunt_timeout"
	default:
		return "unknown"
	}
}

// Event is one notable occurrence. At and N carry kind-specific detail
// (a position, a waypoint count).
type Event struct {
	Kind EventKind
	At   Vec2
	N    int
}

func (e Event) String() string {
	switch e.Kind {
	case EventPathPlanned:
		return fmt.Sprintf("%s %d waypoints", e.Kind, e.N)
	case EventTargetPicked, EventTargetUnreachable, EventArrived, EventPlayerSighted, EventPlayerLost:
		return fmt.Sprintf("%s (%.0f,%.0f)", e.Kind, e.At.X, e.At.Y)
	default:
		return e.Kind.String()
	}
}

// Outcome summarises one controller step.
type Outcome struct {
	From   BehaviorState
	To     BehaviorState
	Sees   bool
	Player Vec2 // player position the step was evaluated against
	Events []Event
}

// Changed reports whether the step transitioned to a new state.
func (o Outcome) Changed() bool { return o.From != o.To }

// Has reports whether an event of kind k occurred.
func (o Outcome) Has(k EventKind) bool {
	for _, e := range o.Events {
		if e.Kind == k {
			return true
		}
	}
	return false
}

func (o *Outcome) add(k EventKind, at Vec2, n int) {
	o.Events = append(o.Events, Event{Kind: k, At: at, N: n})
}

// TargetPicker chooses exploration destinations. ok is false when the grid
// has no free interior cell.
type TargetPicker interface {
	PickTarget(g *Grid) (c Cell, ok bool)
}

// TargetPickerFunc adapts a function to TargetPicker.
type TargetPickerFunc func(g *Grid) (Cell, bool)

func (f TargetPickerFunc) PickTarget(g *Grid) (Cell, bool) { return f(g) }

// RandomPicker samples interior cells uniformly until it finds a free one.
type RandomPicker struct {
	rng *rand.Rand
}

// NewRandomPicker returns a picker seeded with seed.
func NewRandomPicker(seed int64) *RandomPicker {
	return &RandomPicker{rng: rand.New(rand.NewSource(seed))} // #nosec G404 -- simulation only
}

func (p *RandomPicker) PickTarget(g *Grid) (Cell, bool) {
	if g.FreeCells() == 0 {
		return Cell{}, false
	}
	for {
		c := Cell{1 + p.rng.Intn(g.cols-2), 1 + p.rng.Intn(g.rows-2)}
		if !g.IsWall(c) {
			return c, true
		}
	}
}
