package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chronoweave/chrono-core-go/internal/config"
)

// stubOpponent counts enemy turns and optionally runs a scripted move.
type stubOpponent struct {
	turns  int
	script func()
}

func (o *stubOpponent) TakeTurn() {
	o.turns++
	if o.script != nil {
		o.script()
	}
}

// stubCatalog hands out fresh instances of prototype items.
type stubCatalog map[string]*Item

func (c stubCatalog) Lookup(name string) (*Item, bool) {
	proto, ok := c[name]
	if !ok {
		return nil, false
	}
	fresh := proto.Clone()
	fresh.ID = uuid.NewString()
	return fresh, true
}

func newTestKernel(t *testing.T, mutate func(*config.Config)) (*Kernel, *stubOpponent) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	opponent := &stubOpponent{}
	catalog := stubCatalog{
		"spark":     NewItem("spark", KindStandard, 1),
		"axiom":     NewItem("axiom", KindRule, 2),
		"fracture":  NewItem("fracture", KindParadox, 3),
		"keepsake":  NewItem("keepsake", KindStandard, 0),
		"veilpiece": NewItem("veilpiece", KindParadox, 1),
	}
	kernel, err := NewKernel(cfg, zap.NewNop(), opponent, catalog)
	require.NoError(t, err)
	return kernel, opponent
}

// runFullTurn drives the kernel from the main phase through the enemy
// turn into the next turn's main phase.
func runFullTurn(t *testing.T, k *Kernel) {
	t.Helper()
	require.Equal(t, PhaseMain, k.Phases().Current())
	k.EndMainPhase()
	k.Tick()
	require.Equal(t, PhaseMain, k.Phases().Current())
}
