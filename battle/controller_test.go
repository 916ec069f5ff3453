package battle_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navalreplay/analyzer/battle"
	"github.com/navalreplay/analyzer/battlecmd"
	"github.com/navalreplay/analyzer/battlecore"
	"github.com/navalreplay/analyzer/schema"
	"github.com/navalreplay/analyzer/wire"
	"github.com/navalreplay/analyzer/wire/wiretype"
)

// testSchemaXML declares one build ("1.0.0") with two entity types: Avatar
// (onChatMessage, onArenaStateReceived) and Vehicle (receiveVehicleDeath,
// updateMinimapVisionInfo, receiveDamagesOnShip, in that declaration order,
// plus a single unnamed ARRAY property). This mirrors the minimal fixture
// shape the teacher's repparser tests build for replay parsing, scaled down
// to the handful of methods spec.md §8's scenarios actually exercise.
const testSchemaXML = `<?xml version="1.0"?>
<GameSchema>
  <Build version="1.0.0">
    <Entity name="Avatar">
      <ClientMethods>
        <Method name="onChatMessage">
          <Arg type="INT32"/>
          <Arg type="STRING"/>
          <Arg type="STRING"/>
        </Method>
        <Method name="onArenaStateReceived">
          <Arg type="PICKLE"/>
        </Method>
      </ClientMethods>
    </Entity>
    <Entity name="Vehicle">
      <ClientMethods>
        <Method name="receiveVehicleDeath">
          <Arg type="INT32"/>
          <Arg type="INT32"/>
          <Arg type="UINT8"/>
        </Method>
        <Method name="updateMinimapVisionInfo">
          <Arg type="ARRAY"/>
        </Method>
        <Method name="receiveDamagesOnShip">
          <Arg type="INT32"/>
          <Arg type="ARRAY"/>
        </Method>
      </ClientMethods>
      <Properties>
        <Property type="ARRAY"/>
      </Properties>
    </Entity>
  </Build>
</GameSchema>
`

// newTestBundle writes testSchemaXML to a temp directory and loads it
// through the real schema.LoadDir/parseDocument path — schema.Bundle has no
// exported test-construction shortcut, so this is the only way to get a
// genuine *schema.Bundle to drive battlecmd.Decoder with.
func newTestBundle(t *testing.T) *schema.Bundle {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.xml"), []byte(testSchemaXML), 0o644))
	reg, err := schema.LoadDir(dir)
	require.NoError(t, err)
	bundle, err := reg.ForBuild("1.0.0")
	require.NoError(t, err)
	return bundle
}

// decodeAll decodes each packet in order against a fresh Decoder bound to
// bundle, dropping the nil events the decoder produces for packet kinds
// with no SemanticEvent mapping.
func decodeAll(t *testing.T, bundle *schema.Bundle, pkts []*wire.Packet) []battlecmd.Event {
	t.Helper()
	d := battlecmd.NewDecoder(bundle)
	var out []battlecmd.Event
	for _, pkt := range pkts {
		evt, err := d.Decode(pkt)
		require.NoError(t, err)
		if evt != nil {
			out = append(out, evt)
		}
	}
	return out
}

func processAll(t *testing.T, c *battle.Controller, events []battlecmd.Event) {
	t.Helper()
	for _, evt := range events {
		require.NoError(t, c.Process(evt))
	}
}

// TestScenarioMinimalChat exercises spec.md §8 scenario 1: one EntityCreate
// for the avatar, one EntityMethod onChatMessage, yields exactly one Chat
// timeline entry and a report with one chat line, zero frags, zero damage.
func TestScenarioMinimalChat(t *testing.T) {
	bundle := newTestBundle(t)
	pkts := []*wire.Packet{
		{Clock: 1, Kind: 2, Variant: wire.EntityCreate{EntityID: 1, TypeID: 0}},
		{Clock: 2, Kind: 3, Variant: wire.EntityMethod{
			EntityID: 1, MethodID: 0,
			Args: []wiretype.Value{wiretype.Int64(100), wiretype.String("battle"), wiretype.String("gl hf")},
		}},
	}
	events := decodeAll(t, bundle, pkts)
	require.Len(t, events, 2)

	c := battle.NewController(nil, nil)
	processAll(t, c, events)
	report, err := c.Finish()
	require.NoError(t, err)

	require.Len(t, report.Chat, 1)
	assert.Equal(t, battlecore.EntityID(100), report.Chat[0].SenderID)
	assert.Equal(t, "battle", report.Chat[0].Audience.ID)
	assert.Equal(t, "gl hf", report.Chat[0].Text)
	assert.Empty(t, report.Warnings)

	for _, p := range report.Players {
		assert.Zero(t, p.Frags)
		assert.Zero(t, p.DamageDealt)
	}
}

// TestScenarioSelfDestruction exercises spec.md §8 scenario 2: a vehicle
// reports its own death as victim and attacker, cause Detonation — the
// victim's death is self-inflicted and credits no frag.
func TestScenarioSelfDestruction(t *testing.T) {
	bundle := newTestBundle(t)
	pkts := []*wire.Packet{
		{Clock: 1, Kind: 2, Variant: wire.EntityCreate{EntityID: 7, TypeID: 1}},
		{Clock: 2, Kind: 3, Variant: wire.EntityMethod{
			EntityID: 7, MethodID: 0,
			Args: []wiretype.Value{wiretype.Int64(7), wiretype.Int64(7), wiretype.Int64(0x07)},
		}},
	}
	events := decodeAll(t, bundle, pkts)
	require.Len(t, events, 2)

	c := battle.NewController(nil, nil)
	processAll(t, c, events)
	report, err := c.Finish()
	require.NoError(t, err)

	require.Len(t, report.Vehicles, 1)
	v := report.Vehicles[0]
	require.NotNil(t, v.Death)
	assert.True(t, v.Death.Self)
	assert.Equal(t, "Detonation", v.Death.Cause.String())
	assert.Empty(t, v.Frags)
	assert.Empty(t, report.Warnings)
}

// TestScenarioCapturePointProgress exercises spec.md §8 scenario 3: a
// PropertyUpdate setting controlPoints[0].progress mirrors into
// Report.CapturePoints.
func TestScenarioCapturePointProgress(t *testing.T) {
	bundle := newTestBundle(t)
	controlPoints := wiretype.Value{
		Kind:  wiretype.KindArray,
		Array: []wiretype.Value{{Kind: wiretype.KindPickled, Dict: map[string]*wiretype.Value{}}},
	}
	progress := wiretype.Value{Kind: wiretype.KindArray, Array: []wiretype.Value{wiretype.Float64(0), wiretype.Float64(0.3)}}

	pkts := []*wire.Packet{
		{Clock: 1, Kind: 2, Variant: wire.EntityCreate{
			EntityID:   50,
			TypeID:     1,
			Properties: map[string]wiretype.Value{"controlPoints": controlPoints},
		}},
		{Clock: 2, Kind: 5, Variant: wire.PropertyUpdate{
			EntityID: 50,
			Path:     []wiretype.PathLevel{wiretype.DictKey("controlPoints"), wiretype.ArrayIndex(0)},
			Action:   wiretype.SetKeyAction("progress", progress),
		}},
	}
	events := decodeAll(t, bundle, pkts)
	require.Len(t, events, 2)

	c := battle.NewController(nil, nil)
	processAll(t, c, events)
	report, err := c.Finish()
	require.NoError(t, err)

	require.Len(t, report.CapturePoints, 1)
	assert.Equal(t, [2]float64{0, 0.3}, report.CapturePoints[0].Progress)
	assert.Empty(t, report.Warnings)
}

// TestScenarioPackedMinimap exercises spec.md §8 scenario 4: a packed u32
// minimap record unpacks to the literal x/y/heading/flags fields named
// there. Built by inverting unpackMinimapEntry's own bit layout rather than
// a hand-computed literal, so the test fails loudly if that layout ever
// changes instead of silently agreeing with a stale constant.
func TestScenarioPackedMinimap(t *testing.T) {
	bundle := newTestBundle(t)
	const x, y, heading, flags = uint32(2), uint32(8), uint32(128), uint32(0)
	packed := x | y<<11 | heading<<22 | flags<<30

	pkts := []*wire.Packet{
		{Clock: 1, Kind: 2, Variant: wire.EntityCreate{EntityID: 7, TypeID: 1}},
		{Clock: 2, Kind: 3, Variant: wire.EntityMethod{
			EntityID: 7, MethodID: 1,
			Args: []wiretype.Value{{
				Kind: wiretype.KindArray,
				Array: []wiretype.Value{{
					Kind:  wiretype.KindArray,
					Array: []wiretype.Value{wiretype.Int64(7), wiretype.Int64(int64(packed))},
				}},
			}},
		}},
	}
	events := decodeAll(t, bundle, pkts)
	require.Len(t, events, 2)

	mm, ok := events[1].(battlecmd.MinimapUpdate)
	require.True(t, ok)
	require.Len(t, mm.Entries, 1)
	entry := mm.Entries[0]
	assert.Equal(t, x, entry.X)
	assert.Equal(t, y, entry.Y)
	assert.Equal(t, float64(heading), entry.HeadingDeg)
	assert.False(t, entry.Visible)
	assert.False(t, entry.ShownOnMap)
}

// TestScenarioTruncatedPayload exercises spec.md §8 scenario 5: a packet
// stream cut short still yields a Report covering every event the
// controller actually saw. Truncation detection itself is the framer's
// contract (wire/wireframe.Framer.Next returning ErrTruncated); the
// controller's own obligation is simply that Process/Finish never requires
// seeing a "final" packet to produce a valid partial Report.
func TestScenarioTruncatedPayload(t *testing.T) {
	bundle := newTestBundle(t)
	full := []*wire.Packet{
		{Clock: 1, Kind: 2, Variant: wire.EntityCreate{EntityID: 1, TypeID: 0}},
		{Clock: 2, Kind: 3, Variant: wire.EntityMethod{
			EntityID: 1, MethodID: 0,
			Args: []wiretype.Value{wiretype.Int64(100), wiretype.String("battle"), wiretype.String("gl hf")},
		}},
		{Clock: 3, Kind: 2, Variant: wire.EntityCreate{EntityID: 7, TypeID: 1}},
	}
	// Simulate the framer stopping after the size field of a fourth frame:
	// only the first three packets ever reach the decoder.
	truncated := full[:3]

	events := decodeAll(t, bundle, truncated)
	c := battle.NewController(nil, nil)
	processAll(t, c, events)
	report, err := c.Finish()
	require.NoError(t, err)

	require.Len(t, report.Chat, 1)
	assert.Equal(t, "gl hf", report.Chat[0].Text)
	assert.Len(t, report.Timeline.Events, 3)
}

// TestScenarioUnknownEntityMethod exercises spec.md §8 scenario 6: a method
// index beyond the calling entity's schema bounds is absorbed as exactly
// one Warning and processing continues for subsequent frames.
func TestScenarioUnknownEntityMethod(t *testing.T) {
	bundle := newTestBundle(t)
	pkts := []*wire.Packet{
		{Clock: 1, Kind: 2, Variant: wire.EntityCreate{EntityID: 7, TypeID: 1}}, // Vehicle: 3 methods, indices 0-2
		{Clock: 2, Kind: 3, Variant: wire.EntityMethod{EntityID: 7, MethodID: 99, Args: nil}},
		{Clock: 3, Kind: 2, Variant: wire.EntityCreate{EntityID: 1, TypeID: 0}},
		{Clock: 4, Kind: 3, Variant: wire.EntityMethod{
			EntityID: 1, MethodID: 0,
			Args: []wiretype.Value{wiretype.Int64(100), wiretype.String("battle"), wiretype.String("still here")},
		}},
	}
	events := decodeAll(t, bundle, pkts)
	require.Len(t, events, 4)

	c := battle.NewController(nil, nil)
	processAll(t, c, events)
	report, err := c.Finish()
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, battle.WarningUnknownMethod, report.Warnings[0].Kind)
	require.Len(t, report.Chat, 1)
	assert.Equal(t, "still here", report.Chat[0].Text)
}

// TestInvariantDamageAccounting exercises spec.md §8's frag/damage
// accounting invariant: total reported per-player damage dealt equals the
// sum of every DamageReceived amount in the timeline.
func TestInvariantDamageAccounting(t *testing.T) {
	bundle := newTestBundle(t)

	attackerEntry := wiretype.Value{Kind: wiretype.KindPickled, Dict: map[string]*wiretype.Value{
		"name":      ptr(wiretype.String("Attacker")),
		"accountId": ptr(wiretype.Int64(111)),
		"team":      ptr(wiretype.Int64(0)),
		"clan":      ptr(wiretype.String("NAVY")),
	}}
	roster := wiretype.Value{Kind: wiretype.KindArray, Array: []wiretype.Value{attackerEntry}}

	amounts := []float64{12.5, 7.0, 30.25}
	damagePairs := func(amt float64) wiretype.Value {
		return wiretype.Value{Kind: wiretype.KindArray, Array: []wiretype.Value{
			{Kind: wiretype.KindArray, Array: []wiretype.Value{wiretype.Int64(10), wiretype.Float64(amt)}},
		}}
	}

	pkts := []*wire.Packet{
		{Clock: 1, Kind: 2, Variant: wire.EntityCreate{
			EntityID: 10, TypeID: 1,
			Properties: map[string]wiretype.Value{"playerAvatarId": wiretype.Int64(111)},
		}},
		{Clock: 1, Kind: 2, Variant: wire.EntityCreate{EntityID: 20, TypeID: 1}},
		{Clock: 1, Kind: 2, Variant: wire.EntityCreate{EntityID: 99, TypeID: 0}}, // Avatar, carries onArenaStateReceived
		{Clock: 2, Kind: 3, Variant: wire.EntityMethod{EntityID: 99, MethodID: 1, Args: []wiretype.Value{roster}}},
	}
	for i, amt := range amounts {
		pkts = append(pkts, &wire.Packet{Clock: battlecore.Clock(3 + i), Kind: 3, Variant: wire.EntityMethod{
			EntityID: 20, MethodID: 2,
			Args: []wiretype.Value{wiretype.Int64(20), damagePairs(amt)},
		}})
	}

	events := decodeAll(t, bundle, pkts)
	c := battle.NewController(nil, nil)
	processAll(t, c, events)
	report, err := c.Finish()
	require.NoError(t, err)

	var wantTotal float64
	var timelineTotal float64
	for _, amt := range amounts {
		wantTotal += amt
	}
	for _, te := range report.Timeline.Events {
		if dr, ok := te.Payload.(battlecmd.DamageReceived); ok {
			for _, src := range dr.Sources {
				timelineTotal += src.Amount
			}
		}
	}
	assert.Equal(t, wantTotal, timelineTotal)

	require.Len(t, report.Players, 1)
	assert.Equal(t, wantTotal, report.Players[0].DamageDealt)
}

func ptr(v wiretype.Value) *wiretype.Value { return &v }

// TestTimelineMonotonic exercises spec.md §8's timeline-monotonicity
// invariant: for all i<j, timeline[i].Clock <= timeline[j].Clock.
func TestTimelineMonotonic(t *testing.T) {
	bundle := newTestBundle(t)
	pkts := []*wire.Packet{
		{Clock: 1, Kind: 2, Variant: wire.EntityCreate{EntityID: 1, TypeID: 0}},
		{Clock: 1, Kind: 3, Variant: wire.EntityMethod{
			EntityID: 1, MethodID: 0,
			Args: []wiretype.Value{wiretype.Int64(100), wiretype.String("battle"), wiretype.String("a")},
		}},
		{Clock: 5, Kind: 2, Variant: wire.EntityCreate{EntityID: 7, TypeID: 1}},
		{Clock: 9, Kind: 3, Variant: wire.EntityMethod{
			EntityID: 7, MethodID: 0,
			Args: []wiretype.Value{wiretype.Int64(7), wiretype.Int64(7), wiretype.Int64(0x07)},
		}},
	}
	events := decodeAll(t, bundle, pkts)

	c := battle.NewController(nil, nil)
	processAll(t, c, events)
	report, err := c.Finish()
	require.NoError(t, err)

	require.Len(t, report.Timeline.Events, len(pkts))
	for i := 1; i < len(report.Timeline.Events); i++ {
		assert.LessOrEqual(t, report.Timeline.Events[i-1].Clock, report.Timeline.Events[i].Clock)
	}
}
