// This file implements Controller.Finish: sealing the timeline, computing
// derived per-player aggregates, and producing an alias-free Report
// snapshot. See spec.md §3 Ownership, §4.7.

package battle

import (
	"sort"

	"github.com/navalreplay/analyzer/battlecmd"
	"github.com/navalreplay/analyzer/battlecore"
)

// Finish seals the controller and returns the final Report. After Finish,
// Process always returns ErrFinished.
func (c *Controller) Finish() (*Report, error) {
	if c.finished {
		return nil, ErrFinished
	}
	c.finished = true

	for _, v := range c.vehicles {
		c.decompactIfNeeded(v)
	}

	c.computeAggregates()

	report := &Report{
		Players:         c.snapshotPlayers(),
		Vehicles:        c.snapshotVehicles(),
		Buildings:       c.snapshotEntities(c.buildings),
		SmokeScreens:    c.snapshotEntities(c.smokes),
		CapturePoints:   c.snapshotCapturePoints(),
		TeamScores:      c.snapshotTeamScores(),
		Timeline:        c.snapshotTimeline(),
		Chat:            append([]battlecmd.Chat(nil), c.chat...),
		WinningTeam:     c.winningTeam,
		BattleEndReason: c.battleEndReason,
		Warnings:        append([]Warning(nil), c.warnings...),
		SchemaVersion:   c.schemaVersion,
	}
	return report, nil
}

// computeAggregates fills DamageDealt/Frags on each tracked player, per
// spec.md §4.7: "Per-player damage dealt = sum over all DamageReceived
// events where an inner attacker matches that player's vehicle" and
// "Per-player frags = count of ShipDestroyed events with attacker = that
// player's vehicle (exclude self-frags from frag count...)".
func (c *Controller) computeAggregates() {
	vehicleOwner := map[battlecore.EntityID]battlecore.AccountID{}
	for id, v := range c.vehicles {
		vehicleOwner[id] = v.PlayerID
	}

	damageDealt := map[battlecore.AccountID]float64{}
	for _, entry := range c.timeline.Events {
		dr, ok := entry.Payload.(battlecmd.DamageReceived)
		if !ok {
			continue
		}
		for _, src := range dr.Sources {
			owner, ok := vehicleOwner[src.Attacker]
			if !ok {
				continue
			}
			damageDealt[owner] += src.Amount
		}
	}

	fragCount := map[battlecore.AccountID]int{}
	for _, v := range c.vehicles {
		for _, f := range v.Frags {
			if f.Victim == v.EntityID {
				continue // self-frag: excluded from frag count per spec.md §4.7
			}
			fragCount[v.PlayerID]++
		}
	}

	survived := map[battlecore.AccountID]bool{}
	for id := range c.players {
		survived[id] = true // no tracked vehicle: assume survived
	}
	for _, v := range c.vehicles {
		if v.Death == nil {
			continue
		}
		survived[v.PlayerID] = false
	}

	for id, p := range c.players {
		p.DamageDealt = damageDealt[id]
		p.Frags = fragCount[id]
		p.Survived = survived[id]
	}
}

func (c *Controller) snapshotPlayers() []Player {
	out := make([]Player, 0, len(c.players))
	ids := make([]battlecore.AccountID, 0, len(c.players))
	for id := range c.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		p := *c.players[id]
		p.ConnectionChanges = append([]ConnectionChange(nil), p.ConnectionChanges...)
		out = append(out, p)
	}
	return out
}

func (c *Controller) snapshotVehicles() []VehicleEntity {
	out := make([]VehicleEntity, 0, len(c.vehicles))
	ids := make([]battlecore.EntityID, 0, len(c.vehicles))
	for id := range c.vehicles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		v := *c.vehicles[id]
		v.Frags = append([]FragRecord(nil), v.Frags...)
		bag := PropertyBag{}
		for k, val := range v.Properties {
			cp := *val
			bag[k] = &cp
		}
		v.Properties = bag
		out = append(out, v)
	}
	return out
}

func (c *Controller) snapshotEntities(src map[battlecore.EntityID]*Entity) []Entity {
	out := make([]Entity, 0, len(src))
	ids := make([]battlecore.EntityID, 0, len(src))
	for id := range src {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		out = append(out, *src[id])
	}
	return out
}

func (c *Controller) snapshotCapturePoints() []CapturePointState {
	out := make([]CapturePointState, 0, len(c.capturePts))
	indices := make([]int, 0, len(c.capturePts))
	for idx := range c.capturePts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		out = append(out, *c.capturePts[idx])
	}
	return out
}

func (c *Controller) snapshotTeamScores() []TeamScore {
	out := make([]TeamScore, 0, len(c.scores))
	teams := make([]battlecore.Team, 0, len(c.scores))
	for t := range c.scores {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	for _, t := range teams {
		out = append(out, *c.scores[t])
	}
	return out
}

func (c *Controller) snapshotTimeline() GameTimeline {
	return GameTimeline{Events: append([]TimelineEvent(nil), c.timeline.Events...)}
}
