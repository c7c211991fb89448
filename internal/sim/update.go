package sim

import (
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/iscript/vm"
	"github.com/drevilslab/openbw/internal/world"
)

const (
	// status timers tick every 8th update of a unit
	statusTimerCycle = 8
	// frames between order timer restaggers
	orderTimerPeriod     = 150
	secondaryTimerPeriod = 300
	tileUpdatePeriod     = 100
)

func unitHPPercent(u *world.Unit) int {
	return int(u.HP.Ceil().IntegerPart()) * 100 / world.MaxVisibleHP(u)
}

// UpdateUnitValues counts down the per-unit timers of u and regenerates
// its shields, hp and energy.
func (g *Game) UpdateUnitValues(u *world.Unit) {
	st := g.st
	if u.MainOrderTimer != 0 {
		u.MainOrderTimer--
	}
	if u.GroundWeaponCooldown != 0 {
		u.GroundWeaponCooldown--
	}
	if u.AirWeaponCooldown != 0 {
		u.AirWeaponCooldown--
	}
	if u.SpellCooldown != 0 {
		u.SpellCooldown--
	}
	if u.Type.HasShield {
		maxShields := fixed.FP8Int(int64(u.Type.ShieldPoints))
		if u.Shields != maxShields {
			world.SetUnitShields(u, u.Shields.Add(fixed.FP8Raw(7)))
			if sp := st.SpriteOf(u); sp.Flags&world.SpriteSelected != 0 {
				st.RedrawSelectionImages(sp)
			}
		}
	}
	if u.Type.ID == data.ZergZergling || u.Type.ID == data.HeroDevouringOne {
		if u.GroundWeaponCooldown == 0 {
			u.OrderQueueTimer = 0
		}
	}
	u.IsBeingHealed = false
	if u.Completed() || !st.SpriteOf(u).Hidden() {
		u.CycleCounter++
		if u.CycleCounter >= statusTimerCycle {
			u.CycleCounter = 0
			g.updateStatusTimers(u)
		}
	}
	if !u.Completed() {
		return
	}
	if u.Type.HasFlag(data.FlagRegensHP) && fixed.FP8{}.Less(u.HP) && u.HP != u.Type.Hitpoints {
		st.SetUnitHP(u, u.HP.Add(fixed.FP8Raw(4)))
	}
	g.updateUnitEnergy(u)
	if u.RecentOrderTimer != 0 {
		u.RecentOrderTimer--
	}
	if u.RemoveTimer != 0 {
		u.RemoveTimer--
		if u.RemoveTimer == 0 {
			invariant.NotImplemented("order SelfDestructing")
		}
	}
	gf := u.Type.Groups
	if gf&data.GroupTerran != 0 && gf&(data.GroupZerg|data.GroupProtoss) == 0 {
		if u.GroundedBuilding() || u.Type.HasFlag(data.FlagFlyingBuilding) {
			if unitHPPercent(u) <= 33 {
				invariant.NotImplemented("burning building damage")
			}
		}
	}
}

func (g *Game) updateStatusTimers(u *world.Unit) {
	if u.StasisTimer != 0 {
		u.StasisTimer--
		if u.StasisTimer == 0 {
			invariant.NotImplemented("remove stasis")
		}
	}
	expire := func(timer *int, name string) {
		if *timer == 0 {
			return
		}
		*timer--
		if *timer == 0 {
			invariant.NotImplemented("remove " + name)
		}
	}
	expire(&u.StimTimer, "stim")
	expire(&u.EnsnareTimer, "ensnare")
	expire(&u.DefenseMatrixTimer, "defense matrix")
	if u.IrradiateTimer != 0 {
		invariant.NotImplemented("irradiate damage")
	}
	expire(&u.LockdownTimer, "lockdown")
	expire(&u.MaelstromTimer, "maelstrom")
	if u.PlagueTimer != 0 {
		invariant.NotImplemented("plague damage")
	}
	if u.StormTimer != 0 {
		u.StormTimer--
	}
	prev := u.AcidSporeCount
	for i, v := range u.AcidSporeTime {
		if v == 0 {
			continue
		}
		u.AcidSporeTime[i]--
		if u.AcidSporeTime[i] == 0 {
			u.AcidSporeCount--
		}
	}
	if u.AcidSporeCount != 0 {
		invariant.NotImplemented("acid spores")
	} else if prev != 0 {
		invariant.NotImplemented("remove acid spore overlays")
	}
}

func cloakEnergyCost(id data.UnitTypeID) fixed.FP8 {
	switch id {
	case data.TerranGhost, data.HeroSarahKerrigan, data.HeroAlexeiStukov, data.HeroSamirDuran,
		data.HeroInfestedDuran, data.HeroInfestedKerrigan:
		return fixed.FP8Raw(10)
	case data.TerranWraith, data.HeroTomKazansky:
		return fixed.FP8Raw(13)
	}
	return fixed.FP8{}
}

// updateUnitEnergy regenerates energy, or drains it while u is cloaked.
func (g *Game) updateUnitEnergy(u *world.Unit) {
	if !u.Type.HasFlag(data.FlagHasEnergy) || u.Hallucination() || !u.Completed() {
		return
	}
	st := g.st
	if u.Status(world.StatusCloaked) || u.Status(world.StatusRequiresDetector) {
		cost := cloakEnergyCost(u.Type.ID)
		if u.Energy.Less(cost) {
			if u.SecondaryOrderType.ID == data.OrderCloak {
				world.SetSecondaryOrder(u, st.Tables.Order(data.OrderNothing))
			}
			return
		}
		u.Energy = u.Energy.Sub(cost)
	} else {
		maxEnergy := st.UnitMaxEnergy(u)
		if u.Type.ID == data.ProtossDarkArchon && u.OrderType.ID == data.OrderCompletingArchonSummon && u.OrderState != 0 {
			maxEnergy = fixed.FP8Int(50)
		}
		u.Energy = u.Energy.Add(fixed.FP8Raw(8))
		if maxEnergy.Less(u.Energy) {
			u.Energy = maxEnergy
		}
	}
	if sp := st.SpriteOf(u); sp.Flags&world.SpriteSelected != 0 {
		st.RedrawSelectionImages(sp)
	}
}

// updateSelectionSprite counts down the selection flash of sp. Selection
// circles are never drawn, so the flash only ends.
func (g *Game) updateSelectionSprite(sp *world.Sprite) {
	if sp.SelectionTimer == 0 {
		return
	}
	sp.SelectionTimer--
	if sp.VisibilityFlags&g.st.LocalMask == 0 {
		sp.SelectionTimer = 0
	}
}

// executeSprite runs the scripts of the sprite of u. A unit whose sprite
// went away is an invariant violation.
func (g *Game) executeSprite(u, orderUnit *world.Unit) {
	sp := g.st.SpriteOf(u)
	if sp == nil || !g.vm.ExecuteSprite(vm.Context{Unit: u, OrderUnit: orderUnit}, sp) {
		u.Sprite = 0
		invariant.Fatalf("unit %d has null sprite", u.Index)
	}
}

// UpdateUnit runs one frame of a unit on the map.
func (g *Game) UpdateUnit(u *world.Unit) {
	g.updateUnit(u, u)
}

func (g *Game) updateUnit(u, orderUnit *world.Unit) {
	if !u.IsTurret() && !g.st.SpriteOf(u).Hidden() {
		g.updateSelectionSprite(g.st.SpriteOf(u))
	}
	g.UpdateUnitValues(u)
	if !g.orders.ExecuteMainOrder(u) {
		return
	}
	g.orders.ExecuteSecondaryOrder(u)
	if sub := g.st.SubunitOf(u); sub != nil && !u.IsTurret() {
		g.updateUnit(sub, orderUnit)
	}
	g.executeSprite(u, orderUnit)
}

// UpdateHiddenUnit runs one frame of a unit that is not on the map.
func (g *Game) UpdateHiddenUnit(u *world.Unit) {
	g.updateHiddenUnit(u, u)
}

func (g *Game) updateHiddenUnit(u, orderUnit *world.Unit) {
	if sub := g.st.SubunitOf(u); sub != nil && !u.IsTurret() {
		g.updateHiddenUnit(sub, orderUnit)
	}
	g.mover.ExecuteMovement(u)
	g.UpdateUnitValues(u)
	if !g.orders.ExecuteHiddenMainOrder(u) {
		return
	}
	g.orders.ExecuteHiddenSecondaryOrder(u)
	g.executeSprite(u, orderUnit)
}

// staggerOrderTimers spreads the throttled order work of the visible units
// over the frames.
func (g *Game) staggerOrderTimers() {
	st := g.st
	st.OrderTimerCounter--
	if st.OrderTimerCounter == 0 {
		st.OrderTimerCounter = orderTimerPeriod
		v := 0
		st.EachUnit(&st.VisibleUnits, func(u *world.Unit) {
			u.OrderQueueTimer = v
			v = (v + 1) % 8
		})
	}
	st.SecondaryOrderTimerCounter--
	if st.SecondaryOrderTimerCounter == 0 {
		st.SecondaryOrderTimerCounter = secondaryTimerPeriod
		v := 0
		st.EachUnit(&st.VisibleUnits, func(u *world.Unit) {
			u.SecondaryOrderTimer = v
			v = (v + 1) % 30
		})
	}
}

// resetAttackAbility clears the cannot-attack state that transports and
// disruption webs set.
func (g *Game) resetAttackAbility() {
	st := g.st
	st.EachUnit(&st.VisibleUnits, func(u *world.Unit) {
		if u.Flying() && !u.Status(world.StatusUnk80) {
			return
		}
		u.SetStatus(world.StatusCannotAttack, false)
		transport := u.Type.ID != data.ZergOverlord || st.Upgraded(u.Owner, data.UpgradeVentralSacs)
		if !u.Hallucination() && transport && u.Type.SpaceProvided != 0 {
			invariant.NotImplemented("loaded unit attack state")
		} else if sub := st.SubunitOf(u); sub != nil {
			sub.SetStatus(world.StatusCannotAttack, false)
		}
	})
	if st.CompletedUnitCounts[world.NeutralPlayer][data.SpellDisruptionWeb] != 0 {
		invariant.NotImplemented("disruption web")
	}
}

func (g *Game) updateSightRelatedUnits() {
	g.st.EachUnit(&g.st.SightRelatedUnits, func(u *world.Unit) {
		invariant.NotImplemented("sight related unit update")
	})
}

func (g *Game) moveVisibleUnits() {
	g.st.EachUnit(&g.st.VisibleUnits, g.mover.UpdateUnitMovement)
}

func (g *Game) refreshVisibility() {
	st := g.st
	if st.UpdateTiles {
		st.EachUnit(&st.ScannerUnits, st.RefreshUnitVision)
	}
	st.EachUnit(&st.VisibleUnits, func(u *world.Unit) {
		st.UpdateUnitSprite(u)
		if !u.Status(world.StatusCloaked) && !u.Status(world.StatusRequiresDetector) {
			return
		}
		u.IsCloaked = false
		if u.SecondaryOrderTimer != 0 {
			u.SecondaryOrderTimer--
			return
		}
		invariant.NotImplemented("cloaked unit visibility")
	})
}

func (g *Game) updateVisibleUnits() { g.st.EachUnit(&g.st.VisibleUnits, g.UpdateUnit) }
func (g *Game) updateHiddenUnits()  { g.st.EachUnit(&g.st.HiddenUnits, g.UpdateHiddenUnit) }
func (g *Game) updateScannerUnits() { g.st.EachUnit(&g.st.ScannerUnits, g.UpdateUnit) }
