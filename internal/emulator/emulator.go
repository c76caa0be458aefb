package emulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/sincl1t/m365-digital-twin/internal/models"
)

// Emulator generates synthetic scooter telemetry: load-coupled current and
// voltage sag, slow thermal drift, road-noise accelerations.
type Emulator struct {
	deviceID string
	rng      *rand.Rand
	phases   *Phases

	uBatt float64
	iBatt float64
	tBatt float64
	tCtrl float64
	seq   int64
}

// New seeds an emulator for one device.
func New(deviceID string, seed int64) *Emulator {
	return &Emulator{
		deviceID: deviceID,
		rng:      rand.New(rand.NewSource(seed)),
		phases:   NewPhases(),
		uBatt:    40.5,
		iBatt:    0.8,
		tBatt:    25.0,
		tCtrl:    27.0,
	}
}

func (e *Emulator) gauss(mu, sigma float64) float64 {
	return e.rng.NormFloat64()*sigma + mu
}

// Step advances the simulation by one tick and returns the telemetry record
// for the given wall-clock instant. The record's timestamp has second
// precision, matching what the real device clock provides.
func (e *Emulator) Step(tSec int, now time.Time) *models.Record {
	speed := math.Max(0, e.gauss(e.phases.TargetSpeed(tSec), 0.6))

	// Higher speed means higher current draw and deeper voltage sag.
	load := speed / 25.0
	e.iBatt = math.Max(0.2, 0.5+6.0*load+e.gauss(0, 0.15))
	e.uBatt = 42.0 - 0.02*float64(e.seq) - 0.25*load + e.gauss(0, 0.03)
	e.uBatt = math.Max(36.5, math.Min(e.uBatt, 42.2))

	e.tBatt += 0.003*e.iBatt + e.gauss(0, 0.01)
	e.tCtrl += 0.004*e.iBatt + e.gauss(0, 0.015)

	e.seq++
	return &models.Record{
		DeviceID: e.deviceID,
		FwSrc:    "synthetic",
		Ts:       now.UTC().Truncate(time.Second),
		Seq:      e.seq,
		HasSeq:   true,
		Values: map[string]float64{
			"u_batt_v":  round2(e.uBatt),
			"i_batt_a":  round2(e.iBatt),
			"t_batt_c":  round1(e.tBatt),
			"t_ctrl_c":  round1(e.tCtrl),
			"speed_kmh": round1(speed),
			"ax_ms2":    round2(e.gauss(0, 0.35)),
			"ay_ms2":    round2(e.gauss(0, 0.35)),
			"az_ms2":    round2(e.gauss(9.81, 0.12)),
		},
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
