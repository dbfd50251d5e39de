package ephem

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-kp/internal/astro"
)

var chennai = astro.Observer{LatDeg: 13.0827, LonDeg: 80.2707, Name: "Chennai"}

func checkCuspSweep(t *testing.T, cusps [12]float64) {
	t.Helper()
	total := 0.0
	for i := range cusps {
		span := astro.Normalize(cusps[(i+1)%12] - cusps[i])
		if span <= 0 || span >= 180 {
			t.Errorf("house %d span = %v, want (0,180)", i+1, span)
		}
		total += span
	}
	if math.Abs(total-360) > 1e-6 {
		t.Errorf("cusps sweep %v degrees, want 360", total)
	}
}

func TestCalculateHouses_Systems(t *testing.T) {
	at := time.Date(1990, 11, 3, 6, 1, 29, 0, time.UTC)

	for _, sys := range []HouseSystem{Placidus, Porphyry, Equal, WholeSign} {
		t.Run(sys.String(), func(t *testing.T) {
			h, err := CalculateHouses(at, chennai, sys)
			if err != nil {
				t.Fatalf("CalculateHouses: %v", err)
			}
			if h.System != sys {
				t.Errorf("System = %v, want %v", h.System, sys)
			}
			for i, c := range h.Cusps {
				if c < 0 || c >= 360 {
					t.Errorf("cusp %d = %v out of range", i+1, c)
				}
			}
			checkCuspSweep(t, h.Cusps)

			switch sys {
			case Placidus, Porphyry:
				if math.Abs(h.Cusps[0]-h.Ascendant) > 1e-9 {
					t.Errorf("cusp 1 = %v, want ascendant %v", h.Cusps[0], h.Ascendant)
				}
				if math.Abs(h.Cusps[9]-h.Midheaven) > 1e-9 {
					t.Errorf("cusp 10 = %v, want midheaven %v", h.Cusps[9], h.Midheaven)
				}
			case Equal:
				for i := 1; i < 12; i++ {
					if d := astro.Normalize(h.Cusps[i] - h.Cusps[i-1]); math.Abs(d-30) > 1e-9 {
						t.Errorf("equal house %d span = %v", i, d)
					}
				}
			case WholeSign:
				if math.Mod(h.Cusps[0], 30) != 0 {
					t.Errorf("whole sign cusp 1 = %v, want a sign boundary", h.Cusps[0])
				}
				if !astro.ArcBetween(h.Cusps[0], h.Cusps[1]).Contains(h.Ascendant) {
					t.Errorf("ascendant %v not inside first whole-sign house", h.Ascendant)
				}
			}

			// Opposite cusps are exactly 180° apart.
			for i := 0; i < 6; i++ {
				if d := astro.AngularSeparation(h.Cusps[i], h.Cusps[i+6]); math.Abs(d-180) > 1e-9 {
					t.Errorf("cusps %d/%d separation = %v", i+1, i+7, d)
				}
			}
		})
	}
}

func TestAscendantAtEquator(t *testing.T) {
	// RAMC 0 on the equator: MC is 0° Aries, the ascendant 0° Cancer.
	eps := 23.4392911
	if got := ascendant(0, eps, 0); math.Abs(got-90) > 1e-9 {
		t.Errorf("ascendant(0, eps, 0) = %v, want 90", got)
	}
	if got := midheaven(0, eps); math.Abs(got) > 1e-9 && math.Abs(got-360) > 1e-9 {
		t.Errorf("midheaven(0) = %v, want 0", got)
	}
	if got := midheaven(90, eps); math.Abs(got-90) > 1e-9 {
		t.Errorf("midheaven(90) = %v, want 90", got)
	}
}

func TestPlacidusAtEquatorTrisectsRA(t *testing.T) {
	at := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	obs := astro.Observer{LatDeg: 0, LonDeg: 0}

	h, err := CalculateHouses(at, obs, Placidus)
	if err != nil {
		t.Fatal(err)
	}

	ramc := astro.LocalSiderealTime(at, 0)
	eps := astro.MeanObliquity(at)
	want11 := raToEcliptic(ramc+30, eps)
	if astro.AngularSeparation(h.Cusps[10], want11) > 1e-9 {
		t.Errorf("cusp 11 = %v, want %v", h.Cusps[10], want11)
	}
	want3 := raToEcliptic(ramc+150, eps)
	if astro.AngularSeparation(h.Cusps[2], want3) > 1e-9 {
		t.Errorf("cusp 3 = %v, want %v", h.Cusps[2], want3)
	}
}

func TestPlacidusPolarLatitude(t *testing.T) {
	_, err := placidusCusp(90, 23.44, 89.9, true, 1.0/3)
	if !errors.Is(err, ErrPolarLatitude) {
		t.Errorf("placidusCusp at 89.9° error = %v, want ErrPolarLatitude", err)
	}
}

func TestCalculateHouses_Invalid(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := CalculateHouses(at, astro.Observer{LatDeg: 95}, Equal); err == nil {
		t.Error("expected error for latitude 95")
	}
	if _, err := CalculateHouses(at, chennai, HouseSystem('K')); err == nil {
		t.Error("expected error for unsupported system")
	}
}

func TestMeanNode(t *testing.T) {
	j2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	n := MeanNode(j2000)

	if n.Body != Rahu {
		t.Errorf("Body = %v, want Rahu", n.Body)
	}
	if math.Abs(n.Longitude-125.0445479) > 1e-6 {
		t.Errorf("mean node at J2000 = %v, want 125.0445479", n.Longitude)
	}
	if math.Abs(n.Speed-(-0.0529539)) > 1e-6 {
		t.Errorf("mean node speed = %v, want -0.0529539", n.Speed)
	}

	// One nodal cycle is about 18.6 years of retrograde motion.
	later := MeanNode(j2000.Add(365 * 24 * time.Hour))
	if d := astro.SignedDifference(n.Longitude, later.Longitude); d > -19 || d < -20 {
		t.Errorf("node moved %v degrees in a year, want about -19.3", d)
	}
}
