package zone

import (
	"fmt"
	"math"
	"time"

	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

const (
	earthKmPerDegree = 111.0
	overlapFraction  = 0.30
)

// Result pairs the always-present center zone with the run's grid
// configuration (nil Bounds when the request isn't a deep search).
type Result struct {
	Center Zone
	Config Config
}

type Generator struct {
	resolver     GeoResolver
	metadataSink metadata.MetadataSink
}

func NewGenerator(resolver GeoResolver, metadataSink metadata.MetadataSink) Generator {
	return Generator{resolver: resolver, metadataSink: metadataSink}
}

// CreateCityZones builds the zone generation plan for a single city.
func (g Generator) CreateCityZones(cityName, stateCode, stateName, countryCode string, population int64, deep bool, batchSize, maxTotalZones int) (Result, failure.ClassifiedError) {
	target := Target{CityName: cityName, StateCode: stateCode, StateName: stateName, CountryCode: countryCode, Population: population}
	center := Zone{Type: TypeCenter, CityName: cityName, StateCode: stateCode, StateName: stateName, Label: cityName}
	return g.createZones(target, center, deep, batchSize, maxTotalZones, cityName, stateCode, "")
}

// CreateStateZones builds the zone generation plan for an entire state.
func (g Generator) CreateStateZones(stateCode, stateName, countryCode string, deep bool, batchSize, maxTotalZones int) (Result, failure.ClassifiedError) {
	target := Target{StateCode: stateCode, StateName: stateName, CountryCode: countryCode}
	center := Zone{Type: TypeCenter, StateCode: stateCode, StateName: stateName, Label: stateName}
	return g.createZones(target, center, deep, batchSize, maxTotalZones, "", stateCode, "")
}

// CreateCountryZones builds the zone generation plan for an entire country.
func (g Generator) CreateCountryZones(countryCode string, deep bool, batchSize, maxTotalZones int) (Result, failure.ClassifiedError) {
	target := Target{CountryCode: countryCode}
	center := Zone{Type: TypeCenter, Label: countryCode}
	return g.createZones(target, center, deep, batchSize, maxTotalZones, "", "", countryCode)
}

func (g Generator) createZones(target Target, center Zone, deep bool, batchSize, maxTotalZones int, cityName, stateCode, countryCode string) (Result, failure.ClassifiedError) {
	if !deep {
		return Result{Center: center, Config: Config{Target: target, BatchSize: batchSize, MaxTotalZones: maxTotalZones}}, nil
	}

	bounds, err := g.resolver.Resolve(target.CountryCode, target.StateCode, target.CityName)
	if err != nil {
		g.recordError("CreateZones", ErrCauseResolverFailed, err.Error())
		return Result{Center: center, Config: Config{Target: target, BatchSize: batchSize, MaxTotalZones: maxTotalZones}}, nil
	}

	latDelta := math.Abs(bounds.North - bounds.South)
	lngDelta := math.Abs(bounds.East - bounds.West)
	avgLatRad := bounds.CenterLat * math.Pi / 180

	areaKm2 := (latDelta * earthKmPerDegree) * (lngDelta * earthKmPerDegree * math.Cos(avgLatRad))
	gridSpacingKm := gridSpacingForArea(areaKm2)

	latSpacing := gridSpacingKm / earthKmPerDegree
	lngSpacing := gridSpacingKm / (earthKmPerDegree * math.Cos(avgLatRad))

	totalPossibleZones := int(math.Ceil(latDelta/latSpacing)) * int(math.Ceil(lngDelta/lngSpacing))

	config := Config{
		Target:             target,
		Bounds:             &bounds,
		GridSpacingKm:      gridSpacingKm,
		TotalPossibleZones: totalPossibleZones,
		BatchSize:          batchSize,
		MaxTotalZones:      maxTotalZones,
	}
	return Result{Center: center, Config: config}, nil
}

// gridSpacingForArea chooses a grid spacing in km based on the
// bounding box's approximate area, per spec.md's stepped thresholds.
func gridSpacingForArea(areaKm2 float64) float64 {
	switch {
	case areaKm2 < 25:
		return 1
	case areaKm2 < 50:
		return 2
	case areaKm2 < 200:
		return 3
	case areaKm2 < 1000:
		return 4
	default:
		return 5
	}
}

// GenerateZoneBatch produces the grid zones in index range
// [batchNumber*BatchSize, min((batchNumber+1)*BatchSize, MaxTotalZones))
// by row-major traversal of the bounding box. When GridSpacingKm <= 3,
// each primary zone is followed by four overlap zones offset by 30% of
// the spacing on each axis, clipped to the bounds.
func GenerateZoneBatch(config Config, batchNumber int) ([]Zone, failure.ClassifiedError) {
	if config.Bounds == nil {
		return nil, nil
	}
	if batchNumber < 0 || config.BatchSize <= 0 {
		return nil, &ZoneError{Message: "batchNumber and batchSize must be non-negative/positive", Cause: ErrCauseInvalidBatch}
	}

	bounds := *config.Bounds
	latDelta := math.Abs(bounds.North - bounds.South)
	lngDelta := math.Abs(bounds.East - bounds.West)
	avgLatRad := bounds.CenterLat * math.Pi / 180

	latSpacing := config.GridSpacingKm / earthKmPerDegree
	lngSpacing := config.GridSpacingKm / (earthKmPerDegree * math.Cos(avgLatRad))

	cols := int(math.Ceil(lngDelta / lngSpacing))
	if cols < 1 {
		cols = 1
	}

	start := batchNumber * config.BatchSize
	end := (batchNumber + 1) * config.BatchSize
	if end > config.MaxTotalZones {
		end = config.MaxTotalZones
	}
	if end > config.TotalPossibleZones {
		end = config.TotalPossibleZones
	}
	if start >= end {
		return nil, nil
	}

	withOverlap := config.GridSpacingKm <= 3

	var zones []Zone
	for i := start; i < end; i++ {
		row := i / cols
		col := i % cols

		lat := clip(bounds.South+float64(row)*latSpacing, bounds.South, bounds.North)
		lng := clip(bounds.West+float64(col)*lngSpacing, bounds.West, bounds.East)

		label := fmt.Sprintf("zone-%d", i)
		zones = append(zones, Zone{
			Type:      TypeGrid,
			CityName:  config.Target.CityName,
			StateCode: config.Target.StateCode,
			StateName: config.Target.StateName,
			Label:     label,
			Coords:    &Coords{Lat: lat, Lng: lng},
		})

		if !withOverlap {
			continue
		}
		latOffset := latSpacing * overlapFraction
		lngOffset := lngSpacing * overlapFraction
		offsets := [][2]float64{
			{latOffset, 0}, {-latOffset, 0}, {0, lngOffset}, {0, -lngOffset},
		}
		for j, off := range offsets {
			zones = append(zones, Zone{
				Type:      TypeGridOverlap,
				CityName:  config.Target.CityName,
				StateCode: config.Target.StateCode,
				StateName: config.Target.StateName,
				Label:     fmt.Sprintf("%s-overlap-%d", label, j+1),
				Coords: &Coords{
					Lat: clip(lat+off[0], bounds.South, bounds.North),
					Lng: clip(lng+off[1], bounds.West, bounds.East),
				},
			})
		}
	}
	return zones, nil
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (g Generator) recordError(action string, cause ZoneErrorCause, message string) {
	if g.metadataSink == nil {
		return
	}
	g.metadataSink.RecordError(metadata.ErrorRecord{
		PackageName: "zone",
		Action:      action,
		Cause:       mapZoneErrorToMetadataCause(cause),
		ErrorString: message,
		ObservedAt:  time.Now(),
	})
}
