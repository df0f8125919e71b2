// Package weather supplies the temperature reading the outfit generator
// keys its outerwear and tip rules on.
package weather

import (
	"context"
	"fmt"
	"math"
)

// DefaultTemperatureF is used when no provider can answer.
const DefaultTemperatureF = 70

// Reading is a current-conditions snapshot.
type Reading struct {
	TemperatureF float64 `json:"temperatureF"`
	Icon         string  `json:"icon"`
	IconColor    string  `json:"iconColor"`
	TempDisplay  string  `json:"tempDisplay"`
}

// Provider returns the current reading.
type Provider interface {
	Current(ctx context.Context) (Reading, error)
}

// Describe builds a Reading for tempF, filling the display fields.
func Describe(tempF float64) Reading {
	r := Reading{
		TemperatureF: tempF,
		TempDisplay:  fmt.Sprintf("%d°F", int(math.Round(tempF))),
	}
	switch {
	case tempF < 45:
		r.Icon, r.IconColor = "snow", "#60A5FA"
	case tempF < 65:
		r.Icon, r.IconColor = "cloudy", "#9CA3AF"
	case tempF <= 80:
		r.Icon, r.IconColor = "partly-sunny", "#FBBF24"
	default:
		r.Icon, r.IconColor = "sunny", "#F59E0B"
	}
	return r
}

// Fallback is the reading used when the provider fails.
func Fallback() Reading {
	return Describe(DefaultTemperatureF)
}

// Static always reports the same temperature.
type Static struct {
	TemperatureF float64
}

func (s Static) Current(context.Context) (Reading, error) {
	return Describe(s.TemperatureF), nil
}
