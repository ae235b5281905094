package holiday

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StaticProvider serves a fixed holiday list regardless of country.
type StaticProvider struct {
	holidays []Holiday
}

// NewStaticProvider creates a provider over the given holidays.
func NewStaticProvider(holidays ...Holiday) *StaticProvider {
	return &StaticProvider{holidays: holidays}
}

func (p *StaticProvider) Holidays(_ context.Context, _ string, start, end time.Time) ([]Holiday, error) {
	return filter(p.holidays, start, end), nil
}

// NopProvider reports no holidays.
type NopProvider struct{}

func (NopProvider) Holidays(context.Context, string, time.Time, time.Time) ([]Holiday, error) {
	return nil, nil
}

// LoadFile reads a YAML holiday calendar of the form
//
//	holidays:
//	  - date: 2025-01-26
//	    name: Republic Day
func LoadFile(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holiday file: %w", err)
	}

	var f struct {
		Holidays []struct {
			Date      string `yaml:"date"`
			Name      string `yaml:"name"`
			LocalName string `yaml:"local_name"`
		} `yaml:"holidays"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse holiday file: %w", err)
	}

	holidays := make([]Holiday, 0, len(f.Holidays))
	for _, h := range f.Holidays {
		d, err := time.Parse(DateLayout, strings.TrimSpace(h.Date))
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h.Name, err)
		}
		holidays = append(holidays, Holiday{Date: d, Name: h.Name, LocalName: h.LocalName})
	}
	return NewStaticProvider(holidays...), nil
}
