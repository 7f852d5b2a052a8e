package subscription

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrPlanNotFound indicates no plan matches the lookup key.
var ErrPlanNotFound = errors.New("plan not found")

// Plan describes one recurring price offered to users.
type Plan struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	PriceID   string  `yaml:"price_id"` // provider price identifier
	AmountUSD float64 `yaml:"amount_usd"`
	Interval  string  `yaml:"interval"` // "month" or "year"
}

func (p Plan) validate() error {
	if p.ID == "" {
		return fmt.Errorf("plan: missing id")
	}
	if p.PriceID == "" {
		return fmt.Errorf("plan %q: missing price_id", p.ID)
	}
	if p.AmountUSD <= 0 {
		return fmt.Errorf("plan %q: amount must be positive", p.ID)
	}
	return nil
}

// PlanSource resolves the plan catalog.
type PlanSource interface {
	// Plans returns all offered plans in catalog order.
	Plans() []Plan

	// ByID returns the plan with the given catalog id.
	ByID(id string) (*Plan, error)

	// Default returns the plan offered when no explicit choice was made.
	Default() Plan
}

// StaticSource is a PlanSource over a fixed in-memory catalog. The first
// plan in the list is the default.
type StaticSource struct {
	plans []Plan
}

// NewStaticSource creates a plan source from a fixed list.
func NewStaticSource(plans ...Plan) (*StaticSource, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("plan catalog cannot be empty")
	}
	for _, p := range plans {
		if err := p.validate(); err != nil {
			return nil, err
		}
	}
	return &StaticSource{plans: plans}, nil
}

func (s *StaticSource) Plans() []Plan {
	out := make([]Plan, len(s.plans))
	copy(out, s.plans)
	return out
}

func (s *StaticSource) ByID(id string) (*Plan, error) {
	for _, p := range s.plans {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrPlanNotFound
}

func (s *StaticSource) Default() Plan {
	return s.plans[0]
}

// LoadPlansFile reads a YAML plan catalog from disk.
//
// The file format is a list under a top-level "plans" key:
//
//	plans:
//	  - id: monthly
//	    name: Monthly supporter
//	    price_id: price_123
//	    amount_usd: 4.99
//	    interval: month
func LoadPlansFile(path string) (*StaticSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	return NewStaticSource(doc.Plans...)
}
