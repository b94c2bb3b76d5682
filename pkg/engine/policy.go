package engine

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/model/errs"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"gopkg.in/yaml.v3"
)

// TimeoutPolicy returns how long an alert may sit at a tier before escalating.
// It is injected configuration: the engine never hardcodes durations.
type TimeoutPolicy func(urgency types.Urgency, tier int) time.Duration

// PolicyTable is the deployer-supplied timeout configuration. Each urgency
// maps to per-tier durations; tiers beyond the list reuse the last entry, and
// urgencies without an entry fall back to Default.
type PolicyTable struct {
	Urgencies map[types.Urgency][]time.Duration
	Default   []time.Duration
}

// Duration implements TimeoutPolicy.
func (t *PolicyTable) Duration(urgency types.Urgency, tier int) time.Duration {
	durations, ok := t.Urgencies[urgency]
	if !ok || len(durations) == 0 {
		durations = t.Default
	}
	if tier < 1 {
		tier = 1
	}
	if tier > len(durations) {
		tier = len(durations)
	}
	return durations[tier-1]
}

func (t *PolicyTable) Validate() error {
	if len(t.Default) == 0 {
		return goerr.New("policy table needs a default tier duration list", goerr.T(errs.TagValidation))
	}
	check := func(urgency types.Urgency, durations []time.Duration) error {
		for i, d := range durations {
			if d <= 0 {
				return goerr.New("tier durations must be positive",
					goerr.T(errs.TagValidation),
					goerr.V("urgency", int(urgency)),
					goerr.V("tier", i+1),
					goerr.V("duration", d.String()),
				)
			}
		}
		return nil
	}
	if err := check(0, t.Default); err != nil {
		return err
	}
	for urgency, durations := range t.Urgencies {
		if err := urgency.Validate(); err != nil {
			return err
		}
		if err := check(urgency, durations); err != nil {
			return err
		}
	}
	return nil
}

type policyFile struct {
	Urgencies map[int][]string `yaml:"urgencies"`
	Default   []string         `yaml:"default"`
}

// LoadPolicyTable reads a YAML timeout table, e.g.:
//
//	default: [2m, 2m, 2m]
//	urgencies:
//	  1: [60s, 90s, 60s]
//	  5: [5m, 5m, 5m]
func LoadPolicyTable(path string) (*PolicyTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", path))
	}
	return ParsePolicyTable(raw)
}

func ParsePolicyTable(raw []byte) (*PolicyTable, error) {
	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse policy file", goerr.T(errs.TagValidation))
	}

	table := &PolicyTable{
		Urgencies: make(map[types.Urgency][]time.Duration, len(file.Urgencies)),
	}
	parse := func(values []string) ([]time.Duration, error) {
		durations := make([]time.Duration, len(values))
		for i, v := range values {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid duration in policy file",
					goerr.T(errs.TagValidation), goerr.V("value", v))
			}
			durations[i] = d
		}
		return durations, nil
	}

	var err error
	if table.Default, err = parse(file.Default); err != nil {
		return nil, err
	}
	for urgency, values := range file.Urgencies {
		durations, err := parse(values)
		if err != nil {
			return nil, err
		}
		table.Urgencies[types.Urgency(urgency)] = durations
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// DefaultPolicyTable is used by the local demo mode and tests. Production
// deployments supply their own table.
func DefaultPolicyTable() *PolicyTable {
	return &PolicyTable{
		Urgencies: map[types.Urgency][]time.Duration{
			1: {time.Minute, 90 * time.Second, time.Minute},
			2: {2 * time.Minute, 2 * time.Minute, 90 * time.Second},
		},
		Default: []time.Duration{5 * time.Minute, 5 * time.Minute, 5 * time.Minute},
	}
}
