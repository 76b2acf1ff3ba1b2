package rules

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

// ruleFile is the YAML document shape for bulk rule loading.
type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	ID               string                     `yaml:"id"`
	TxClasses        []docevent.Class           `yaml:"txClasses"`
	ObjectClass      docevent.Class             `yaml:"objectClass"`
	AttachedToClass  docevent.Class             `yaml:"attachedToClass"`
	Field            string                     `yaml:"field"`
	TxMatch          *predicateSpec             `yaml:"txMatch"`
	SpaceSubscribe   bool                       `yaml:"spaceSubscribe"`
	OnlyOwn          bool                       `yaml:"onlyOwn"`
	AllowedForAuthor bool                       `yaml:"allowedForAuthor"`
	Disabled         bool                       `yaml:"disabled"`
	Providers        map[docevent.ProviderID]bool `yaml:"providers"`
	Templates        *Templates                 `yaml:"templates"`
}

// predicateSpec decodes one predicate AST node. Exactly one key must be
// set per node.
type predicateSpec struct {
	FieldEquals *fieldEqualsSpec `yaml:"fieldEquals"`
	FieldChanged string          `yaml:"fieldChanged"`
	ClassIs     docevent.Class   `yaml:"classIs"`
	Not         *predicateSpec   `yaml:"not"`
	And         []predicateSpec  `yaml:"and"`
	Or          []predicateSpec  `yaml:"or"`
}

type fieldEqualsSpec struct {
	Field string `yaml:"field"`
	Value any    `yaml:"value"`
}

// LoadYAML registers every rule declared in the YAML stream. Loading is
// all-or-nothing in intent: the first invalid or duplicate rule aborts
// with an error, which callers should treat as fatal at startup.
func (r *Registry) LoadYAML(src io.Reader) error {
	var file ruleFile
	if err := yaml.NewDecoder(src).Decode(&file); err != nil {
		return fmt.Errorf("decode rules: %w", err)
	}

	for _, spec := range file.Rules {
		rule, err := spec.toRule()
		if err != nil {
			return err
		}
		if err := r.Register(rule); err != nil {
			return err
		}
	}
	return nil
}

func (s ruleSpec) toRule() (Rule, error) {
	rule := Rule{
		ID:               s.ID,
		TxClasses:        s.TxClasses,
		ObjectClass:      s.ObjectClass,
		AttachedToClass:  s.AttachedToClass,
		Field:            s.Field,
		SpaceSubscribe:   s.SpaceSubscribe,
		OnlyOwn:          s.OnlyOwn,
		AllowedForAuthor: s.AllowedForAuthor,
		Disabled:         s.Disabled,
		Providers:        s.Providers,
		Templates:        s.Templates,
	}

	if s.TxMatch != nil {
		pred, err := s.TxMatch.toPredicate()
		if err != nil {
			return Rule{}, fmt.Errorf("rule %q: %w", s.ID, err)
		}
		rule.TxMatch = pred
	}
	return rule, nil
}

func (s predicateSpec) toPredicate() (Predicate, error) {
	var (
		pred Predicate
		set  int
	)

	if s.FieldEquals != nil {
		pred = FieldEquals{Field: s.FieldEquals.Field, Value: s.FieldEquals.Value}
		set++
	}
	if s.FieldChanged != "" {
		pred = FieldChanged{Field: s.FieldChanged}
		set++
	}
	if s.ClassIs != "" {
		pred = ClassIs{Class: s.ClassIs}
		set++
	}
	if s.Not != nil {
		child, err := s.Not.toPredicate()
		if err != nil {
			return nil, err
		}
		pred = Not{P: child}
		set++
	}
	if len(s.And) > 0 {
		children, err := toPredicates(s.And)
		if err != nil {
			return nil, err
		}
		pred = And(children)
		set++
	}
	if len(s.Or) > 0 {
		children, err := toPredicates(s.Or)
		if err != nil {
			return nil, err
		}
		pred = Or(children)
		set++
	}

	if set != 1 {
		return nil, fmt.Errorf("%w: exactly one node kind required, got %d", ErrInvalidPredicate, set)
	}
	return pred, nil
}

func toPredicates(specs []predicateSpec) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(specs))
	for _, spec := range specs {
		p, err := spec.toPredicate()
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}
