package classify

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deployguard/impact-engine/internal/models"
	"github.com/deployguard/impact-engine/internal/utils"
)

// Rule maps alert-name keywords to an alert type and the services that class
// of alert typically touches. Rules are evaluated in order; the first rule
// with a matching keyword wins.
type Rule struct {
	Keywords  []string         `yaml:"keywords"`
	AlertType models.AlertType `yaml:"alert_type"`
	Services  []string         `yaml:"services"`
}

// Classifier derives an alert type and affected-service list from an alert
// name when the caller supplies neither. It is immutable after construction.
type Classifier struct {
	rules    []Rule
	fallback Rule
}

var defaultRules = []Rule{
	{
		Keywords:  []string{"database", "db"},
		AlertType: models.AlertTypeDatabase,
		Services:  []string{"payment-processing", "user-authentication", "order-management"},
	},
	{
		Keywords:  []string{"payment", "billing"},
		AlertType: models.AlertTypePayment,
		Services:  []string{"payment-processing", "billing-service", "fraud-detection"},
	},
	{
		Keywords:  []string{"auth", "login"},
		AlertType: models.AlertTypeAuthentication,
		Services:  []string{"user-authentication", "account-service"},
	},
	{
		Keywords:  []string{"log", "monitor"},
		AlertType: models.AlertTypeLogging,
		Services:  []string{"logging-service"},
	},
	{
		Keywords:  []string{"critical", "production"},
		AlertType: models.AlertTypeCritical,
		Services:  []string{"payment-processing", "user-authentication", "order-management"},
	},
}

var defaultFallback = Rule{
	AlertType: models.AlertTypeUnknown,
	Services:  []string{"logging-service"},
}

// NewClassifier returns a classifier with the built-in rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules, fallback: defaultFallback}
}

type rulesFile struct {
	Rules    []Rule `yaml:"rules"`
	Fallback *Rule  `yaml:"fallback"`
}

// Load reads a rule-table override from a YAML file. An empty path or a
// missing file yields the built-in rules.
func Load(path string) (*Classifier, error) {
	if path == "" {
		return NewClassifier(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewClassifier(), nil
		}
		return nil, utils.NewAppError("classify.Load", "read rules file", err)
	}
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, utils.NewAppError("classify.Load", "parse rules file", err)
	}

	c := NewClassifier()
	if len(file.Rules) > 0 {
		c.rules = file.Rules
	}
	if file.Fallback != nil {
		c.fallback = *file.Fallback
	}
	return c, nil
}

// Classify matches the alert name against the rule table and returns the
// inferred type and the services that class of alert typically affects.
// Matching is case-insensitive on substrings.
func (c *Classifier) Classify(alertName string) (models.AlertType, []string) {
	name := strings.ToLower(alertName)
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(name, strings.ToLower(keyword)) {
				return rule.AlertType, append([]string(nil), rule.Services...)
			}
		}
	}
	return c.fallback.AlertType, append([]string(nil), c.fallback.Services...)
}
