package registry

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deployguard/impact-engine/internal/utils"
)

// ServiceRegistry holds the static service topology used by the impact
// engine: which services are considered critical, how strongly each service
// weighs in customer-impact estimation, and which services each one depends
// on. It is immutable after construction and safe for concurrent reads.
type ServiceRegistry struct {
	critical     map[string]struct{}
	multipliers  map[string]float64
	dependencies map[string][]string
}

type registryFile struct {
	CriticalServices  []string            `yaml:"critical_services"`
	ImpactMultipliers map[string]float64  `yaml:"impact_multipliers"`
	Dependencies      map[string][]string `yaml:"dependencies"`
}

// defaultCriticalServices lists the service identifiers with high customer
// impact.
var defaultCriticalServices = []string{
	"payment-processing",
	"user-authentication",
	"order-management",
	"billing-service",
	"fraud-detection",
	"inventory-system",
	"checkout-service",
	"account-service",
}

var defaultMultipliers = map[string]float64{
	"payment-processing":  5.0,
	"user-authentication": 4.0,
	"order-management":    3.5,
	"billing-service":     3.0,
	"fraud-detection":     2.5,
	"inventory-system":    2.0,
	"checkout-service":    4.5,
	"account-service":     3.5,
	"logging-service":     0.1,
	"monitoring-service":  0.2,
	"analytics-service":   0.3,
}

var defaultDependencies = map[string][]string{
	"payment-processing":  {"billing-service", "fraud-detection", "order-management"},
	"user-authentication": {"account-service", "order-management", "checkout-service"},
	"order-management":    {"inventory-system", "payment-processing", "checkout-service"},
	"billing-service":     {"payment-processing", "account-service"},
	"fraud-detection":     {"payment-processing", "order-management"},
	"inventory-system":    {"order-management", "checkout-service"},
	"checkout-service":    {"payment-processing", "inventory-system", "user-authentication"},
	"account-service":     {"user-authentication", "billing-service"},
}

// Default returns a registry populated with the built-in topology.
func Default() *ServiceRegistry {
	return build(defaultCriticalServices, defaultMultipliers, defaultDependencies)
}

// Load reads a registry override from a YAML file. An empty path or a
// missing file yields the built-in defaults; sections left empty in the file
// also fall back to their defaults.
func Load(path string) (*ServiceRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, utils.NewAppError("registry.Load", "read registry file", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, utils.NewAppError("registry.Load", "parse registry file", err)
	}

	critical := file.CriticalServices
	if len(critical) == 0 {
		critical = defaultCriticalServices
	}
	multipliers := file.ImpactMultipliers
	if len(multipliers) == 0 {
		multipliers = defaultMultipliers
	}
	dependencies := file.Dependencies
	if len(dependencies) == 0 {
		dependencies = defaultDependencies
	}
	return build(critical, multipliers, dependencies), nil
}

func build(critical []string, multipliers map[string]float64, dependencies map[string][]string) *ServiceRegistry {
	r := &ServiceRegistry{
		critical:     make(map[string]struct{}, len(critical)),
		multipliers:  make(map[string]float64, len(multipliers)),
		dependencies: make(map[string][]string, len(dependencies)),
	}
	for _, svc := range critical {
		r.critical[svc] = struct{}{}
	}
	for svc, m := range multipliers {
		r.multipliers[svc] = m
	}
	for svc, deps := range dependencies {
		r.dependencies[svc] = append([]string(nil), deps...)
	}
	return r
}

// IsCritical reports whether the service is flagged as high customer impact.
func (r *ServiceRegistry) IsCritical(service string) bool {
	_, ok := r.critical[service]
	return ok
}

// Multiplier returns the impact multiplier for a service, defaulting to 1.0
// for unlisted services.
func (r *ServiceRegistry) Multiplier(service string) float64 {
	if m, ok := r.multipliers[service]; ok {
		return m
	}
	return 1.0
}

// Dependencies returns the services the given service depends on. The
// returned slice must not be mutated by callers.
func (r *ServiceRegistry) Dependencies(service string) []string {
	return r.dependencies[service]
}
