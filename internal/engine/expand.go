package engine

import "strings"

// ExpandDependentAlerts walks the dependency table for each affected service
// and synthesises the alert names plausibly triggered by the same root
// cause. The result is deduplicated with stable insertion order and excludes
// the seed alert name case-insensitively.
func (a *Analyzer) ExpandDependentAlerts(alertName string, affectedServices []string) []string {
	seen := make(map[string]struct{})
	alerts := make([]string, 0)
	add := func(label string) {
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		alerts = append(alerts, label)
	}

	for _, service := range affectedServices {
		for _, dependency := range a.registry.Dependencies(service) {
			if !a.registry.IsCritical(dependency) {
				continue
			}
			title := titlecaseService(dependency)
			add(title + " Alert")
			add(title + " Failure Alert")
		}
	}

	criticalServices := a.ClassifyCritical(affectedServices)
	if len(criticalServices) > 0 {
		add("Downstream Service Alert")
		add("Cascade Failure Alert")

		if containsService(criticalServices, "payment-processing") {
			add("Payment Failure Alert")
			add("Transaction Processing Alert")
		}
		if containsService(criticalServices, "user-authentication") {
			add("Auth Service Down Alert")
			add("Login Failure Alert")
		}
	}

	filtered := alerts[:0]
	for _, label := range alerts {
		if strings.EqualFold(label, alertName) {
			continue
		}
		filtered = append(filtered, label)
	}
	return filtered
}

func containsService(services []string, target string) bool {
	for _, s := range services {
		if s == target {
			return true
		}
	}
	return false
}

// titlecaseService turns a service identifier like "payment-processing" into
// "Payment Processing".
func titlecaseService(service string) string {
	words := strings.Split(strings.ReplaceAll(service, "-", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
