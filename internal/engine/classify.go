package engine

// ClassifyCritical filters the affected services down to those flagged as
// critical in the registry, preserving input order. Nil input yields an
// empty result.
func (a *Analyzer) ClassifyCritical(affectedServices []string) []string {
	critical := make([]string, 0, len(affectedServices))
	for _, service := range affectedServices {
		if a.registry.IsCritical(service) {
			critical = append(critical, service)
		}
	}
	return critical
}
