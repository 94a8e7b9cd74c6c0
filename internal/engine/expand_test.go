package engine

import (
	"strings"
	"testing"
)

func TestExpandDependentAlertsPaymentProcessing(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	alerts := analyzer.ExpandDependentAlerts("Database CPU Alert", []string{"payment-processing"})

	expected := []string{
		"Billing Service Alert",
		"Billing Service Failure Alert",
		"Fraud Detection Alert",
		"Fraud Detection Failure Alert",
		"Order Management Alert",
		"Order Management Failure Alert",
		"Downstream Service Alert",
		"Cascade Failure Alert",
		"Payment Failure Alert",
		"Transaction Processing Alert",
	}
	for _, want := range expected {
		if !containsService(alerts, want) {
			t.Fatalf("missing %q in %v", want, alerts)
		}
	}
	if len(alerts) != len(expected) {
		t.Fatalf("got %d alerts, want %d: %v", len(alerts), len(expected), alerts)
	}
}

func TestExpandDependentAlertsExcludesSelfCaseInsensitive(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	alerts := analyzer.ExpandDependentAlerts("cascade failure alert", []string{"payment-processing"})
	for _, alert := range alerts {
		if strings.EqualFold(alert, "Cascade Failure Alert") {
			t.Fatalf("seed alert leaked into expansion: %v", alerts)
		}
	}
}

func TestExpandDependentAlertsNonCriticalOnly(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	if alerts := analyzer.ExpandDependentAlerts("Log Volume Alert", []string{"logging-service"}); len(alerts) != 0 {
		t.Fatalf("expected no dependent alerts, got %v", alerts)
	}
}

func TestExpandDependentAlertsDeduplicates(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	// payment-processing and fraud-detection share dependencies.
	alerts := analyzer.ExpandDependentAlerts("Checkout Latency Alert", []string{"payment-processing", "fraud-detection"})
	seen := make(map[string]struct{}, len(alerts))
	for _, alert := range alerts {
		if _, dup := seen[alert]; dup {
			t.Fatalf("duplicate label %q in %v", alert, alerts)
		}
		seen[alert] = struct{}{}
	}
}

func TestTitlecaseService(t *testing.T) {
	tests := map[string]string{
		"payment-processing": "Payment Processing",
		"billing-service":    "Billing Service",
		"cache":              "Cache",
	}
	for in, want := range tests {
		if got := titlecaseService(in); got != want {
			t.Fatalf("titlecaseService(%q) = %q, want %q", in, got, want)
		}
	}
}
