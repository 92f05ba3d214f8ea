package main

import (
	"testing"

	"waybilltrack/backend/internal/config"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigRejectsShortWebhookSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		AuthSecret:    "0123456789abcdef0123456789abcdef",
		WebhookURL:    "http://localhost:5000/api/webhooks/incoming-update",
		WebhookSecret: "tiny",
	})
	if err == nil {
		t.Fatalf("expected short webhook secret to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		AuthSecret:    "0123456789abcdef0123456789abcdef",
		WebhookURL:    "http://localhost:5000/api/webhooks/incoming-update",
		WebhookSecret: "webhook-secret-0123",
	})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
	if err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"}); err != nil {
		t.Fatalf("expected config without webhook to pass, got %v", err)
	}
}
