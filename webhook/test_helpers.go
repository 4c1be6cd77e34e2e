package webhook

import "github.com/stretchr/testify/mock"

// MatchRegistration creates a custom matcher for registration arguments in mocks
func MatchRegistration(matcher func(Registration) bool) interface{} {
	return mock.MatchedBy(matcher)
}

// MatchWebhookType creates a custom matcher for webhook type arguments in mocks
func MatchWebhookType(matcher func(WebhookType) bool) interface{} {
	return mock.MatchedBy(matcher)
}
