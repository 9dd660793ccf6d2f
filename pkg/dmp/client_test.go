package dmp_test

import (
	"testing"

	"github.com/cloudtechnologies/dmp-go/pkg/dmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientFromConfigDefaults(t *testing.T) {
	client, err := dmp.NewClientFromConfig(dmp.ClientConfig{
		Username: "etl@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, dmp.DefaultPartnerID, client.PartnerID())
}

func TestNewClientFromConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		config dmp.ClientConfig
	}{
		{"missing username", dmp.ClientConfig{Password: "s3cret"}},
		{"username not an email", dmp.ClientConfig{Username: "not-an-email", Password: "s3cret"}},
		{"missing password", dmp.ClientConfig{Username: "etl@example.com"}},
		{"negative rate", dmp.ClientConfig{Username: "etl@example.com", Password: "s3cret", Rate: -1}},
		{"bad base url", dmp.ClientConfig{Username: "etl@example.com", Password: "s3cret", BaseURL: "not a url"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dmp.NewClientFromConfig(tc.config)
			assert.Error(t, err)
		})
	}
}
