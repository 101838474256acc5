package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/fedbook/config"
	"github.com/tdex-network/fedbook/internal/core/domain"
)

const (
	templePubkey = "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

	jsonManifest = `{
  "coordinators": [
    {
      "shortAlias": "temple",
      "longAlias": "Temple of Sats",
      "established": "2023-06-01T00:00:00Z",
      "federated": true,
      "nostrHexPubkey": "` + templePubkey + `",
      "policies": {"fees": "none"},
      "badges": {"isFounder": true, "donatesToDevFund": 20},
      "mainnet": {"clearnet": "https://temple.test", "onion": "http://temple.onion"}
    },
    {
      "shortAlias": "lake",
      "established": "2024-01-01T00:00:00Z",
      "federated": true,
      "testnet": {"clearnet": "https://test.lake.test"}
    }
  ],
  "thirdParties": [{"shortAlias": "mostro"}],
  "relays": ["wss://relay.test"]
}`

	yamlManifest = `coordinators:
  - shortAlias: temple
    established: "2023-06-01T00:00:00Z"
    federated: true
    mainnet:
      clearnet: https://temple.test
relays:
  - wss://relay.test
`
)

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	t.Run("embedded", func(t *testing.T) {
		t.Parallel()

		manifest, err := config.LoadManifest("")
		require.NoError(t, err)
		require.Len(t, manifest.Coordinators, 1)
		require.Equal(t, domain.LocalAlias, manifest.Coordinators[0].ShortAlias)
		require.Empty(t, manifest.ThirdParties)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		path := writeManifest(t, "federation.json", jsonManifest)
		manifest, err := config.LoadManifest(path)
		require.NoError(t, err)
		require.Len(t, manifest.Coordinators, 2)

		temple := manifest.Coordinators[0]
		require.Equal(t, "temple", temple.ShortAlias)
		require.Equal(t, "Temple of Sats", temple.LongAlias)
		require.True(t, temple.Federated)
		require.True(t, temple.Badges.IsFounder)
		require.Equal(t, 20, temple.Badges.DonatesToDevFund)
		require.Equal(t, templePubkey, temple.NostrHexPubkey)
		require.Equal(t, "none", temple.Policies["fees"])
		require.Equal(t, "http://temple.onion", temple.Mainnet.Onion)
		require.True(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC).Equal(temple.Established))

		require.Equal(t, "https://test.lake.test", manifest.Coordinators[1].Testnet.Clearnet)
		require.Len(t, manifest.ThirdParties, 1)
		require.Equal(t, "mostro", manifest.ThirdParties[0].ShortAlias)
		require.Equal(t, []string{"wss://relay.test"}, manifest.Relays)
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		path := writeManifest(t, "federation.yaml", yamlManifest)
		manifest, err := config.LoadManifest(path)
		require.NoError(t, err)
		require.Len(t, manifest.Coordinators, 1)
		require.Equal(t, "https://temple.test", manifest.Coordinators[0].Mainnet.Clearnet)
		require.Equal(t, []string{"wss://relay.test"}, manifest.Relays)
	})
}

func TestFailingLoadManifest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{
			name:     "unsupported_extension",
			filename: "federation.toml",
			content:  "",
		},
		{
			name:     "no_coordinators",
			filename: "federation.json",
			content:  `{"coordinators": []}`,
		},
		{
			name:     "missing_alias",
			filename: "federation.json",
			content:  `{"coordinators": [{"longAlias": "Nameless"}]}`,
		},
		{
			name:     "duplicated_alias",
			filename: "federation.json",
			content:  `{"coordinators": [{"shortAlias": "temple"}], "thirdParties": [{"shortAlias": "temple"}]}`,
		},
		{
			name:     "malformed_nostr_pubkey",
			filename: "federation.json",
			content:  `{"coordinators": [{"shortAlias": "temple", "nostrHexPubkey": "templepubkey"}]}`,
		},
		{
			name:     "nostr_pubkey_off_curve",
			filename: "federation.json",
			content:  `{"coordinators": [{"shortAlias": "temple", "nostrHexPubkey": "` + strings.Repeat("f", 64) + `"}]}`,
		},
		{
			name:     "malformed_date",
			filename: "federation.json",
			content:  `{"coordinators": [{"shortAlias": "temple", "established": "yesterday"}]}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeManifest(t, tt.filename, tt.content)
			manifest, err := config.LoadManifest(path)
			require.Error(t, err)
			require.Nil(t, manifest)
		})
	}

	t.Run("missing_file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "federation.json")
		_, err := config.LoadManifest(path)
		require.Error(t, err)
	})
}

func TestDefaults(t *testing.T) {
	settings := config.GetSettings()
	require.Equal(t, domain.NetworkMainnet, settings.Network)
	require.Equal(t, domain.OriginClearnet, settings.Origin)
	require.Equal(t, domain.ConnectionAPI, settings.Connection)
	require.False(t, settings.Selfhosted)
	require.Equal(t, 60*time.Second, config.GetPollInterval())
	require.Equal(t, 15*time.Second, config.GetRequestTimeout())
	require.NoError(t, config.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"unknown_network", config.NetworkKey, "regtest"},
		{"unknown_origin", config.OriginKey, "carrier-pigeon"},
		{"unknown_connection", config.ConnectionKey, "grpc"},
		{"unknown_db_type", config.DbTypeKey, "postgres"},
		{"relay_scheme", config.RelaysKey, "https://relay.test"},
		{"webhook_scheme", config.WebhookEndpointsKey, "ftp://hook.test"},
		{"non_positive_poll_interval", config.PollIntervalKey, 0},
		{"port_out_of_range", config.ListeningPortKey, 70000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := config.GetString(tt.key)
			config.Set(tt.key, tt.value)
			t.Cleanup(func() { config.Set(tt.key, prev) })

			require.Error(t, config.Validate())
		})
	}
}

func TestLists(t *testing.T) {
	config.Set(config.RelaysKey, " wss://a.test, ,wss://b.test ")
	t.Cleanup(func() { config.Set(config.RelaysKey, "") })

	require.Equal(t, []string{"wss://a.test", "wss://b.test"}, config.GetRelays())
	require.Empty(t, config.GetWebhookEndpoints())
}

func writeManifest(t *testing.T, filename, content string) string {
	path := filepath.Join(t.TempDir(), filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
