package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/tdex-network/fedbook/internal/core/domain"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// NetworkKey is the bitcoin network of the federation. Either "mainnet" or "testnet"
	NetworkKey = "NETWORK"
	// OriginKey is the transport used to reach coordinators. One of "clearnet", "onion" or "i2p"
	OriginKey = "ORIGIN"
	// SelfhostedKey makes every coordinator be reached through HOST_URL
	SelfhostedKey = "SELFHOSTED"
	// HostURLKey is the base url of the self-hosted client
	HostURLKey = "HOST_URL"
	// ConnectionKey is the source of the order book. Either "api" or "nostr"
	ConnectionKey = "CONNECTION"
	// ManifestPathKey is the path of the JSON or YAML federation manifest.
	// The embedded one is used if not set
	ManifestPathKey = "MANIFEST_PATH"
	// RelaysKey is the comma separated list of extra nostr relays to subscribe to
	RelaysKey = "RELAYS"
	// TorProxyKey is the address of the SOCKS5 proxy used for onion endpoints
	TorProxyKey = "TOR_PROXY"
	// PollIntervalKey is the interval in seconds between two refreshes of the
	// federation data
	PollIntervalKey = "POLL_INTERVAL"
	// RequestTimeoutKey are the milliseconds to wait for coordinator and
	// webhook responses before timeouts
	RequestTimeoutKey = "REQUEST_TIMEOUT"
	// RequestRateKey is the max number of requests per second sent to
	// coordinators, 0 means unlimited
	RequestRateKey = "REQUEST_RATE"
	// DbTypeKey is the type of repository. Either "badger" or "inmemory"
	DbTypeKey = "DB_TYPE"
	// ListeningPortKey is the port where the HTTP interface will listen on
	ListeningPortKey = "LISTENING_PORT"
	// WebhookEndpointsKey is the comma separated list of endpoints notified
	// of every federation update at startup
	WebhookEndpointsKey = "WEBHOOK_ENDPOINTS"
	// WebhookSecretKey is the secret used to sign webhook requests
	WebhookSecretKey = "WEBHOOK_SECRET"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval in seconds for printing basic statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	ProfilerLocation = "stats"

	DbTypeBadger   = "badger"
	DbTypeInmemory = "inmemory"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("fedbook", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("FEDBOOK")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(NetworkKey, string(domain.NetworkMainnet))
	vip.SetDefault(OriginKey, string(domain.OriginClearnet))
	vip.SetDefault(SelfhostedKey, false)
	vip.SetDefault(HostURLKey, "http://127.0.0.1:12596")
	vip.SetDefault(ConnectionKey, string(domain.ConnectionAPI))
	vip.SetDefault(PollIntervalKey, 60)
	vip.SetDefault(RequestTimeoutKey, 15000)
	vip.SetDefault(RequestRateKey, 0)
	vip.SetDefault(DbTypeKey, DbTypeBadger)
	vip.SetDefault(ListeningPortKey, 9945)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}
}

// GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

// GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

// GetDuration ...
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

// GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetSettings returns the client settings the federation starts with.
func GetSettings() domain.Settings {
	return domain.Settings{
		Network:    domain.Network(GetString(NetworkKey)),
		Origin:     domain.Origin(GetString(OriginKey)),
		Selfhosted: GetBool(SelfhostedKey),
		Connection: domain.ConnectionMode(GetString(ConnectionKey)),
	}
}

// GetRelays returns the extra relays to subscribe to in nostr mode.
func GetRelays() []string {
	return splitList(GetString(RelaysKey))
}

// GetWebhookEndpoints returns the endpoints to register at startup.
func GetWebhookEndpoints() []string {
	return splitList(GetString(WebhookEndpointsKey))
}

// GetPollInterval ...
func GetPollInterval() time.Duration {
	return time.Duration(GetInt(PollIntervalKey)) * time.Second
}

// GetRequestTimeout ...
func GetRequestTimeout() time.Duration {
	return time.Duration(GetInt(RequestTimeoutKey)) * time.Millisecond
}

// GetStatsInterval ...
func GetStatsInterval() time.Duration {
	return time.Duration(GetInt(StatsIntervalKey)) * time.Second
}

// Validate checks the current configuration. It's exported to revalidate
// values overridden with Set.
func Validate() error {
	return validate()
}

// InitDatadir creates the directories the daemon writes to.
func InitDatadir() error {
	datadir := GetDatadir()
	if GetString(DbTypeKey) == DbTypeBadger {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
			return err
		}
	}

	if GetBool(EnableProfilerKey) {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	settings := GetSettings()
	if err := settings.Network.Validate(); err != nil {
		return fmt.Errorf(
			"network must be either '%s' or '%s'",
			domain.NetworkMainnet, domain.NetworkTestnet,
		)
	}
	if err := settings.Origin.Validate(); err != nil {
		return fmt.Errorf(
			"origin must be one of '%s', '%s' or '%s'",
			domain.OriginClearnet, domain.OriginOnion, domain.OriginI2P,
		)
	}
	if err := settings.Connection.Validate(); err != nil {
		return fmt.Errorf(
			"connection must be either '%s' or '%s'",
			domain.ConnectionAPI, domain.ConnectionNostr,
		)
	}

	if settings.Selfhosted {
		if err := validateURL(GetString(HostURLKey)); err != nil {
			return fmt.Errorf("host url is not valid: %s", err)
		}
	}

	for _, relay := range GetRelays() {
		u, err := url.Parse(relay)
		if err != nil {
			return fmt.Errorf("relay %s is not a valid url: %s", relay, err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("relay %s must use ws or wss scheme", relay)
		}
	}

	for _, endpoint := range GetWebhookEndpoints() {
		if err := validateURL(endpoint); err != nil {
			return fmt.Errorf("webhook endpoint %s is not valid: %s", endpoint, err)
		}
	}

	dbType := GetString(DbTypeKey)
	if dbType != DbTypeBadger && dbType != DbTypeInmemory {
		return fmt.Errorf(
			"db type must be either '%s' or '%s'", DbTypeBadger, DbTypeInmemory,
		)
	}

	if GetInt(PollIntervalKey) <= 0 {
		return fmt.Errorf("poll interval must be a positive number")
	}
	if GetInt(RequestTimeoutKey) <= 0 {
		return fmt.Errorf("request timeout must be a positive number")
	}
	if GetInt(RequestRateKey) < 0 {
		return fmt.Errorf("request rate must not be a negative number")
	}
	if port := GetInt(ListeningPortKey); port <= 0 || port > 65535 {
		return fmt.Errorf("listening port must be in range [1, 65535]")
	}
	return nil
}

func validateURL(str string) error {
	u, err := url.Parse(str)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func splitList(str string) []string {
	list := make([]string, 0)
	for _, s := range strings.Split(str, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	return list
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
