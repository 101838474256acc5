package domain

import (
	"math"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
)

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"

	OriginClearnet Origin = "clearnet"
	OriginOnion    Origin = "onion"
	OriginI2P      Origin = "i2p"

	ConnectionAPI   ConnectionMode = "api"
	ConnectionNostr ConnectionMode = "nostr"

	// LocalAlias is the alias of a coordinator running on the same host of
	// the client, that is never reached through the self-hosted proxy.
	LocalAlias = "local"
)

const (
	// SizeLimitFloor is the max order size of a brand new coordinator.
	SizeLimitFloor = btcutil.Amount(1 * btcutil.SatoshiPerBitcoin)
	// SizeLimitCeiling is the max order size any coordinator can advertise.
	SizeLimitCeiling = btcutil.Amount(21 * btcutil.SatoshiPerBitcoin)

	difficultyPeriod     = 14 * 24 * time.Hour
	maxDifficultyPeriods = 12
	sizeLimitGrowth      = 1.3
)

// Network is the bitcoin network a client is running on.
type Network string

func (n Network) Validate() error {
	if n != NetworkMainnet && n != NetworkTestnet {
		return ErrUnknownNetwork
	}
	return nil
}

// Origin is the transport used to reach coordinators.
type Origin string

func (o Origin) Validate() error {
	switch o {
	case OriginClearnet, OriginOnion, OriginI2P:
		return nil
	default:
		return ErrUnknownOrigin
	}
}

// ConnectionMode selects the source of the federation book.
type ConnectionMode string

func (c ConnectionMode) Validate() error {
	if c != ConnectionAPI && c != ConnectionNostr {
		return ErrUnknownConnection
	}
	return nil
}

// Settings are the client preferences that affect how coordinators are
// reached.
type Settings struct {
	Network    Network
	Origin     Origin
	Selfhosted bool
	Connection ConnectionMode
}

// Endpoints are the base urls of a coordinator for every transport.
type Endpoints struct {
	Clearnet string `json:"clearnet" mapstructure:"clearnet"`
	Onion    string `json:"onion" mapstructure:"onion"`
	I2P      string `json:"i2p" mapstructure:"i2p"`
}

// URL returns the endpoint for the given origin, empty if not served.
func (e Endpoints) URL(origin Origin) string {
	switch origin {
	case OriginClearnet:
		return e.Clearnet
	case OriginOnion:
		return e.Onion
	case OriginI2P:
		return e.I2P
	default:
		return ""
	}
}

type Contact struct {
	Email    string `json:"email,omitempty" mapstructure:"email"`
	Telegram string `json:"telegram,omitempty" mapstructure:"telegram"`
	Twitter  string `json:"twitter,omitempty" mapstructure:"twitter"`
	Matrix   string `json:"matrix,omitempty" mapstructure:"matrix"`
	Nostr    string `json:"nostr,omitempty" mapstructure:"nostr"`
	Pgp      string `json:"pgp,omitempty" mapstructure:"pgp"`
	Website  string `json:"website,omitempty" mapstructure:"website"`
}

type Badges struct {
	IsFounder        bool `json:"isFounder" mapstructure:"isFounder"`
	DonatesToDevFund int  `json:"donatesToDevFund" mapstructure:"donatesToDevFund"`
	HasGoodOpSec     bool `json:"hasGoodOpSec" mapstructure:"hasGoodOpSec"`
	RobotsLove       bool `json:"robotsLove" mapstructure:"robotsLove"`
	HasLargeLimits   bool `json:"hasLargeLimits" mapstructure:"hasLargeLimits"`
}

// CoordinatorProfile is the static, read-only description of a federation
// member as found in the federation manifest.
type CoordinatorProfile struct {
	ShortAlias     string            `json:"shortAlias" mapstructure:"shortAlias"`
	LongAlias      string            `json:"longAlias" mapstructure:"longAlias"`
	Description    string            `json:"description" mapstructure:"description"`
	Motto          string            `json:"motto" mapstructure:"motto"`
	Established    time.Time         `json:"established" mapstructure:"established"`
	Federated      bool              `json:"federated" mapstructure:"federated"`
	NostrHexPubkey string            `json:"nostrHexPubkey" mapstructure:"nostrHexPubkey"`
	Contact        Contact           `json:"contact" mapstructure:"contact"`
	Policies       map[string]string `json:"policies" mapstructure:"policies"`
	Badges         Badges            `json:"badges" mapstructure:"badges"`
	Mainnet        Endpoints         `json:"mainnet" mapstructure:"mainnet"`
	Testnet        Endpoints         `json:"testnet" mapstructure:"testnet"`
}

func (p CoordinatorProfile) Validate() error {
	if strings.TrimSpace(p.ShortAlias) == "" {
		return ErrMissingShortAlias
	}
	return nil
}

// Endpoints returns the endpoints of the coordinator for the given network.
func (p CoordinatorProfile) Endpoints(network Network) Endpoints {
	if network == NetworkTestnet {
		return p.Testnet
	}
	return p.Mainnet
}

// ResolveURL selects the base url and path to reach the coordinator.
// Self-hosted clients proxy every coordinator through their host under the
// /<network>/<alias> path.
func (p CoordinatorProfile) ResolveURL(
	origin Origin, settings Settings, hostURL string,
) (url, basePath string) {
	if settings.Selfhosted && p.ShortAlias != LocalAlias {
		return strings.TrimSuffix(hostURL, "/"),
			"/" + string(settings.Network) + "/" + p.ShortAlias
	}
	return strings.TrimSuffix(p.Endpoints(settings.Network).URL(origin), "/"), ""
}

// RelayURL returns the websocket url of the relay served by the coordinator,
// empty if the coordinator has no endpoint for the given origin.
func (p CoordinatorProfile) RelayURL(network Network, origin Origin) string {
	return RelayURLFromBase(p.Endpoints(network).URL(origin))
}

// RelayURLFromBase maps the http(s) base url of a coordinator, or of a
// self-hosted client, to the url of its relay.
func RelayURLFromBase(url string) string {
	url = strings.TrimSuffix(url, "/")
	switch {
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://") + "/relay/"
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://") + "/relay/"
	default:
		return ""
	}
}

// SizeLimit returns the max order size the coordinator is allowed to
// advertise at the given time. It grows by 1.3x every two weeks since the
// coordinator was established, up to the ceiling reached after 12 periods.
// Founders are always granted the ceiling.
func (p CoordinatorProfile) SizeLimit(now time.Time) btcutil.Amount {
	if p.Badges.IsFounder {
		return SizeLimitCeiling
	}

	elapsed := now.Sub(p.Established)
	periods := math.Ceil(float64(elapsed) / float64(difficultyPeriod))
	if periods < 0 {
		periods = 0
	}
	if periods > maxDifficultyPeriods {
		periods = maxDifficultyPeriods
	}

	limit := float64(SizeLimitFloor) * math.Pow(sizeLimitGrowth, periods)
	return btcutil.Amount(math.Min(float64(SizeLimitCeiling), limit))
}
