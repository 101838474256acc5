package config

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/tdex-network/fedbook/internal/core/domain"
)

//go:embed federation.json
var defaultManifest []byte

// Manifest lists the coordinators of the federation, the allowed
// third-party order sources and the relays every client subscribes to.
type Manifest struct {
	Coordinators []domain.CoordinatorProfile `mapstructure:"coordinators"`
	ThirdParties []domain.CoordinatorProfile `mapstructure:"thirdParties"`
	Relays       []string                    `mapstructure:"relays"`
}

// GetManifest loads the manifest at MANIFEST_PATH, if set, or the embedded
// one otherwise. Relays from RELAYS are appended to those of the manifest.
func GetManifest() (*Manifest, error) {
	manifest, err := LoadManifest(GetString(ManifestPathKey))
	if err != nil {
		return nil, err
	}
	manifest.Relays = append(manifest.Relays, GetRelays()...)
	return manifest, nil
}

// LoadManifest parses the JSON or YAML manifest at the given path. The
// format is inferred from the file extension. An empty path loads the
// embedded manifest.
func LoadManifest(path string) (*Manifest, error) {
	v := viper.New()
	if path == "" {
		v.SetConfigType("json")
		if err := v.ReadConfig(bytes.NewReader(defaultManifest)); err != nil {
			return nil, fmt.Errorf("failed to read embedded manifest: %s", err)
		}
	} else {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext != "json" && ext != "yaml" && ext != "yml" {
			return nil, fmt.Errorf("manifest must be either a json or yaml file")
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read manifest %s: %s", path, err)
		}
	}

	manifest := &Manifest{}
	if err := v.Unmarshal(manifest, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
	)); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %s", err)
	}

	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	if len(m.Coordinators) <= 0 {
		return fmt.Errorf("manifest must list at least one coordinator")
	}

	aliases := make(map[string]bool)
	profiles := append(
		append([]domain.CoordinatorProfile{}, m.Coordinators...), m.ThirdParties...,
	)
	for i, p := range profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid manifest entry %d: %w", i, err)
		}
		if err := validateNostrPubkey(p.NostrHexPubkey); err != nil {
			return fmt.Errorf("invalid nostr pubkey of %s: %s", p.ShortAlias, err)
		}
		if aliases[p.ShortAlias] {
			return fmt.Errorf("duplicated alias %s in manifest", p.ShortAlias)
		}
		aliases[p.ShortAlias] = true
	}
	return nil
}

// validateNostrPubkey makes sure a non empty key is a BIP-340 x-only public
// key, otherwise no relay event of the coordinator would ever be accepted.
func validateNostrPubkey(pubkey string) error {
	if pubkey == "" {
		return nil
	}
	buf, err := hex.DecodeString(pubkey)
	if err != nil {
		return err
	}
	_, err = schnorr.ParsePubKey(buf)
	return err
}
