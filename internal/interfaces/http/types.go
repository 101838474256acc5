package httpinterface

import (
	"time"

	"github.com/tdex-network/fedbook/internal/core/application"
	"github.com/tdex-network/fedbook/internal/core/domain"
)

type loadingView struct {
	Book   bool `json:"book"`
	Limits bool `json:"limits"`
	Info   bool `json:"info"`
}

type coordinatorView struct {
	Profile   domain.CoordinatorProfile `json:"profile"`
	Enabled   bool                      `json:"enabled"`
	URL       string                    `json:"url"`
	Loading   loadingView               `json:"loading"`
	SizeLimit int64                     `json:"size_limit"`
	NumOrders int                       `json:"num_orders"`
	Info      *domain.Info              `json:"info,omitempty"`
}

func newCoordinatorView(c *application.Coordinator, now time.Time) coordinatorView {
	return coordinatorView{
		Profile: c.Profile(),
		Enabled: c.IsEnabled(),
		URL:     c.URL(),
		Loading: loadingView{
			Book:   c.IsLoadingBook(),
			Limits: c.IsLoadingLimits(),
			Info:   c.IsLoadingInfo(),
		},
		SizeLimit: int64(c.SizeLimit(now)),
		NumOrders: len(c.Book()),
		Info:      c.Info(),
	}
}

// settingsView is both the request and response body of the connection
// endpoints. Empty fields of a request leave the current settings untouched.
type settingsView struct {
	Network    string `json:"network"`
	Origin     string `json:"origin"`
	Connection string `json:"connection"`
	Selfhosted *bool  `json:"selfhosted,omitempty"`
}

func newSettingsView(s domain.Settings) settingsView {
	selfhosted := s.Selfhosted
	return settingsView{
		Network:    string(s.Network),
		Origin:     string(s.Origin),
		Connection: string(s.Connection),
		Selfhosted: &selfhosted,
	}
}

func (v settingsView) apply(s domain.Settings) domain.Settings {
	if v.Network != "" {
		s.Network = domain.Network(v.Network)
	}
	if v.Origin != "" {
		s.Origin = domain.Origin(v.Origin)
	}
	if v.Connection != "" {
		s.Connection = domain.ConnectionMode(v.Connection)
	}
	if v.Selfhosted != nil {
		s.Selfhosted = *v.Selfhosted
	}
	return s
}

type webhookView struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Endpoint  string `json:"endpoint"`
	IsSecured bool   `json:"is_secured"`
}
