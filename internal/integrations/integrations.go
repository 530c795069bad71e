// Package integrations builds the adapter registry from configuration.
package integrations

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/apple"
	"github.com/taishi0307/RumHabit/internal/config"
	"github.com/taishi0307/RumHabit/internal/fitbit"
	"github.com/taishi0307/RumHabit/internal/garmin"
	"github.com/taishi0307/RumHabit/internal/googlefit"
	"github.com/taishi0307/RumHabit/internal/huawei"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
	"github.com/taishi0307/RumHabit/internal/trainerroad"
	"github.com/taishi0307/RumHabit/internal/xiaomi"
)

// Set is the registry plus the Fitbit adapter, which the OAuth handlers use
// directly.
type Set struct {
	Registry *smartwatch.Registry
	Fitbit   *fitbit.Adapter
}

// NewRegistry builds every adapter. Registration order is the order brands
// are listed by the availability endpoint.
func NewRegistry(cfg config.Config, hc *http.Client, log logrus.FieldLogger) (*Set, error) {
	if hc == nil {
		hc = http.DefaultClient
	}

	hw, err := huawei.New(huawei.Config{
		ClientID:     cfg.Huawei.ClientID,
		ClientSecret: cfg.Huawei.ClientSecret,
	}, hc, log)
	if err != nil {
		return nil, err
	}

	gf, err := googlefit.New(googlefit.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
	}, hc, log)
	if err != nil {
		return nil, err
	}

	gm, err := garmin.New(garmin.Config{
		ConsumerKey:    cfg.Garmin.ClientID,
		ConsumerSecret: cfg.Garmin.ClientSecret,
	}, hc, log)
	if err != nil {
		return nil, err
	}

	fb, err := fitbit.New(fitbit.Config{
		ClientID:      cfg.Fitbit.ClientID,
		ClientSecret:  cfg.Fitbit.ClientSecret,
		RedirectURI:   cfg.Fitbit.RedirectURI,
		LocationScope: cfg.Fitbit.LocationScope,
	}, hc, log)
	if err != nil {
		return nil, err
	}

	tr := trainerroad.New(trainerroad.Config{
		BaseURL: cfg.TrainerRoad.BaseURL,
		CalID:   cfg.TrainerRoad.CalID,
	}, hc, log)

	reg := smartwatch.NewRegistry(
		apple.New(),
		hw,
		xiaomi.New(gf),
		gm,
		gf,
		fb,
		tr,
	)
	return &Set{Registry: reg, Fitbit: fb}, nil
}
