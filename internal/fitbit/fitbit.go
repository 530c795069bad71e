// Package fitbit implements the Fitbit OAuth2 authorization-code flow and
// activity-log retrieval, normalizing activities into workout records.
package fitbit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/taishi0307/RumHabit/internal/client"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
)

// Brand is the registry name of the Fitbit adapter.
const Brand = "Fitbit"

var (
	AuthURL  = "https://www.fitbit.com/oauth2/authorize"
	TokenURL = "https://api.fitbit.com/oauth2/token"
	BaseURL  = "https://api.fitbit.com"
)

// Config holds the Fitbit application credentials. Empty endpoint fields
// fall back to the package defaults.
type Config struct {
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	LocationScope bool

	AuthURL  string
	TokenURL string
	BaseURL  string
}

// Adapter is the Fitbit implementation of smartwatch.Adapter.
type Adapter struct {
	cfg Config
	hc  *http.Client
	api *client.Client
	log logrus.FieldLogger
}

var _ smartwatch.Adapter = (*Adapter)(nil)

// New returns a Fitbit adapter. A nil http.Client uses http.DefaultClient.
func New(cfg Config, hc *http.Client, log logrus.FieldLogger) (*Adapter, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = AuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = TokenURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing fitbit base URL: %w", err)
	}
	return &Adapter{
		cfg: cfg,
		hc:  hc,
		api: client.NewClient(base, hc),
		log: log.WithField("brand", Brand),
	}, nil
}

// Brand implements smartwatch.Adapter.
func (a *Adapter) Brand() string { return Brand }

// IsAvailable reports whether both client id and secret are configured.
func (a *Adapter) IsAvailable() bool {
	return a.cfg.ClientID != "" && a.cfg.ClientSecret != ""
}

// RedirectURI returns the configured redirect URI, if any.
func (a *Adapter) RedirectURI() string { return a.cfg.RedirectURI }

// Authenticate builds the authorization URL when creds carry no code and
// exchanges the code for an access token otherwise. Empty credential fields
// fall back to the adapter configuration.
func (a *Adapter) Authenticate(ctx context.Context, creds smartwatch.Credentials) (*smartwatch.AuthResult, error) {
	clientID := firstNonEmpty(creds.ClientID, a.cfg.ClientID)
	redirectURI := firstNonEmpty(creds.RedirectURI, a.cfg.RedirectURI)
	if creds.Code == "" {
		if clientID == "" {
			return nil, fmt.Errorf("fitbit client id: %w", smartwatch.ErrNotConfigured)
		}
		return &smartwatch.AuthResult{AuthURL: BuildAuthURL(a.cfg.AuthURL, clientID, redirectURI, a.cfg.LocationScope)}, nil
	}

	token, err := a.exchange(ctx, clientID, firstNonEmpty(creds.ClientSecret, a.cfg.ClientSecret), redirectURI, creds.Code)
	if err != nil {
		return nil, err
	}
	return &smartwatch.AuthResult{AccessToken: token}, nil
}

// AuthURL returns the authorization URL for the configured client id.
func (a *Adapter) AuthURL(redirectURI string) (string, error) {
	if a.cfg.ClientID == "" {
		return "", fmt.Errorf("fitbit client id: %w", smartwatch.ErrNotConfigured)
	}
	return BuildAuthURL(a.cfg.AuthURL, a.cfg.ClientID, redirectURI, a.cfg.LocationScope), nil
}

// Exchange trades an authorization code for an access token using the
// configured credentials.
func (a *Adapter) Exchange(ctx context.Context, code, redirectURI string) (string, error) {
	return a.exchange(ctx, a.cfg.ClientID, a.cfg.ClientSecret, redirectURI, code)
}

// BuildAuthURL returns the Fitbit authorization URL. The parameter order is
// fixed so identical inputs always produce identical URLs.
func BuildAuthURL(endpoint, clientID, redirectURI string, locationScope bool) string {
	scopes := []string{"activity", "heartrate", "profile"}
	if locationScope {
		scopes = append(scopes, "location")
	}

	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteString("?client_id=")
	b.WriteString(url.QueryEscape(clientID))
	b.WriteString("&response_type=code")
	b.WriteString("&redirect_uri=")
	b.WriteString(url.QueryEscape(redirectURI))
	b.WriteString("&scope=")
	b.WriteString(url.PathEscape(strings.Join(scopes, " ")))
	return b.String()
}

func (a *Adapter) exchange(ctx context.Context, clientID, clientSecret, redirectURI, code string) (string, error) {
	if clientID == "" || clientSecret == "" {
		return "", fmt.Errorf("fitbit client credentials: %w", smartwatch.ErrNotConfigured)
	}

	oc := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.cfg.AuthURL,
			TokenURL:  a.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		RedirectURL: redirectURI,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.hc)
	token, err := oc.Exchange(ctx, code, oauth2.SetAuthURLParam("client_id", clientID))
	if err != nil {
		return "", smartwatch.WrapOAuth2Error(Brand, err)
	}

	a.log.WithField("expiry", token.Expiry).Info("exchanged fitbit authorization code")
	return token.AccessToken, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
