package sheets

import (
	"context"
	"os"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

var readOnlyScopes = []string{
	"https://www.googleapis.com/auth/spreadsheets.readonly",
	"https://www.googleapis.com/auth/drive.readonly",
}

type CredentialsConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// TokenFile is an authorized-user JSON file, as written by the Google
	// OAuth desktop flow. Its values fill in whatever the env left empty.
	TokenFile string
	TokenURL  string
}

// authorizedUser mirrors the token file layout.
type authorizedUser struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	TokenURI     string `json:"token_uri"`
}

// NewTokenSource returns nil with no error when no refresh token is
// available, so the gateway reports itself unauthenticated.
func NewTokenSource(ctx context.Context, cfg CredentialsConfig) (oauth2.TokenSource, error) {
	if path := strings.TrimSpace(cfg.TokenFile); path != "" {
		file, err := readAuthorizedUser(path)
		if err != nil {
			return nil, err
		}
		cfg.ClientID = firstNonEmpty(cfg.ClientID, file.ClientID)
		cfg.ClientSecret = firstNonEmpty(cfg.ClientSecret, file.ClientSecret)
		cfg.RefreshToken = firstNonEmpty(cfg.RefreshToken, file.RefreshToken)
		cfg.TokenURL = firstNonEmpty(cfg.TokenURL, file.TokenURI)
	}
	if strings.TrimSpace(cfg.RefreshToken) == "" {
		return nil, nil
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, crerr.New("google client id and secret are required with a refresh token")
	}

	conf := &oauth2.Config{
		ClientID:     strings.TrimSpace(cfg.ClientID),
		ClientSecret: strings.TrimSpace(cfg.ClientSecret),
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: firstNonEmpty(cfg.TokenURL, googleTokenURL),
		},
		Scopes: readOnlyScopes,
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: strings.TrimSpace(cfg.RefreshToken)}), nil
}

func readAuthorizedUser(path string) (authorizedUser, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return authorizedUser{}, nil
		}
		return authorizedUser{}, crerr.Wrapf(err, "read google token file %s", path)
	}
	var out authorizedUser
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return authorizedUser{}, crerr.Wrapf(err, "decode google token file %s", path)
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
