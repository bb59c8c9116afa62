package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// authorize returns an HTTP client for the Google APIs. A service account key
// is used as is. An OAuth2 client ID uses the tokens file, falling back to the
// interactive authorization code flow if the tokens file is missing.
func authorize(ctx context.Context, credentials, tokens string, scopes ...string) (*http.Client, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, err
	}

	var key struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(b, &key); err != nil {
		return nil, fmt.Errorf("invalid credentials file %v (%v)", credentials, err)
	}

	if key.Type == "service_account" {
		jwt, err := google.JWTConfigFromJSON(b, scopes...)
		if err != nil {
			return nil, err
		}

		return jwt.Client(ctx), nil
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, err
	}

	token, err := tokenFromFile(tokens)
	if err != nil {
		if token, err = tokenFromWeb(ctx, config); err != nil {
			return nil, err
		}

		if err := saveToken(tokens, token); err != nil {
			warnf("unable to cache OAuth2 token (%v)", err)
		}
	}

	return config.Client(ctx, token), nil
}

func tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	url := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	fmt.Printf("Go to the following link in your browser then type the authorization code:\n%v\n", url)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("unable to read authorization code (%v)", err)
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web (%v)", err)
	}

	return token, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	token := oauth2.Token{}
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	defer f.Close()

	infof("saving OAuth2 token to %v", path)

	return json.NewEncoder(f).Encode(token)
}
