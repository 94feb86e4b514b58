// Package firebase implements the real identity provider against the
// Identity Toolkit REST API. Provider-specific error strings are mapped to
// domain codes at this boundary; nothing past it sees raw provider detail.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	dErrors "elan/pkg/domain-errors"

	"elan/internal/identity/provider"
	"elan/internal/session/models"
)

const defaultEndpoint = "https://identitytoolkit.googleapis.com/v1"

// SocialExchanger turns an interactive sign-in credential (the OAuth
// authorization code from the callback) into a Google ID token the
// provider can exchange.
type SocialExchanger interface {
	IDToken(ctx context.Context, credential string) (string, error)
}

type Config struct {
	APIKey string
	// Endpoint overrides the API base URL; tests point it at a local server.
	Endpoint   string
	HTTPClient *http.Client
	Social     SocialExchanger
	// ProbeInterval paces the background session probe that feeds the
	// change subscription. Zero selects the default of five minutes.
	ProbeInterval time.Duration
	Logger        *slog.Logger
}

type Provider struct {
	apiKey        string
	endpoint      string
	client        *http.Client
	social        SocialExchanger
	probeInterval time.Duration
	logger        *slog.Logger

	mu      sync.Mutex
	idToken string
}

func New(cfg Config) *Provider {
	p := &Provider{
		apiKey:        cfg.APIKey,
		endpoint:      cfg.Endpoint,
		client:        cfg.HTTPClient,
		social:        cfg.Social,
		probeInterval: cfg.ProbeInterval,
		logger:        cfg.Logger,
	}
	if p.endpoint == "" {
		p.endpoint = defaultEndpoint
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: 15 * time.Second}
	}
	if p.probeInterval <= 0 {
		p.probeInterval = 5 * time.Minute
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

func (p *Provider) Mode() models.Mode { return models.ModeReal }

type authPayload struct {
	Email             string `json:"email,omitempty"`
	Password          string `json:"password,omitempty"`
	IDToken           string `json:"idToken,omitempty"`
	PostBody          string `json:"postBody,omitempty"`
	RequestURI        string `json:"requestUri,omitempty"`
	RequestType       string `json:"requestType,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken,omitempty"`
}

type authResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		DisplayName   string `json:"displayName"`
		EmailVerified bool   `json:"emailVerified"`
	} `json:"users"`
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (models.Identity, error) {
	var resp authResponse
	err := p.call(ctx, "accounts:signInWithPassword", authPayload{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return models.Identity{}, mapSignInError(err)
	}
	return p.identityFrom(ctx, resp)
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (models.Identity, error) {
	var resp authResponse
	err := p.call(ctx, "accounts:signUp", authPayload{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return models.Identity{}, mapSignUpError(err)
	}
	return p.identityFrom(ctx, resp)
}

func (p *Provider) SignInWithSocial(ctx context.Context, credential string) (models.Identity, error) {
	if p.social == nil {
		return models.Identity{}, dErrors.New(dErrors.CodeProviderSignIn, "social sign-in is not configured")
	}
	idToken, err := p.social.IDToken(ctx, credential)
	if err != nil {
		return models.Identity{}, dErrors.Wrap(dErrors.CodeProviderSignIn, "social sign-in failed", err)
	}
	var resp authResponse
	err = p.call(ctx, "accounts:signInWithIdp", authPayload{
		PostBody:          "id_token=" + idToken + "&providerId=google.com",
		RequestURI:        "http://localhost",
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		// Collapse every provider-side failure to the one social kind.
		return models.Identity{}, dErrors.Wrap(dErrors.CodeProviderSignIn, "social sign-in failed", err)
	}
	return p.identityFrom(ctx, resp)
}

// SignOut drops the provider session token held in memory. The REST API
// has no server-side sign-out; token revocation is the caller's concern.
func (p *Provider) SignOut(_ context.Context) error {
	p.setToken("")
	return nil
}

func (p *Provider) SendReset(ctx context.Context, email string) error {
	err := p.call(ctx, "accounts:sendOobCode", authPayload{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}, &struct{}{})
	if err != nil {
		return mapResetError(err)
	}
	return nil
}

// RestoreSession accepts the persisted identity (local token validity is
// enforced by the session manager) and starts the background probe that
// reports external sign-outs through the returned subscription.
func (p *Provider) RestoreSession(_ context.Context, persisted *models.Identity) (*models.Identity, provider.Subscription, error) {
	if persisted == nil {
		return nil, provider.NoopSubscription{}, nil
	}
	sub := newProbeSubscription(p, p.probeInterval)
	return persisted, sub, nil
}

// identityFrom fills emailVerified via accounts:lookup; the sign-in
// responses do not carry it. A failed lookup degrades to unverified
// rather than failing the whole sign-in.
func (p *Provider) identityFrom(ctx context.Context, resp authResponse) (models.Identity, error) {
	p.setToken(resp.IDToken)
	identity := models.Identity{
		ID:          resp.LocalID,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
	}
	var lookup lookupResponse
	if err := p.call(ctx, "accounts:lookup", authPayload{IDToken: resp.IDToken}, &lookup); err == nil && len(lookup.Users) > 0 {
		identity.EmailVerified = lookup.Users[0].EmailVerified
		if identity.DisplayName == "" {
			identity.DisplayName = lookup.Users[0].DisplayName
		}
	} else if err != nil {
		p.logger.Warn("account lookup after sign-in failed", "error", err)
	}
	return identity, nil
}

func (p *Provider) setToken(token string) {
	p.mu.Lock()
	p.idToken = token
	p.mu.Unlock()
}

func (p *Provider) currentToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idToken
}

// apiError carries the provider's error message string, e.g.
// "INVALID_PASSWORD" or "WEAK_PASSWORD : Password should be at least 6
// characters". It never escapes this package unmapped.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("identity toolkit: %d %s", e.Status, e.Message)
}

func (p *Provider) call(ctx context.Context, action string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", action, err)
	}
	url := fmt.Sprintf("%s/%s?key=%s", p.endpoint, action, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", action, err)
	}
	if resp.StatusCode/100 != 2 {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &envelope)
		return &apiError{Status: resp.StatusCode, Message: envelope.Error.Message}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	return nil
}

func mapSignInError(err error) error {
	msg := messageOf(err)
	switch {
	case hasCode(msg, "EMAIL_NOT_FOUND"), hasCode(msg, "INVALID_PASSWORD"), hasCode(msg, "INVALID_LOGIN_CREDENTIALS"):
		return dErrors.Wrap(dErrors.CodeInvalidCredentials, "provider rejected credentials", err)
	case hasCode(msg, "TOO_MANY_ATTEMPTS_TRY_LATER"):
		return dErrors.Wrap(dErrors.CodeRateLimited, "too many attempts", err)
	default:
		return dErrors.Wrap(dErrors.CodeUnknown, "sign-in failed", err)
	}
}

func mapSignUpError(err error) error {
	msg := messageOf(err)
	switch {
	case hasCode(msg, "EMAIL_EXISTS"):
		return dErrors.Wrap(dErrors.CodeEmailAlreadyInUse, "email already in use", err)
	case hasCode(msg, "INVALID_EMAIL"):
		return dErrors.Wrap(dErrors.CodeInvalidEmail, "invalid email", err)
	case hasCode(msg, "WEAK_PASSWORD"):
		return dErrors.Wrap(dErrors.CodeWeakPassword, "password too weak", err)
	default:
		return dErrors.Wrap(dErrors.CodeUnknown, "registration failed", err)
	}
}

func mapResetError(err error) error {
	msg := messageOf(err)
	switch {
	case hasCode(msg, "EMAIL_NOT_FOUND"):
		return dErrors.Wrap(dErrors.CodeAccountNotFound, "no account for that email", err)
	default:
		return dErrors.Wrap(dErrors.CodeUnknown, "password reset failed", err)
	}
}

func messageOf(err error) string {
	if api, ok := err.(*apiError); ok {
		return api.Message
	}
	return ""
}

// hasCode matches the leading error code; the API appends free-form detail
// after a colon for some codes.
func hasCode(message, code string) bool {
	return message == code || strings.HasPrefix(message, code+" ") || strings.HasPrefix(message, code+":")
}
