package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

var (
	// ErrEmailExists indicates the identity provider already has an account
	// for the supplied email address.
	ErrEmailExists = errors.New("auth: email already registered")
	// ErrProvisionerUnavailable wraps transport-level provisioning failures.
	ErrProvisionerUnavailable = errors.New("auth: identity provider unreachable")

	errMissingAPIKey = errors.New("auth: identity toolkit api key required")
)

// ProvisionerConfig configures the Identity Toolkit REST client.
type ProvisionerConfig struct {
	APIKey  string
	BaseURL string
	Logger  *zap.Logger
}

// Provisioner creates and removes identity-provider accounts through the
// Firebase Identity Toolkit REST surface. Token verification stays with
// FirebaseVerifier; this client only covers account lifecycle.
type Provisioner struct {
	client *resty.Client
	apiKey string
	logger *zap.Logger
}

// ProvisionedAccount reports the outcome of a signUp call. The short-lived
// IDToken allows a best-effort rollback when local account creation fails.
type ProvisionedAccount struct {
	Subject string
	IDToken string
	Email   string
}

// NewProvisioner constructs an Identity Toolkit client.
func NewProvisioner(cfg ProvisionerConfig) (*Provisioner, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errMissingAPIKey
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultIdentityToolkitURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Content-Type", "application/json")

	return &Provisioner{
		client: client,
		apiKey: apiKey,
		logger: logger,
	}, nil
}

type signUpRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signUpResponse struct {
	LocalID string `json:"localId"`
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
}

type toolkitErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateAccount provisions an email/password account and returns its subject id.
func (p *Provisioner) CreateAccount(ctx context.Context, email, password string) (ProvisionedAccount, error) {
	var success signUpResponse
	var failure toolkitErrorResponse

	response, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(signUpRequest{Email: email, Password: password, ReturnSecureToken: true}).
		SetResult(&success).
		SetError(&failure).
		Post("/accounts:signUp")
	if err != nil {
		return ProvisionedAccount{}, fmt.Errorf("%w: %v", ErrProvisionerUnavailable, err)
	}
	if response.StatusCode() != http.StatusOK {
		if failure.Error.Message == "EMAIL_EXISTS" {
			return ProvisionedAccount{}, ErrEmailExists
		}
		return ProvisionedAccount{}, fmt.Errorf("auth: signUp returned status %d: %s", response.StatusCode(), failure.Error.Message)
	}
	if success.LocalID == "" {
		return ProvisionedAccount{}, errors.New("auth: signUp response missing localId")
	}

	return ProvisionedAccount{
		Subject: success.LocalID,
		IDToken: success.IDToken,
		Email:   success.Email,
	}, nil
}

type deleteAccountRequest struct {
	IDToken string `json:"idToken"`
}

// DeleteAccount removes the account identified by the supplied ID token.
// Used to roll back provisioning when the local user insert fails.
func (p *Provisioner) DeleteAccount(ctx context.Context, idToken string) error {
	var failure toolkitErrorResponse

	response, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(deleteAccountRequest{IDToken: idToken}).
		SetError(&failure).
		Post("/accounts:delete")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvisionerUnavailable, err)
	}
	if response.StatusCode() != http.StatusOK {
		return fmt.Errorf("auth: delete returned status %d: %s", response.StatusCode(), failure.Error.Message)
	}
	return nil
}

type sendOobCodeRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
}

// SendPasswordReset asks the identity provider to email a reset link.
func (p *Provisioner) SendPasswordReset(ctx context.Context, email string) error {
	var failure toolkitErrorResponse

	response, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(sendOobCodeRequest{RequestType: "PASSWORD_RESET", Email: email}).
		SetError(&failure).
		Post("/accounts:sendOobCode")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvisionerUnavailable, err)
	}
	if response.StatusCode() != http.StatusOK {
		return fmt.Errorf("auth: sendOobCode returned status %d: %s", response.StatusCode(), failure.Error.Message)
	}
	return nil
}
