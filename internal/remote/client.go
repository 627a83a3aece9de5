// Package remote is the client for the Sprout Found backend API. Every
// request carries the stored session credentials as headers; the backend
// is the only authority on whether they are valid.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/keyxmakerx/sproutfound/internal/config"
	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
)

// maxErrorBody caps how much of an error response is kept for logging.
const maxErrorBody = 4 << 10

// CredentialSource provides the headers attached to every call.
type CredentialSource interface {
	GetToken(ctx context.Context) (string, error)
	GetVerify(ctx context.Context) (string, error)
	GetIP(ctx context.Context) (string, error)
}

// StatusError is returned when the backend answers with an unexpected status.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// Client calls the backend API.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialSource
}

// NewClient creates a client from the remote settings.
func NewClient(cfg config.RemoteConfig, creds CredentialSource) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		creds:   creds,
	}
}

// --- Payloads ---

type amountPayload struct {
	Amount string `json:"AMOUNT"`
}

// PurchaseInput describes a purchase.
type PurchaseInput struct {
	Name       string  `json:"NAME"`
	Amount     float64 `json:"AMOUNT"`
	SaveAmount float64 `json:"SAVE_AMOUNT"`
}

type redeemCoinsPayload struct {
	SproutCoins int `json:"SPROUT_COINS"`
}

// RedeemInvestmentInput withdraws an investment; a nil Amount withdraws it
// in full.
type RedeemInvestmentInput struct {
	InvestmentID string   `json:"INVESTMENT_ID"`
	Amount       *float64 `json:"AMOUNT,omitempty"`
}

// profileEnvelope is the backend's response wrapper for the profile call.
type profileEnvelope struct {
	Body struct {
		Response credentials.UserData `json:"response"`
	} `json:"body"`
}

// --- Calls ---

// RechargeAccount tops up the account balance.
func (c *Client) RechargeAccount(ctx context.Context, amount float64) error {
	body := amountPayload{Amount: strconv.FormatFloat(amount, 'f', -1, 64)}
	return c.do(ctx, http.MethodPost, "/acounts/RechargeAcount", body, nil, http.StatusOK)
}

// RechargeSproutCoins credits Sprout-Coins to the account.
func (c *Client) RechargeSproutCoins(ctx context.Context, amount int) error {
	body := amountPayload{Amount: strconv.Itoa(amount)}
	return c.do(ctx, http.MethodPost, "/acounts/RechargeSproutsCoins", body, nil)
}

// MakePurchase records a purchase.
func (c *Client) MakePurchase(ctx context.Context, in PurchaseInput) error {
	return c.do(ctx, http.MethodPost, "/acounts/MakePurchase", in, nil, http.StatusCreated)
}

// RedeemSproutCoins exchanges Sprout-Coins.
func (c *Client) RedeemSproutCoins(ctx context.Context, coins int) error {
	body := redeemCoinsPayload{SproutCoins: coins}
	return c.do(ctx, http.MethodPost, "/acounts/RedeemSproutsCoins", body, nil, http.StatusOK)
}

// RedeemInvestment withdraws an investment.
func (c *Client) RedeemInvestment(ctx context.Context, in RedeemInvestmentInput) error {
	return c.do(ctx, http.MethodPost, "/acounts/RedeemInvestements", in, nil, http.StatusOK)
}

// GetProfile fetches the user profile.
func (c *Client) GetProfile(ctx context.Context) (*credentials.UserData, error) {
	var env profileEnvelope
	if err := c.do(ctx, http.MethodGet, "/users/Profile", nil, &env); err != nil {
		return nil, err
	}
	return &env.Body.Response, nil
}

// do sends one request. With no expected statuses any 2xx is success.
func (c *Client) do(ctx context.Context, method, path string, in, out any, expect ...int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	slog.Debug("remote call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	if !statusOK(resp.StatusCode, expect) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// authorize attaches whichever credentials are stored.
func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	token, err := c.creds.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}
	verify, err := c.creds.GetVerify(ctx)
	if err != nil {
		return fmt.Errorf("reading verify: %w", err)
	}
	ip, err := c.creds.GetIP(ctx)
	if err != nil {
		return fmt.Errorf("reading ip: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if verify != "" {
		req.Header.Set("verify", verify)
	}
	if ip != "" {
		req.Header.Set("ip", ip)
	}
	return nil
}

func statusOK(status int, expect []int) bool {
	if len(expect) == 0 {
		return status >= 200 && status < 300
	}
	for _, s := range expect {
		if status == s {
			return true
		}
	}
	return false
}
