package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/amaumene/showlink/internal/domain"
	"github.com/amaumene/showlink/internal/retry"
	"github.com/jacklaaa89/trakt"
	"github.com/jacklaaa89/trakt/authorization"
	"github.com/jacklaaa89/trakt/show"
	log "github.com/sirupsen/logrus"
)

const tokenFilePermissions = 0600

type TraktClient struct {
	clientSecret string
	tokenPath    string

	authOnce sync.Once
	authErr  error

	mu    sync.RWMutex
	token *trakt.Token
}

// NewTraktClient configures the Trakt backend. No token is read until the
// first catalog call or an explicit Authenticate, so commands that never
// reach the catalog never start the device-code flow.
func NewTraktClient(apiKey, clientSecret, tokenPath string, timeout time.Duration) *TraktClient {
	trakt.Key = apiKey

	configureBackend(timeout)

	return &TraktClient{
		clientSecret: clientSecret,
		tokenPath:    tokenPath,
	}
}

// configureBackend disables the library's own retries; the service layer
// retries through retry.Do.
func configureBackend(timeout time.Duration) {
	trakt.WithConfig(&trakt.BackendConfig{
		MaxNetworkRetries: 0,
		HTTPClient:        &http.Client{Timeout: timeout},
	})
}

// Authenticate loads the OAuth token, running the device-code flow when
// no token file exists yet. It does nothing without a client secret and
// only runs once.
func (c *TraktClient) Authenticate() error {
	c.authOnce.Do(func() {
		if c.clientSecret == "" {
			return
		}
		token, err := loadOrGenerateToken(c.clientSecret, c.tokenPath)
		if err != nil {
			c.authErr = fmt.Errorf("loading trakt token: %w", err)
			return
		}
		c.setToken(token)
	})
	return c.authErr
}

func (c *TraktClient) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != nil
}

func (c *TraktClient) setToken(token *trakt.Token) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *TraktClient) currentToken() *trakt.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *TraktClient) accessToken() string {
	token := c.currentToken()
	if token == nil {
		return ""
	}
	return token.AccessToken
}

// authHeaders returns the bearer header for authenticated clients, nil
// otherwise.
func (c *TraktClient) authHeaders() http.Header {
	accessToken := c.accessToken()
	if accessToken == "" {
		return nil
	}
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+accessToken)
	return headers
}

type showIterator interface {
	Next() bool
	Show() (*trakt.Show, error)
	Err() error
}

// relatedParams asks for one page of limit shows. Catalog pages count from
// one, ours from zero.
func (c *TraktClient) relatedParams(ctx context.Context, page, limit int) *trakt.ExtendedListParams {
	return &trakt.ExtendedListParams{
		BasicListParams: trakt.BasicListParams{
			Context: ctx,
			Headers: c.authHeaders(),
			Page:    trakt.Int64(int64(page + 1)),
			Limit:   trakt.Int64(int64(limit)),
		},
	}
}

func (c *TraktClient) showParams(ctx context.Context) *trakt.ExtendedParams {
	return &trakt.ExtendedParams{
		BasicParams: trakt.BasicParams{
			Context: ctx,
			Headers: c.authHeaders(),
		},
		Extended: trakt.ExtendedTypeFull,
	}
}

// RelatedShows returns the page'th block of limit related shows, pages
// counted from zero.
func (c *TraktClient) RelatedShows(ctx context.Context, traktID int64, page, limit int) ([]domain.CatalogShow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.Authenticate(); err != nil {
		return nil, err
	}

	iterator := show.Related(trakt.ID(traktID), c.relatedParams(ctx, page, limit))
	iterator.PageLimit(1)

	shows, err := collectShows(ctx, iterator, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching related shows for %d: %w", traktID, err)
	}
	return shows, nil
}

// collectShows reads at most limit shows from iterator. An item that does
// not decode is logged and skipped.
func collectShows(ctx context.Context, iterator showIterator, limit int) ([]domain.CatalogShow, error) {
	shows := make([]domain.CatalogShow, 0, limit)
	for len(shows) < limit && iterator.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item, err := iterator.Show()
		if err != nil {
			log.WithFields(log.Fields{
				"component": "trakt",
				"position":  len(shows),
			}).WithError(err).Warn("Skipping undecodable related show")
			continue
		}
		shows = append(shows, toCatalogShow(item))
	}
	if err := iterator.Err(); err != nil {
		return nil, classify(err)
	}
	return shows, nil
}

func (c *TraktClient) Show(ctx context.Context, traktID int64) (*domain.CatalogShow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.Authenticate(); err != nil {
		return nil, err
	}

	item, err := show.Get(trakt.ID(traktID), c.showParams(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching show %d: %w", traktID, classify(err))
	}
	catalogShow := toCatalogShow(item)
	return &catalogShow, nil
}

// classify tags Trakt API errors with their HTTP status so the retry
// policy can tell rate limits and server errors from permanent failures.
func classify(err error) error {
	var apiErr *trakt.Error
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return retry.WithStatus(int(apiErr.HTTPStatusCode), err)
	}
	return err
}

func toCatalogShow(item *trakt.Show) domain.CatalogShow {
	return domain.CatalogShow{
		TraktID:  int64(item.Trakt),
		Slug:     string(item.Slug),
		IMDB:     string(item.IMDB),
		TMDB:     int64(item.TMDB),
		TVDB:     int64(item.TVDB),
		Title:    item.Title,
		Year:     int64(item.Year),
		Overview: item.Overview,
		Status:   string(item.Status),
	}
}

func (c *TraktClient) RefreshToken(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	token := c.currentToken()
	if token == nil {
		return nil
	}

	params := &trakt.RefreshTokenParams{
		RefreshToken: token.RefreshToken,
		ClientSecret: c.clientSecret,
	}

	refreshedToken, err := authorization.RefreshToken(params)
	if err != nil {
		return fmt.Errorf("refreshing token: %w", classify(err))
	}

	if err := saveToken(refreshedToken, c.tokenPath); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	c.setToken(refreshedToken)
	return nil
}

func loadOrGenerateToken(clientSecret, tokenPath string) (*trakt.Token, error) {
	if fileExists(tokenPath) {
		return loadToken(tokenPath)
	}
	return generateToken(clientSecret, tokenPath)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func loadToken(tokenPath string) (*trakt.Token, error) {
	file, err := os.Open(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("opening token file: %w", err)
	}
	defer file.Close()

	var token trakt.Token
	if err := json.NewDecoder(file).Decode(&token); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return &token, nil
}

func generateToken(clientSecret, tokenPath string) (*trakt.Token, error) {
	deviceCode, err := authorization.NewCode(nil)
	if err != nil {
		return nil, fmt.Errorf("generating device code: %w", err)
	}

	fmt.Printf("Please go to %s and enter the code: %s\n", deviceCode.VerificationURL, deviceCode.UserCode)

	token, err := authorization.Poll(&trakt.PollCodeParams{
		Code:         deviceCode.Code,
		Interval:     deviceCode.Interval,
		ExpiresIn:    deviceCode.ExpiresIn,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("polling for token: %w", err)
	}

	if err := saveToken(token, tokenPath); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}
	return token, nil
}

func saveToken(token *trakt.Token, tokenPath string) error {
	file, err := os.OpenFile(tokenPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, tokenFilePermissions)
	if err != nil {
		return fmt.Errorf("creating token file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(token); err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	return nil
}

// RefreshPeriodically renews the OAuth token every interval until ctx is
// done. It returns immediately for unauthenticated clients.
func (c *TraktClient) RefreshPeriodically(ctx context.Context, interval time.Duration) {
	if !c.Authenticated() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.RefreshToken(ctx); err != nil {
				logRefreshError(err)
			}
		}
	}
}

func logRefreshError(err error) {
	if retry.IsTransient(err) {
		log.WithField("error", err).Warn("transient error refreshing trakt token, will retry next cycle")
	} else {
		log.WithField("error", err).Error("failed to refresh trakt token")
	}
}
