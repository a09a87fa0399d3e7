package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jstittsworth/courtside/internal/nba"
	"github.com/jstittsworth/courtside/internal/providers"
	"github.com/jstittsworth/courtside/internal/store"
)

const maxPhotoBytes = 10 << 20

// PhotoService downloads player cutout images from TheSportsDB CDN and
// stores them in blob storage under a deterministic path, so re-running
// the pipeline overwrites rather than duplicates.
type PhotoService struct {
	players    *store.PlayerStore
	blobs      store.BlobStore
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
	cutoutURL  func(providerID string) string
}

func NewPhotoService(players *store.PlayerStore, blobs store.BlobStore, fetchDelay time.Duration, logger *logrus.Logger) *PhotoService {
	if fetchDelay <= 0 {
		fetchDelay = 300 * time.Millisecond
	}
	return &PhotoService{
		players:    players,
		blobs:      blobs,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(fetchDelay), 1),
		logger:     logger,
		cutoutURL:  providers.CutoutURL,
	}
}

// FetchAndStore downloads the photo for one provider id, persists it, and
// records the stored URL on every player holding that id. Returns the
// public URL of the stored asset.
func (s *PhotoService) FetchAndStore(ctx context.Context, source nba.Source, providerID string) (string, error) {
	if providerID == "" {
		return "", fmt.Errorf("missing provider id")
	}
	if source != nba.SourceSportsDB {
		return "", fmt.Errorf("source %s has no photo assets", source)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	data, err := s.download(ctx, s.cutoutURL(providerID))
	if err != nil {
		return "", fmt.Errorf("download photo for %s: %w", providerID, err)
	}

	path := fmt.Sprintf("players/%s/%s.png", source, providerID)
	url, err := s.blobs.Save(ctx, path, data, "image/png")
	if err != nil {
		return "", fmt.Errorf("store photo for %s: %w", providerID, err)
	}

	// The asset is stored and retrievable at this point. Ref write-back
	// failures are soft, like the per-player skips below; the next sweep
	// re-sets the same reference.
	players, err := s.players.ByProviderID(ctx, source, providerID)
	if err != nil {
		s.logger.Warnf("failed to look up players for %s id %s: %v", source, providerID, err)
		return url, nil
	}
	for _, player := range players {
		if err := s.players.SetPhotoRef(ctx, player.PlayerID, source, url); err != nil {
			s.logger.Warnf("failed to record photo ref for player %s: %v", player.PlayerID, err)
		}
	}

	return url, nil
}

// RefreshAll sweeps every known player with a TheSportsDB id and refreshes
// their stored photo. One player's failure does not stop the sweep.
func (s *PhotoService) RefreshAll(ctx context.Context) (int, error) {
	players, err := s.players.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("list players: %w", err)
	}

	stored := 0
	seen := make(map[string]bool)
	for _, player := range players {
		providerID, ok := player.ProviderIDs[nba.SourceSportsDB]
		if !ok || providerID == "" || seen[providerID] {
			continue
		}
		seen[providerID] = true

		if _, err := s.FetchAndStore(ctx, nba.SourceSportsDB, providerID); err != nil {
			s.logger.Warnf("photo refresh for player %s failed: %v", player.PlayerID, err)
			continue
		}
		stored++
	}

	s.logger.Infof("photo refresh complete: %d stored, %d players scanned", stored, len(players))
	return stored, nil
}

func (s *PhotoService) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image body")
	}
	return data, nil
}
