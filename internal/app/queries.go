package app

import (
	"context"

	"github.com/pluiedev/krunner-nix/internal/adapters/socket"
	"github.com/pluiedev/krunner-nix/internal/domain/match"
)

// Match returns wire-format matches for query.
// Implements socket.AppQueries.
func (a *App) Match(query string) []socket.MatchHit {
	matches := a.Matches(query)
	hits := make([]socket.MatchHit, len(matches))
	for i, m := range matches {
		hits[i] = socket.MatchHit{
			ID:        m.ID,
			Title:     m.Title,
			Subtitle:  m.Subtitle,
			Icon:      m.Icon,
			MatchType: m.Type.String(),
			Actions:   m.ActionIDs(),
			Relevance: m.Relevance,
		}
	}
	return hits
}

// Actions describes every action a match offers.
// Implements socket.AppQueries.
func (a *App) Actions() []socket.ActionInfo {
	all := match.AllActions()
	out := make([]socket.ActionInfo, len(all))
	for i, act := range all {
		info := act.Info()
		out[i] = socket.ActionInfo{ID: info.ID, Text: info.Text, Icon: info.Icon}
	}
	return out
}

// Run launches a match. Spawn failures come back as errors; the daemon keeps serving.
// Implements socket.AppQueries.
func (a *App) Run(id, action string) (socket.RunResult, error) {
	req, err := a.Launch(id, action)
	if err != nil {
		return socket.RunResult{}, err
	}
	return socket.RunResult{Verb: req.Verb, Target: req.Target}, nil
}

// Reload re-fetches the catalog from its source, bypassing the cache, and
// swaps in the new generation.
// Implements socket.AppQueries.
func (a *App) Reload(ctx context.Context) (socket.ReloadResult, error) {
	start := a.now()
	snap, err := a.rebuild(ctx, false)
	if err != nil {
		a.logger.Error("reload failed", "err", err)
		return socket.ReloadResult{}, err
	}
	return socket.ReloadResult{
		Programs:   snap.Catalog.Len(),
		Tokens:     snap.Engine.Index().TokenCount(),
		Generation: snap.Generation,
		FromCache:  snap.FromCache,
		ElapsedMs:  a.now().Sub(start).Milliseconds(),
	}, nil
}

// Stats describes the snapshot being served.
// Implements socket.AppQueries.
func (a *App) Stats() socket.SnapshotStats {
	snap := a.snap.Load()
	if snap == nil {
		return socket.SnapshotStats{Source: a.source.Key()}
	}
	return socket.SnapshotStats{
		Source:     snap.Source,
		Programs:   snap.Catalog.Len(),
		Tokens:     snap.Engine.Index().TokenCount(),
		Generation: snap.Generation,
		LoadedAt:   snap.LoadedAt.Unix(),
	}
}
