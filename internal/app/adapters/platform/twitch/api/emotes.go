package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"

	"tmiclient/internal/app/ports"
)

// Helix accepts at most 25 emote_set_id parameters per request.
const emoteSetBatch = 25

type emoteSetResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		EmoteSetID string `json:"emote_set_id"`
	} `json:"data"`
}

var _ ports.EmoteSetsPort = (*Twitch)(nil)

// GetEmoteSets resolves every set id to its emotes. Known sets come from the
// cache; the rest are fetched in parallel batches.
func (t *Twitch) GetEmoteSets(ctx context.Context, token string, setIDs []string) (ports.EmoteSets, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	sets := make(ports.EmoteSets, len(setIDs))
	var missing []string
	for _, id := range setIDs {
		if id == "" {
			continue
		}
		if _, seen := sets[id]; seen {
			continue
		}
		if emotes, ok := t.emotes.Get(id); ok {
			sets[id] = emotes
			continue
		}
		sets[id] = nil
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return sets, nil
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for batch := range slices.Chunk(missing, emoteSetBatch) {
		wg.Add(1)
		task := func() {
			defer wg.Done()

			fetched, err := t.fetchEmoteSets(ctx, token, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for id, emotes := range fetched {
				sets[id] = emotes
			}
		}
		if err := t.pool.Submit(task); err != nil {
			wg.Done()
			return nil, err
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	t.log.Debug("Emote sets resolved", slog.Int("sets", len(sets)), slog.Int("fetched", len(missing)))
	return sets, nil
}

func (t *Twitch) fetchEmoteSets(ctx context.Context, token string, ids []string) (ports.EmoteSets, error) {
	q := url.Values{}
	for _, id := range ids {
		q.Add("emote_set_id", id)
	}

	var resp emoteSetResponse
	if _, err := t.doTwitchRequest(ctx, twitchRequest{
		Method: http.MethodGet,
		URL:    t.cfg.BaseURL + "/chat/emotes/set?" + q.Encode(),
		Token:  token,
	}, &resp); err != nil {
		t.log.Error("Failed to fetch emote sets", err, slog.Int("count", len(ids)))
		return nil, err
	}

	sets := make(ports.EmoteSets, len(ids))
	for _, id := range ids {
		sets[id] = []ports.Emote{}
	}
	for _, e := range resp.Data {
		sets[e.EmoteSetID] = append(sets[e.EmoteSetID], ports.Emote{Code: e.Name, ID: e.ID})
	}
	for id, emotes := range sets {
		t.emotes.Set(id, emotes)
	}
	return sets, nil
}
