package ports

import "context"

type EmoteSetsPort interface {
	GetEmoteSets(ctx context.Context, token string, setIDs []string) (EmoteSets, error)
}

// EmoteSets maps an emote set id to the emotes it contains.
type EmoteSets map[string][]Emote

type Emote struct {
	Code string `json:"code"`
	ID   string `json:"id"`
}
