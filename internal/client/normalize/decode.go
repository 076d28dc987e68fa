package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/go-viper/mapstructure/v2"
)

var (
	ErrInvalidCard         = errors.New("card has no subject id")
	ErrInvalidNotification = errors.New("notification has no message")
)

// DecodeCard decodes a recommendation card. Field names are matched
// case-insensitively and scalars are weakly typed, so "27" and 27 are both
// accepted as a score.
func DecodeCard(raw models.RawRecord) (models.RecommendationCard, error) {
	in := lowerKeys(raw)
	if _, ok := in["recommendation_uid"]; !ok {
		if uid, ok := in["uid"]; ok {
			in["recommendation_uid"] = uid
		}
	}
	if s, ok := in["score"]; ok && empty(s) {
		delete(in, "score")
	}

	var card models.RecommendationCard
	if err := decode(in, &card); err != nil {
		// an unreadable score must not cost the whole card
		delete(in, "score")
		card = models.RecommendationCard{}
		if err := decode(in, &card); err != nil {
			return card, fmt.Errorf("decode card: %w", err)
		}
	}
	card.SubjectID = strings.TrimSpace(card.SubjectID)
	if card.SubjectID == "" {
		return card, ErrInvalidCard
	}
	return card, nil
}

// DecodeNotification decodes a server notification record.
func DecodeNotification(raw models.RawRecord) (models.Notification, error) {
	var n models.Notification
	if err := decode(lowerKeys(raw), &n); err != nil {
		return n, fmt.Errorf("decode notification: %w", err)
	}
	if strings.TrimSpace(n.Message) == "" {
		return n, ErrInvalidNotification
	}
	return n, nil
}

// DedupeNotifications drops repeated (message, updated) pairs, keeping the
// first occurrence.
func DedupeNotifications(list []models.Notification) []models.Notification {
	seen := make(map[string]struct{}, len(list))
	out := make([]models.Notification, 0, len(list))
	for _, n := range list {
		k := n.Message + "\x00" + n.Updated
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	return out
}

func decode(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func lowerKeys(raw models.RawRecord) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		lk := strings.ToLower(k)
		if _, taken := out[lk]; taken && empty(v) {
			continue
		}
		out[lk] = v
	}
	return out
}
