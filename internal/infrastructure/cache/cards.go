package cache

import (
	"context"
	"encoding/json"
	"time"

	"riftmarket-backend/internal/domain"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CardKeyPrefix namespaces cached card payloads in Redis.
const CardKeyPrefix = "card:"

const defaultCardTTL = 24 * time.Hour

// CardCatalog resolves card display payloads. Lookups issued close together are
// batched into one Redis MGET plus one SQL query for whatever Redis did not have.
// Cards are immutable, so cached entries only expire by TTL.
type CardCatalog struct {
	DB     *gorm.DB
	Rdb    *redis.Client // nil disables the Redis layer
	TTL    time.Duration
	loader *dataloader.Loader[string, *domain.Card]
}

var _ domain.CardCatalog = (*CardCatalog)(nil)

func NewCardCatalog(db *gorm.DB, rdb *redis.Client, ttl time.Duration) *CardCatalog {
	if ttl <= 0 {
		ttl = defaultCardTTL
	}
	c := &CardCatalog{DB: db, Rdb: rdb, TTL: ttl}
	c.loader = dataloader.NewBatchedLoader(c.batch,
		dataloader.WithCache[string, *domain.Card](&dataloader.NoCache[string, *domain.Card]{}),
		dataloader.WithWait[string, *domain.Card](2*time.Millisecond),
	)
	return c
}

// Lookup returns the known cards among cardIDs keyed by id.
func (c *CardCatalog) Lookup(ctx context.Context, cardIDs []string) (map[string]domain.Card, error) {
	out := make(map[string]domain.Card, len(cardIDs))
	if len(cardIDs) == 0 {
		return out, nil
	}
	cards, errs := c.loader.LoadMany(ctx, cardIDs)()
	for i, card := range cards {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		if card != nil {
			out[card.CardID] = *card
		}
	}
	return out, nil
}

func (c *CardCatalog) batch(ctx context.Context, ids []string) []*dataloader.Result[*domain.Card] {
	results := make([]*dataloader.Result[*domain.Card], len(ids))
	found := make(map[string]*domain.Card, len(ids))

	missing := c.fromRedis(ctx, ids, found)
	if len(missing) > 0 {
		var cards []domain.Card
		if err := c.DB.WithContext(ctx).Where("card_id IN ?", missing).Find(&cards).Error; err != nil {
			for i := range results {
				results[i] = &dataloader.Result[*domain.Card]{Error: err}
			}
			return results
		}
		for i := range cards {
			found[cards[i].CardID] = &cards[i]
		}
		c.toRedis(ctx, cards)
	}

	for i, id := range ids {
		results[i] = &dataloader.Result[*domain.Card]{Data: found[id]}
	}
	return results
}

// fromRedis fills found from the cache and returns the ids it could not serve.
func (c *CardCatalog) fromRedis(ctx context.Context, ids []string, found map[string]*domain.Card) []string {
	if c.Rdb == nil {
		return ids
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = CardKeyPrefix + id
	}
	vals, err := c.Rdb.MGet(ctx, keys...).Result()
	if err != nil {
		log.Warn().Err(err).Int("cards", len(ids)).Msg("card cache read failed, falling back to database")
		return ids
	}
	missing := make([]string, 0, len(ids))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var card domain.Card
		if err := json.Unmarshal([]byte(s), &card); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		found[ids[i]] = &card
	}
	return missing
}

func (c *CardCatalog) toRedis(ctx context.Context, cards []domain.Card) {
	if c.Rdb == nil || len(cards) == 0 {
		return
	}
	pipe := c.Rdb.Pipeline()
	for _, card := range cards {
		b, err := json.Marshal(card)
		if err != nil {
			continue
		}
		pipe.Set(ctx, CardKeyPrefix+card.CardID, b, c.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Int("cards", len(cards)).Msg("card cache write failed")
	}
}
