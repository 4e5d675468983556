package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"insuranceInsights/domain"

	"github.com/redis/go-redis/v9"
)

// TokenRepository is the server side registry of issued tokens, keyed by jti.
type TokenRepository struct {
	client *redis.Client
}

func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{
		client: client,
	}
}

func tokenKey(tokenID string) string {
	return fmt.Sprintf("insights:token:%s", tokenID)
}

func userTokensKey(userID string) string {
	return fmt.Sprintf("insights:user:%s:tokens", userID)
}

func (r *TokenRepository) StoreToken(ctx context.Context, data domain.TokenRecord, ttl time.Duration) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, tokenKey(data.TokenID), jsonData, ttl)
	pipe.SAdd(ctx, userTokensKey(data.UserID), data.TokenID)
	pipe.Expire(ctx, userTokensKey(data.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store token in Redis: %w", err)
	}

	return nil
}

// ValidateToken returns the registered data for a live token.
func (r *TokenRepository) ValidateToken(ctx context.Context, tokenID string) (*domain.TokenRecord, error) {
	val, err := r.client.Get(ctx, tokenKey(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("token not found or expired: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	var data domain.TokenRecord
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token data: %w", err)
	}

	return &data, nil
}

func (r *TokenRepository) RevokeToken(ctx context.Context, tokenID string) error {
	data, err := r.ValidateToken(ctx, tokenID)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, tokenKey(tokenID))
	pipe.SRem(ctx, userTokensKey(data.UserID), tokenID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// RevokeUserTokens drops every token issued to a user.
func (r *TokenRepository) RevokeUserTokens(ctx context.Context, userID string) error {
	ids, err := r.client.SMembers(ctx, userTokensKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list user tokens: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, tokenKey(id))
	}
	keys = append(keys, userTokensKey(userID))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	return nil
}
