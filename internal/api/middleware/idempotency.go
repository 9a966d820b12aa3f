package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
)

const IdempotencyHeader = "Idempotency-Key"

// Idempotency rejects a repeated Idempotency-Key from the same user on the
// same route with domain.ErrDuplicateRequest. Requests without the header
// pass through. A key is released when the request fails so the client can
// retry it. If the store is unreachable the request proceeds unguarded.
func Idempotency(store ports.IdempotencyStore, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(IdempotencyHeader)
			if key == "" {
				return next(c)
			}

			userID, _ := c.Get("user_id").(string)
			scoped := fmt.Sprintf("%s:%s:%s", userID, c.Path(), key)

			ctx := c.Request().Context()
			claimed, err := store.Claim(ctx, scoped)
			if err != nil {
				log.Warn().Err(err).Str("path", c.Path()).Msg("idempotency store unavailable")
				return next(c)
			}
			if !claimed {
				return domain.ErrDuplicateRequest
			}

			err = next(c)
			if err != nil || c.Response().Status >= 400 {
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
				defer cancel()
				if rerr := store.Release(releaseCtx, scoped); rerr != nil {
					log.Warn().Err(rerr).Str("path", c.Path()).Msg("idempotency release failed")
				}
			}
			return err
		}
	}
}
