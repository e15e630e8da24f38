// Package consumerWorker consumes delayed pass-expiry messages and
// retires passes whose validity window has closed.
package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wb-go/wbf/zlog"

	"bizpass/internal/dto"
	"bizpass/internal/mailer"
	"bizpass/internal/rabbit"
	"bizpass/internal/repo"
)

type Reader struct {
	RMQ    *rabbit.Client
	repo   repo.Repository
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, repo repo.Repository) *Reader {
	return &Reader{
		RMQ:  rmq,
		repo: repo,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("pass expiry reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.PassExpiryMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Msgf("failed to unmarshal expiry message: %s", string(body))
				return err
			}

			zlog.Logger.Info().
				Str("pass_id", msg.PassID).
				Time("expire_at", msg.ExpireAt).
				Msg("received expiry message")

			// The publish delay is capped below long validity windows,
			// so a message can arrive ahead of its target instant.
			// Push it back for the remainder instead of consuming it.
			if remaining := time.Until(msg.ExpireAt); remaining > 0 {
				zlog.Logger.Info().
					Str("pass_id", msg.PassID).
					Dur("remaining", remaining).
					Msg("expiry message delivered early, requeueing")
				if err := r.RMQ.Publish(body, int64(remaining.Seconds())+1); err != nil {
					zlog.Logger.Error().
						Err(err).
						Str("pass_id", msg.PassID).
						Msg("failed to requeue early expiry message")
					return err
				}
				return nil
			}

			expired, err := r.repo.ExpireIfActiveTx(cctx, msg.PassID)
			if err != nil {
				if errors.Is(err, repo.ErrPassNotFound) {
					// Pass was deleted with its event; nothing to do.
					return nil
				}
				zlog.Logger.Error().
					Err(err).
					Str("pass_id", msg.PassID).
					Msg("failed to expire pass")
				return err
			}

			if !expired {
				zlog.Logger.Info().
					Str("pass_id", msg.PassID).
					Msg("pass already used or cancelled, skipping")
				return nil
			}

			pass, err := r.repo.GetPassPublicByID(cctx, msg.PassID)
			if err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("pass_id", msg.PassID).
					Msg("failed to get pass for expiry mail")
				return nil
			}

			if pass.HolderEmail == "" {
				return nil
			}
			if err := mailer.SendPassEmail(
				&zlog.Logger,
				"expired",
				pass.HolderEmail,
				pass.HolderName,
				pass.EventName,
				pass.PassCode,
				pass.VerificationURL,
			); err != nil {
				zlog.Logger.Warn().
					Err(err).
					Msg("failed to send expiry notification")
			}

			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("pass expiry reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
