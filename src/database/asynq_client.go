package database

import (
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// AsynqConnOpt points asynq at the same Redis the token blacklist uses.
func AsynqConnOpt(opt *redis.Options) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Network:   opt.Network,
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}
}

// NewAsynqClient returns the client used to enqueue background tasks.
func NewAsynqClient(conn asynq.RedisConnOpt) *asynq.Client {
	return asynq.NewClient(conn)
}
