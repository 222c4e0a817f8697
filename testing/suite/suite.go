package suite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	expireDuration  = 120
	maxWaitDuration = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"

	natsPort  = "4222/tcp"
	natsImage = "nats"
	natsTag   = "2.10-alpine"
)

type Suite struct {
	*testing.T

	Redis     *redis.Client
	RedisAddr string

	NATS    *nats.Conn
	NATSURL string
}

// NewRedis starts a throwaway Redis container and returns a connected client.
func NewRedis(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, st, pool, resource := start(t, redisImage, redisTag)

	st.RedisAddr = resource.GetHostPort(redisPort)

	if err := pool.Retry(func() error {
		st.Redis = redis.NewClient(&redis.Options{
			Addr: st.RedisAddr,
		})
		return st.Redis.Ping(ctx).Err()
	}); err != nil {
		t.Fatalf("could not connect to redis: %v", err)
	}

	if err := st.Redis.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush database: %v", err)
	}

	t.Cleanup(func() {
		_ = st.Redis.Close()
	})

	return ctx, st
}

// NewNATS starts a throwaway NATS container and returns a connected client.
func NewNATS(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, st, pool, resource := start(t, natsImage, natsTag)

	st.NATSURL = fmt.Sprintf("nats://%s", resource.GetHostPort(natsPort))

	if err := pool.Retry(func() error {
		conn, err := nats.Connect(st.NATSURL)
		if err != nil {
			return err
		}
		st.NATS = conn
		return nil
	}); err != nil {
		t.Fatalf("could not connect to nats: %v", err)
	}

	t.Cleanup(func() {
		st.NATS.Close()
	})

	return ctx, st
}

func start(t *testing.T, image, tag string) (context.Context, *Suite, *dockertest.Pool, *dockertest.Resource) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: image,
		Tag:        tag,
		Env:        []string{},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start resource: %v", err)
	}

	// never returns error
	_ = resource.Expire(expireDuration) // Tell docker to hard kill the container in 120 seconds

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	pool.MaxWait = maxWaitDuration

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Fatalf("could not purge resource: %v", err)
		}
	})

	return ctx, &Suite{T: t}, pool, resource
}
