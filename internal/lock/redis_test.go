package lock_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/tsegaye/travel-listings/internal/lock"
)

var _ = Describe("Redis", func() {
	var (
		mr     *miniredis.Miniredis
		client *redis.Client
		locker *lock.Redis
	)

	const (
		key     = "payment:booking:1"
		lockKey = "lock:" + key
		ttl     = 5 * time.Second
	)

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).ToNot(HaveOccurred())

		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		locker = lock.NewRedis(client, ttl)
	})

	AfterEach(func() {
		client.Close()
		mr.Close()
	})

	It("should hold the key until released", func() {
		release, err := locker.Acquire(context.Background(), key)
		Expect(err).ToNot(HaveOccurred())
		Expect(mr.Exists(lockKey)).To(BeTrue())

		release()
		Expect(mr.Exists(lockKey)).To(BeFalse())
	})

	It("should let the next holder in after a release", func() {
		release, err := locker.Acquire(context.Background(), key)
		Expect(err).ToNot(HaveOccurred())
		release()

		release2, err := locker.Acquire(context.Background(), key)
		Expect(err).ToNot(HaveOccurred())
		release2()
	})

	It("should not delete a lock taken over after the holder's TTL expired", func() {
		staleRelease, err := locker.Acquire(context.Background(), key)
		Expect(err).ToNot(HaveOccurred())

		mr.FastForward(ttl + time.Second)
		Expect(mr.Exists(lockKey)).To(BeFalse())

		nextRelease, err := locker.Acquire(context.Background(), key)
		Expect(err).ToNot(HaveOccurred())

		// The stale holder releasing must not take the key from the new one
		staleRelease()
		Expect(mr.Exists(lockKey)).To(BeTrue())

		nextRelease()
		Expect(mr.Exists(lockKey)).To(BeFalse())
	})

	It("should give up when the context is cancelled while waiting", func() {
		release, err := locker.Acquire(context.Background(), key)
		Expect(err).ToNot(HaveOccurred())
		defer release()

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()

		_, err = locker.Acquire(ctx, key)
		Expect(err).To(MatchError(context.DeadlineExceeded))
	})
})
