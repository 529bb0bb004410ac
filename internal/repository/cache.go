package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}
	return client, nil
}

const activeCoursesKey = "courses:active"

// cachedCourseRepo is a read-through cache in front of the course store.
// Cache failures never fail a request; the store stays authoritative.
type cachedCourseRepo struct {
	next   domain.CourseRepository
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewCachedCourseRepository(next domain.CourseRepository, client *redis.Client, ttl time.Duration, log *logger.Logger) domain.CourseRepository {
	return &cachedCourseRepo{next: next, client: client, ttl: ttl, log: log}
}

func courseKey(id primitive.ObjectID) string {
	return "course:" + id.Hex()
}

func (r *cachedCourseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Course, error) {
	raw, err := r.client.Get(ctx, courseKey(id)).Bytes()
	if err == nil {
		var course domain.Course
		if err := bson.Unmarshal(raw, &course); err == nil {
			return &course, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.log.Warn("course cache read failed", "course_id", id.Hex(), "error", err)
	}

	course, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, courseKey(id), course)
	return course, nil
}

func (r *cachedCourseRepo) GetAll(ctx context.Context, includeInactive bool) ([]domain.Course, error) {
	if includeInactive {
		return r.next.GetAll(ctx, true)
	}

	raw, err := r.client.Get(ctx, activeCoursesKey).Bytes()
	if err == nil {
		var wrapper struct {
			Courses []domain.Course `bson:"courses"`
		}
		if err := bson.Unmarshal(raw, &wrapper); err == nil {
			return wrapper.Courses, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.log.Warn("course list cache read failed", "error", err)
	}

	courses, err := r.next.GetAll(ctx, false)
	if err != nil {
		return nil, err
	}
	r.store(ctx, activeCoursesKey, bson.M{"courses": courses})
	return courses, nil
}

func (r *cachedCourseRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Course, error) {
	return r.next.GetByIDs(ctx, ids)
}

func (r *cachedCourseRepo) Search(ctx context.Context, query string) ([]domain.Course, error) {
	return r.next.Search(ctx, query)
}

func (r *cachedCourseRepo) Create(ctx context.Context, course *domain.Course) error {
	if err := r.next.Create(ctx, course); err != nil {
		return err
	}
	r.invalidate(ctx, course.ID)
	return nil
}

func (r *cachedCourseRepo) Update(ctx context.Context, course *domain.Course) error {
	if err := r.next.Update(ctx, course); err != nil {
		return err
	}
	r.invalidate(ctx, course.ID)
	return nil
}

func (r *cachedCourseRepo) AdjustEnrolled(ctx context.Context, id primitive.ObjectID, delta int) error {
	if err := r.next.AdjustEnrolled(ctx, id, delta); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedCourseRepo) store(ctx context.Context, key string, v interface{}) {
	raw, err := bson.Marshal(v)
	if err != nil {
		r.log.Warn("course cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.log.Warn("course cache write failed", "key", key, "error", err)
	}
}

func (r *cachedCourseRepo) invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := r.client.Del(ctx, courseKey(id), activeCoursesKey).Err(); err != nil {
		r.log.Warn("course cache invalidation failed", "course_id", id.Hex(), "error", err)
	}
}
