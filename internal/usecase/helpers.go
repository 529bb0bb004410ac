package usecase

import (
	"context"
	"strings"
	"time"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func loadCourse(ctx context.Context, repo domain.CourseRepository, id string) (*domain.Course, error) {
	oid, err := domain.ParseID(id, "course")
	if err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, oid)
}

// publish sends an event and only logs when the broker refuses it.
func publish(ctx context.Context, pub domain.EventPublisher, log *logger.Logger, event domain.Event) {
	if pub == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event", "event_type", event.Type, "course_id", event.CourseID, "error", err)
	}
}

func notify(ctx context.Context, n domain.Notifier, log *logger.Logger, userID uint, title, message, kind, link string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, userID, title, message, kind, link); err != nil {
		log.Warn("failed to create notification", "user_id", userID, "kind", kind, "error", err)
	}
}

var legacyMediaPrefixes = []string{"/uploads/videos/", "/uploads/audios/", "/api/media/videos/", "/api/media/audios/"}

// normalizeMediaURL rewrites paths written by older uploads to the current media route.
func normalizeMediaURL(url string) string {
	url = strings.TrimSpace(url)
	for _, p := range legacyMediaPrefixes {
		if strings.HasPrefix(url, p) {
			return domain.MediaURL(strings.TrimPrefix(url, p))
		}
	}
	return url
}

func trimmed(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return strings.TrimSpace(*s), true
}

func objectIDPtr(id primitive.ObjectID) *primitive.ObjectID {
	return &id
}
