package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"aula-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collCourses       = "courses"
	collEnrollments   = "enrollments"
	collExamAttempts  = "exam_attempts"
	collNotifications = "notifications"
)

func translateWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicate
	}
	return err
}

// ========== COURSE REPOSITORY ==========

type courseRepo struct {
	db *mongo.Database
}

func NewCourseRepository(db *mongo.Database) domain.CourseRepository {
	return &courseRepo{db}
}

func (r *courseRepo) Create(ctx context.Context, course *domain.Course) error {
	if course.ID.IsZero() {
		course.ID = primitive.NewObjectID()
	}
	_, err := r.db.Collection(collCourses).InsertOne(ctx, course)
	return translateWriteErr(err)
}

func (r *courseRepo) Update(ctx context.Context, course *domain.Course) error {
	res, err := r.db.Collection(collCourses).ReplaceOne(ctx, bson.M{"_id": course.ID}, course)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("course not found")
	}
	return nil
}

func (r *courseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Course, error) {
	var course domain.Course
	err := r.db.Collection(collCourses).FindOne(ctx, bson.M{"_id": id}).Decode(&course)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("course not found")
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Course, error) {
	if len(ids) == 0 {
		return []domain.Course{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *courseRepo) GetAll(ctx context.Context, includeInactive bool) ([]domain.Course, error) {
	filter := bson.M{}
	if !includeInactive {
		filter["activo"] = true
	}
	return r.find(ctx, filter)
}

func (r *courseRepo) Search(ctx context.Context, query string) ([]domain.Course, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return r.find(ctx, bson.M{
		"activo": true,
		"$or": bson.A{
			bson.M{"titulo": pattern},
			bson.M{"descripcion": pattern},
			bson.M{"categoria": pattern},
			bson.M{"profesor.nombre": pattern},
		},
	})
}

// AdjustEnrolled applies delta to estudiantesInscritos without going below zero.
func (r *courseRepo) AdjustEnrolled(ctx context.Context, id primitive.ObjectID, delta int) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["estudiantesInscritos"] = bson.M{"$gte": -delta}
	}
	_, err := r.db.Collection(collCourses).UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"estudiantesInscritos": delta}})
	return err
}

func (r *courseRepo) find(ctx context.Context, filter bson.M) ([]domain.Course, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fechaCreacion", Value: -1}})
	cursor, err := r.db.Collection(collCourses).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	courses := []domain.Course{}
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// ========== ENROLLMENT REPOSITORY ==========

type enrollmentRepo struct {
	db *mongo.Database
}

func NewEnrollmentRepository(db *mongo.Database) domain.EnrollmentRepository {
	return &enrollmentRepo{db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	if enrollment.ID.IsZero() {
		enrollment.ID = primitive.NewObjectID()
	}
	_, err := r.db.Collection(collEnrollments).InsertOne(ctx, enrollment)
	return translateWriteErr(err)
}

func (r *enrollmentRepo) GetByUserAndCourse(ctx context.Context, userID uint, courseID primitive.ObjectID) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.db.Collection(collEnrollments).FindOne(ctx, bson.M{"usuario": userID, "curso": courseID}).Decode(&enrollment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) GetByUserID(ctx context.Context, userID uint) ([]domain.Enrollment, error) {
	return r.find(ctx, bson.M{"usuario": userID})
}

func (r *enrollmentRepo) GetByCourseID(ctx context.Context, courseID primitive.ObjectID) ([]domain.Enrollment, error) {
	return r.find(ctx, bson.M{"curso": courseID})
}

func (r *enrollmentRepo) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	res, err := r.db.Collection(collEnrollments).ReplaceOne(ctx, bson.M{"_id": enrollment.ID}, enrollment)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("enrollment not found")
	}
	return nil
}

func (r *enrollmentRepo) Delete(ctx context.Context, userID uint, courseID primitive.ObjectID) (bool, error) {
	res, err := r.db.Collection(collEnrollments).DeleteOne(ctx, bson.M{"usuario": userID, "curso": courseID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *enrollmentRepo) find(ctx context.Context, filter bson.M) ([]domain.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fechaUltimoAcceso", Value: -1}})
	cursor, err := r.db.Collection(collEnrollments).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	enrollments := []domain.Enrollment{}
	if err := cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// ========== EXAM ATTEMPT REPOSITORY ==========

type examAttemptRepo struct {
	db *mongo.Database
}

func NewExamAttemptRepository(db *mongo.Database) domain.ExamAttemptRepository {
	return &examAttemptRepo{db}
}

// Create relies on the unique (usuario, examen, intento) index so that two
// concurrent submissions cannot share an attempt number.
func (r *examAttemptRepo) Create(ctx context.Context, attempt *domain.ExamAttempt) error {
	if attempt.ID.IsZero() {
		attempt.ID = primitive.NewObjectID()
	}
	_, err := r.db.Collection(collExamAttempts).InsertOne(ctx, attempt)
	return translateWriteErr(err)
}

func (r *examAttemptRepo) GetByUserAndExam(ctx context.Context, userID uint, examID primitive.ObjectID) ([]domain.ExamAttempt, error) {
	return r.find(ctx, bson.M{"usuario": userID, "examen": examID})
}

func (r *examAttemptRepo) GetByUserAndCourse(ctx context.Context, userID uint, courseID primitive.ObjectID) ([]domain.ExamAttempt, error) {
	return r.find(ctx, bson.M{"usuario": userID, "curso": courseID})
}

func (r *examAttemptRepo) DeleteByUserAndCourse(ctx context.Context, userID uint, courseID primitive.ObjectID) (int64, error) {
	res, err := r.db.Collection(collExamAttempts).DeleteMany(ctx, bson.M{"usuario": userID, "curso": courseID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *examAttemptRepo) find(ctx context.Context, filter bson.M) ([]domain.ExamAttempt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fecha", Value: 1}, {Key: "intento", Value: 1}})
	cursor, err := r.db.Collection(collExamAttempts).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	attempts := []domain.ExamAttempt{}
	if err := cursor.All(ctx, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

// ========== NOTIFICATION REPOSITORY ==========

type notificationRepo struct {
	db *mongo.Database
}

func NewNotificationRepository(db *mongo.Database) domain.NotificationRepository {
	return &notificationRepo{db}
}

func (r *notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := r.db.Collection(collNotifications).InsertOne(ctx, n)
	return err
}

func (r *notificationRepo) GetByUserID(ctx context.Context, userID uint) ([]domain.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fechaCreacion", Value: -1}}).SetLimit(100)
	cursor, err := r.db.Collection(collNotifications).Find(ctx, bson.M{"usuario": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []domain.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, userID uint, id primitive.ObjectID) (bool, error) {
	res, err := r.db.Collection(collNotifications).UpdateOne(ctx,
		bson.M{"_id": id, "usuario": userID},
		bson.M{"$set": bson.M{"leida": true}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res, err := r.db.Collection(collNotifications).UpdateMany(ctx,
		bson.M{"usuario": userID, "leida": false},
		bson.M{"$set": bson.M{"leida": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *notificationRepo) Delete(ctx context.Context, userID uint, id primitive.ObjectID) (bool, error) {
	res, err := r.db.Collection(collNotifications).DeleteOne(ctx, bson.M{"_id": id, "usuario": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
